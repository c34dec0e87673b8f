package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/TobiSchelling/marketbrief/internal/config"
	"github.com/TobiSchelling/marketbrief/internal/extract"
	"github.com/TobiSchelling/marketbrief/internal/fetch"
	"github.com/TobiSchelling/marketbrief/internal/gazetteer"
	"github.com/TobiSchelling/marketbrief/internal/llm"
	"github.com/TobiSchelling/marketbrief/internal/market"
	"github.com/TobiSchelling/marketbrief/internal/resolve"
	"github.com/TobiSchelling/marketbrief/internal/summarize"
)

// ErrEmptyContent is returned when neither paragraphs nor a known content
// container yield any text.
var ErrEmptyContent = errors.New("no article content found")

// State is a stage of a pipeline run.
type State int

const (
	Fetching State = iota
	Parsing
	Extracting
	Resolving
	Summarizing
	Assembled
	Failed
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Parsing:
		return "parsing"
	case Extracting:
		return "extracting"
	case Resolving:
		return "resolving"
	case Summarizing:
		return "summarizing"
	case Assembled:
		return "assembled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fetcher retrieves the raw markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the outcome of one run. On failure Record is EmptyRecord(),
// State is Failed, FailedAt names the stage and Err says why.
type Result struct {
	Record   Record
	State    State
	FailedAt State
	Err      error
	Steps    []StepResult
}

// OK reports whether the run assembled a record.
func (r *Result) OK() bool {
	return r.State == Assembled
}

// Pipeline turns one article URL into one Record. A Pipeline holds only
// read-only collaborators and can serve concurrent runs.
type Pipeline struct {
	fetcher    Fetcher
	extractor  *extract.ContentExtractor
	resolver   *resolve.Resolver
	summarizer *summarize.Client
	debug      bool
}

// New creates a pipeline from configuration, a loaded gazetteer, a ticker
// validator and a summarization backend.
func New(cfg *config.Config, gaz *gazetteer.Gazetteer, validator market.Validator, backend llm.Summarizer) *Pipeline {
	debug := cfg.Debug()
	return &Pipeline{
		fetcher: fetch.NewPageFetcher(fetch.Options{
			UserAgent:      cfg.Fetch.UserAgent,
			AcceptLanguage: cfg.Fetch.AcceptLanguage,
			Timeout:        cfg.Fetch.Timeout,
		}),
		extractor:  extract.NewContentExtractor(cfg.Extraction.ContentClasses, cfg.Extraction.Placeholders),
		resolver:   resolve.New(gaz, validator).WithDebug(debug),
		summarizer: summarize.NewClient(backend, cfg.Summarization.ChunkWords, cfg.Summarization.Timeout).WithDebug(debug),
		debug:      debug,
	}
}

// WithFetcher replaces the page fetcher.
func (p *Pipeline) WithFetcher(f Fetcher) *Pipeline {
	p.fetcher = f
	return p
}

// Run executes fetch, parse, extract, resolve and summarize for pageURL.
// Only fetch, parse and empty-content failures fail the run; summarization
// and validation problems degrade single fields.
func (p *Pipeline) Run(ctx context.Context, pageURL string) *Result {
	r := &Result{State: Fetching}

	// Step 1: Fetch
	log.Printf("Step 1/5: Fetching %s...", pageURL)
	raw, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return r.fail(StepResult{Name: "Fetch", Err: err})
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Downloaded %d bytes", len(raw)),
	})

	// Step 2: Parse
	r.State = Parsing
	log.Println("Step 2/5: Parsing page...")
	doc, err := extract.Parse(raw)
	if err != nil {
		return r.fail(StepResult{Name: "Parse", Err: err})
	}
	r.Steps = append(r.Steps, StepResult{Name: "Parse", Summary: "Document parsed"})

	// Step 3: Extract
	r.State = Extracting
	log.Println("Step 3/5: Extracting content and metadata...")
	content, source := p.extractor.ExtractWith(doc)
	if content == "" {
		return r.fail(StepResult{Name: "Extract", Err: ErrEmptyContent})
	}
	meta := extract.Meta(doc, pageURL)
	enrichment, err := extract.Enrich(raw, pageURL)
	if err != nil && p.debug {
		log.Printf("Readability enrichment skipped: %v", err)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Extract",
		Summary: fmt.Sprintf("Extracted %d characters via %s", len(content), source),
	})

	// Step 4: Resolve
	r.State = Resolving
	log.Println("Step 4/5: Resolving tickers and companies...")
	entities := p.resolver.Resolve(ctx, content)
	r.Steps = append(r.Steps, StepResult{
		Name: "Resolve",
		Summary: fmt.Sprintf("Found %d tickers, %d indexes, %d companies",
			len(entities.Tickers), len(entities.Indexes), len(entities.Companies)),
	})

	// Step 5: Summarize
	r.State = Summarizing
	log.Println("Step 5/5: Summarizing...")
	summary := p.summarizer.Summarize(ctx, content)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("Summarized %d chunks, %d failed", len(summary.Chunks), summary.Failed()),
	})

	r.Record = Record{
		URL:         pageURL,
		Domain:      meta.Domain,
		Title:       meta.Title,
		PublishedAt: meta.PublishedAt,
		Content:     content,
		Summary:     summary.Summary,
		Tickers:     entities.Tickers,
		Indexes:     entities.Indexes,
		Companies:   entities.Companies,
		Byline:      enrichment.Byline,
		SiteName:    enrichment.SiteName,
		Excerpt:     enrichment.Excerpt,
	}
	r.State = Assembled
	return r
}

func (r *Result) fail(step StepResult) *Result {
	log.Printf("%s failed: %v", step.Name, step.Err)
	r.Steps = append(r.Steps, step)
	r.Record = EmptyRecord()
	r.FailedAt = r.State
	r.State = Failed
	r.Err = fmt.Errorf("%s: %w", step.Name, step.Err)
	return r
}

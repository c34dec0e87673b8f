// Package summarize produces an article summary by sending word-bounded
// chunks to a summarization backend one at a time.
package summarize

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/TobiSchelling/marketbrief/internal/llm"
)

// ChunkResult is the outcome of summarizing one chunk. Exactly one of Text
// and Err is meaningful.
type ChunkResult struct {
	Index int
	Text  string
	Err   error
}

// OK reports whether the chunk was summarized.
func (r ChunkResult) OK() bool {
	return r.Err == nil
}

// Result holds every chunk outcome in order plus the assembled summary.
type Result struct {
	Chunks  []ChunkResult
	Summary string
}

// Failed returns the number of chunks that contributed nothing.
func (r *Result) Failed() int {
	n := 0
	for _, c := range r.Chunks {
		if !c.OK() {
			n++
		}
	}
	return n
}

// Client summarizes article text chunk by chunk.
type Client struct {
	backend  llm.Summarizer
	maxWords int
	timeout  time.Duration
	debug    bool
}

// NewClient creates a client. timeout bounds each backend call; zero means
// no per-call limit beyond the caller's context.
func NewClient(backend llm.Summarizer, maxWords int, timeout time.Duration) *Client {
	return &Client{backend: backend, maxWords: maxWords, timeout: timeout}
}

// WithDebug enables per-chunk logging.
func (c *Client) WithDebug(debug bool) *Client {
	c.debug = debug
	return c
}

// Summarize segments text and summarizes each chunk in order. Chunks whose
// call fails are recorded and skipped; the rest are concatenated.
func (c *Client) Summarize(ctx context.Context, text string) *Result {
	chunks := Segment(text, c.maxWords)
	r := &Result{Chunks: make([]ChunkResult, 0, len(chunks))}

	for _, chunk := range chunks {
		res := c.summarizeChunk(ctx, chunk)
		if !res.OK() {
			log.Printf("Summarizing chunk %d/%d failed: %v", chunk.Index+1, len(chunks), res.Err)
		} else if c.debug {
			log.Printf("Chunk %d/%d: %d chars summarized", chunk.Index+1, len(chunks), len(res.Text))
		}
		r.Chunks = append(r.Chunks, res)
	}

	r.Summary = Assemble(r.Chunks)
	return r
}

func (c *Client) summarizeChunk(ctx context.Context, chunk Chunk) ChunkResult {
	if c.backend == nil {
		return ChunkResult{Index: chunk.Index, Err: fmt.Errorf("no summarizer configured")}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.backend.Summarize(callCtx, chunk.Text)
	if err != nil {
		return ChunkResult{Index: chunk.Index, Err: fmt.Errorf("chunk %d: %w", chunk.Index, err)}
	}
	return ChunkResult{Index: chunk.Index, Text: Clean(out)}
}

// Assemble concatenates the successful chunk summaries in order with no
// separator.
func Assemble(results []ChunkResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.OK() {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// Clean removes the space some models insert before a sentence-final period.
func Clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " .", "."))
}

// Package resolve finds the tickers, market indexes and companies an
// article mentions.
//
// Regex patterns alone over-generate: any short capitalised word in
// parentheses looks like a symbol. Candidates therefore have to appear in
// the gazetteer's ticker column and pass live validation. A second pass
// matches company names from the gazetteer to recover tickers the article
// never spells out.
package resolve

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/TobiSchelling/marketbrief/internal/gazetteer"
	"github.com/TobiSchelling/marketbrief/internal/market"
)

var indexPattern = regexp.MustCompile(`\(\^[A-Z0-9]{1,6}\)`)

// tickerPattern is one regex family. group selects the submatch holding the
// symbol (0 for the whole match).
type tickerPattern struct {
	name  string
	re    *regexp.Regexp
	group int
}

// tickerPatterns are applied in order and their matches unioned.
var tickerPatterns = []tickerPattern{
	{name: "dollar", re: regexp.MustCompile(`\$[A-Z]{1,5}`)},
	{name: "paren", re: regexp.MustCompile(`([A-Z]{1,5})\)`), group: 1},
	{name: "stock-shares", re: regexp.MustCompile(`\b([A-Z]{2,5})\s+(?:stock|shares)\b`), group: 1},
	{name: "futures", re: regexp.MustCompile(`\b[A-Z]{1,4}=F\b`)},
}

var possessive = regexp.MustCompile(`['’]s\b`)

// Entities is the outcome of one resolution. All slices are sorted and
// non-nil.
type Entities struct {
	Tickers   []string
	Indexes   []string
	Companies []string
}

// Resolver combines pattern matching, the gazetteer and a market-data
// validator. It holds no per-call state and is safe for concurrent use as
// long as its validator is.
type Resolver struct {
	gaz       *gazetteer.Gazetteer
	validator market.Validator
	debug     bool
}

// New creates a resolver. A nil validator accepts every symbol.
func New(gaz *gazetteer.Gazetteer, validator market.Validator) *Resolver {
	if validator == nil {
		validator = market.AcceptAll{}
	}
	return &Resolver{gaz: gaz, validator: validator}
}

// WithDebug enables per-candidate logging.
func (r *Resolver) WithDebug(debug bool) *Resolver {
	r.debug = debug
	return r
}

// Resolve extracts entities from text. Validation failures exclude the
// affected symbol and never abort resolution.
func (r *Resolver) Resolve(ctx context.Context, text string) Entities {
	indexes := ExtractIndexes(text)
	candidates := ExtractCandidates(text)

	// Each distinct symbol is validated at most once per call.
	verdicts := make(map[string]bool)
	valid := func(symbol string) bool {
		if ok, seen := verdicts[symbol]; seen {
			return ok
		}
		err := r.validator.Validate(ctx, symbol)
		if err != nil && r.debug {
			log.Printf("Ticker %s rejected by %s: %v", symbol, r.validator.Name(), err)
		}
		verdicts[symbol] = err == nil
		return err == nil
	}

	tickers := make(map[string]struct{})
	for _, c := range candidates {
		if _, isIndex := indexes[c]; isIndex {
			continue
		}
		if !r.gaz.HasTicker(c) {
			continue
		}
		if valid(c) {
			tickers[c] = struct{}{}
		}
	}

	for _, key := range r.MatchCompanies(text) {
		var contributed []string
		if t, ok := r.gaz.Ticker(key); ok {
			contributed = append(contributed, t)
		}
		contributed = append(contributed, gazetteer.ExtraTickers(key)...)
		for _, t := range contributed {
			if _, isIndex := indexes[t]; isIndex {
				continue
			}
			if valid(t) {
				tickers[t] = struct{}{}
			}
		}
	}

	return Entities{
		Tickers:   sortedKeys(tickers),
		Indexes:   sortedKeys(indexes),
		Companies: r.gaz.CompaniesFor(tickers),
	}
}

// ExtractIndexes returns the index symbols written as "(^CODE)".
func ExtractIndexes(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range indexPattern.FindAllString(text, -1) {
		out[strings.Trim(m, "()^")] = struct{}{}
	}
	return out
}

// ExtractCandidates returns every raw ticker candidate, de-duplicated, in
// order of first appearance across the pattern families.
func ExtractCandidates(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range tickerPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			symbol := strings.Trim(m[p.group], "()$")
			if symbol == "" {
				continue
			}
			if _, dup := seen[symbol]; dup {
				continue
			}
			seen[symbol] = struct{}{}
			out = append(out, symbol)
		}
	}
	return out
}

// MatchCompanies returns gazetteer keys whose display name appears in text
// as a whole, space-delimited phrase.
func (r *Resolver) MatchCompanies(text string) []string {
	padded := " " + NormalizeText(text) + " "
	var out []string
	for _, key := range r.gaz.Keys() {
		if strings.Contains(padded, " "+gazetteer.DisplayName(key)+" ") {
			out = append(out, key)
		}
	}
	return out
}

// NormalizeText prepares article text for company-name matching by removing
// possessive "'s", periods and commas.
func NormalizeText(text string) string {
	text = possessive.ReplaceAllString(text, "")
	return strings.NewReplacer(".", "", ",", "").Replace(text)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

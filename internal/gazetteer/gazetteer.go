// Package gazetteer holds the static company-name to ticker table used to
// recognise companies in article text.
//
// A Gazetteer is built once at startup and never mutated afterwards, so a
// single value can be shared by any number of goroutines.
package gazetteer

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed companies.csv
var defaultTable []byte

var (
	nameColumns   = []string{"name", "company", "short name", "short_name", "security name", "company name"}
	tickerColumns = []string{"ticker", "symbol"}
)

// Entry is one company row.
type Entry struct {
	Key    string
	Ticker string
}

// Gazetteer maps normalized company names to ticker symbols.
type Gazetteer struct {
	byKey   map[string]string
	tickers map[string]struct{}
	keys    []string
}

// Default returns the gazetteer built from the table embedded in the binary.
func Default() (*Gazetteer, error) {
	return Load(strings.NewReader(string(defaultTable)))
}

// LoadFile reads a gazetteer CSV from disk.
func LoadFile(path string) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gazetteer: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a CSV table with a header row. The name and ticker columns are
// located by header name; other columns are ignored. Rows with an empty name
// or ticker are skipped. When two rows normalize to the same key the first
// one wins.
func Load(r io.Reader) (*Gazetteer, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("gazetteer table is empty")
		}
		return nil, fmt.Errorf("reading gazetteer header: %w", err)
	}

	nameIdx := columnIndex(header, nameColumns)
	tickerIdx := columnIndex(header, tickerColumns)
	if nameIdx < 0 || tickerIdx < 0 {
		return nil, fmt.Errorf("gazetteer header %v needs a name and a ticker column", header)
	}

	var entries []Entry
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading gazetteer row: %w", err)
		}
		if nameIdx >= len(row) || tickerIdx >= len(row) {
			continue
		}
		key := NormalizeName(row[nameIdx])
		ticker := strings.ToUpper(strings.TrimSpace(row[tickerIdx]))
		if key == "" || ticker == "" {
			continue
		}
		entries = append(entries, Entry{Key: key, Ticker: ticker})
	}

	return New(entries), nil
}

// New builds a gazetteer from already-normalized entries.
func New(entries []Entry) *Gazetteer {
	g := &Gazetteer{
		byKey:   make(map[string]string, len(entries)),
		tickers: make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		if _, dup := g.byKey[e.Key]; dup {
			continue
		}
		g.byKey[e.Key] = e.Ticker
		g.tickers[e.Ticker] = struct{}{}
		g.keys = append(g.keys, e.Key)
	}
	sort.Strings(g.keys)
	return g
}

func columnIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

// Len returns the number of companies.
func (g *Gazetteer) Len() int {
	return len(g.keys)
}

// Keys returns every company key in sorted order. The slice must not be
// modified.
func (g *Gazetteer) Keys() []string {
	return g.keys
}

// Ticker returns the ticker for a normalized company key.
func (g *Gazetteer) Ticker(key string) (string, bool) {
	t, ok := g.byKey[key]
	return t, ok
}

// HasTicker reports whether symbol appears in the ticker column.
func (g *Gazetteer) HasTicker(symbol string) bool {
	_, ok := g.tickers[symbol]
	return ok
}

// CompaniesFor returns every company key whose ticker is in the set, sorted.
func (g *Gazetteer) CompaniesFor(tickers map[string]struct{}) []string {
	out := []string{}
	for _, k := range g.keys {
		if _, ok := tickers[g.byKey[k]]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Search returns entries whose key or ticker contains query,
// case-insensitively. An empty query returns everything.
func (g *Gazetteer) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Entry
	for _, k := range g.keys {
		t := g.byKey[k]
		if q == "" || strings.Contains(k, q) || strings.Contains(strings.ToLower(t), q) {
			out = append(out, Entry{Key: k, Ticker: t})
		}
	}
	return out
}

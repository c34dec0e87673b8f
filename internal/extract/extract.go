// Package extract pulls article text and metadata out of parsed HTML.
//
// Extraction is heuristic and never fails: when nothing usable is found the
// result is an empty string and the caller decides what that means.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parse builds the document tree for raw markup.
func Parse(raw []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Strategy attempts one way of locating the article body.
type Strategy interface {
	Name() string
	// Extract reports whether the strategy applies to doc. A strategy that
	// applies wins even when the text it yields is empty.
	Extract(doc *goquery.Document) (string, bool)
}

// ClassStrategy matches the first element carrying a CSS class.
type ClassStrategy string

func (c ClassStrategy) Name() string {
	return "class:" + string(c)
}

func (c ClassStrategy) Extract(doc *goquery.Document) (string, bool) {
	name := string(c)
	sel := doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass(name)
	})
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.First().Text()), true
}

// ContentExtractor finds the article body. Paragraph text is the default;
// the first container-class strategy that matches replaces it.
type ContentExtractor struct {
	strategies   []Strategy
	placeholders []string
}

// NewContentExtractor builds an extractor that tries classes in order and
// strips placeholders from the paragraph default.
func NewContentExtractor(classes, placeholders []string) *ContentExtractor {
	strategies := make([]Strategy, 0, len(classes))
	for _, c := range classes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		strategies = append(strategies, ClassStrategy(c))
	}
	return &ContentExtractor{strategies: strategies, placeholders: placeholders}
}

// Extract returns the best-guess article body, or "" when the page has
// neither paragraphs nor a known content container.
func (e *ContentExtractor) Extract(doc *goquery.Document) string {
	text, _ := e.ExtractWith(doc)
	return text
}

// ExtractWith is Extract that also names the winning strategy ("paragraphs"
// for the default, "" when nothing was found).
func (e *ContentExtractor) ExtractWith(doc *goquery.Document) (string, string) {
	text := e.paragraphs(doc)
	source := ""
	if text != "" {
		source = "paragraphs"
	}

	for _, s := range e.strategies {
		if t, ok := s.Extract(doc); ok {
			return t, s.Name()
		}
	}
	return text, source
}

func (e *ContentExtractor) paragraphs(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	text := strings.Join(parts, " ")
	for _, p := range e.placeholders {
		if p != "" && strings.Contains(text, p) {
			text = strings.ReplaceAll(text, p, "")
		}
	}
	return text
}

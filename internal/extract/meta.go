package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Metadata describes where an article came from.
type Metadata struct {
	Title       string
	PublishedAt string
	Domain      string
}

// Meta extracts title, publish time and domain. Missing values are empty.
func Meta(doc *goquery.Document, pageURL string) Metadata {
	return Metadata{
		Title:       Title(doc),
		PublishedAt: PublishedAt(doc),
		Domain:      Domain(pageURL),
	}
}

// Title returns the longest of the first two h1 headings. Sites often
// render a short or hidden duplicate heading before the real one.
func Title(doc *goquery.Document) string {
	best, bestLen := "", -1
	doc.Find("h1").EachWithBreak(func(i int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if n := utf8.RuneCountInString(t); n > bestLen {
			best, bestLen = t, n
		}
		return i < 1
	})
	return best
}

// PublishedAt returns the datetime attribute of the first <time> that has one.
func PublishedAt(doc *goquery.Document) string {
	v, _ := doc.Find("time[datetime]").First().Attr("datetime")
	return strings.TrimSpace(v)
}

// Domain returns the network location of pageURL.
func Domain(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return ""
	}
	return u.Host
}

// Enrichment holds the readability-derived extras.
type Enrichment struct {
	Byline   string
	SiteName string
	Excerpt  string
}

// Enrich runs readability over the raw page for byline, site name and
// excerpt. It parses its own tree because readability rewrites the DOM.
func Enrich(raw []byte, pageURL string) (Enrichment, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Enrichment{}, fmt.Errorf("parsing URL: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(raw), u)
	if err != nil {
		return Enrichment{}, fmt.Errorf("readability: %w", err)
	}
	return Enrichment{
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: strings.TrimSpace(article.SiteName),
		Excerpt:  strings.TrimSpace(article.Excerpt),
	}, nil
}

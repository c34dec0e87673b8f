// Package report renders an analyzed article record for people and
// programs.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/marketbrief/internal/pipeline"
)

// Format names an output rendering.
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

var md = goldmark.New()

// ParseFormat validates a format name. The empty string means Text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, Markdown, HTML:
		return f, nil
	case "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, markdown or html)", s)
	}
}

// Write renders rec to w in the given format.
func Write(w io.Writer, rec pipeline.Record, f Format) error {
	switch f {
	case Text, "":
		_, err := io.WriteString(w, RenderText(rec))
		return err
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case Markdown:
		_, err := io.WriteString(w, RenderMarkdown(rec))
		return err
	case HTML:
		out, err := RenderHTML(rec)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// RenderText prints every field under its own label, one blank line apart.
func RenderText(rec pipeline.Record) string {
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "Article %s: \n%s\n\n", label, value)
	}
	field("Content", rec.Content)
	field("Title", rec.Title)
	field("DateTime", rec.PublishedAt)
	field("Domain", rec.Domain)
	field("Tickers", list(rec.Tickers))
	field("Indexes", list(rec.Indexes))
	field("Companies", list(rec.Companies))
	field("Summary", rec.Summary)
	if rec.Byline != "" {
		field("Byline", rec.Byline)
	}
	if rec.SiteName != "" {
		field("Site", rec.SiteName)
	}
	return b.String()
}

// RenderMarkdown produces a Markdown brief: title, source line, instruments
// and summary, with the full text last.
func RenderMarkdown(rec pipeline.Record) string {
	var b strings.Builder

	title := rec.Title
	if title == "" {
		title = "Untitled article"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var source []string
	if rec.SiteName != "" {
		source = append(source, rec.SiteName)
	} else if rec.Domain != "" {
		source = append(source, rec.Domain)
	}
	if rec.Byline != "" {
		source = append(source, rec.Byline)
	}
	if rec.PublishedAt != "" {
		source = append(source, rec.PublishedAt)
	}
	if len(source) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(source, " · "))
	}
	if rec.URL != "" {
		fmt.Fprintf(&b, "<%s>\n\n", rec.URL)
	}

	b.WriteString("## Instruments\n\n")
	fmt.Fprintf(&b, "- **Tickers:** %s\n", codeList(rec.Tickers))
	fmt.Fprintf(&b, "- **Indexes:** %s\n", codeList(rec.Indexes))
	fmt.Fprintf(&b, "- **Companies:** %s\n\n", orNone(strings.Join(rec.Companies, ", ")))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", orNone(rec.Summary))

	b.WriteString("## Article\n\n")
	fmt.Fprintf(&b, "%s\n", orNone(rec.Content))
	return b.String()
}

// RenderHTML converts the Markdown brief into an HTML fragment.
func RenderHTML(rec pipeline.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(RenderMarkdown(rec)), &buf); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func list(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

func codeList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "_none_"
	}
	return s
}

package pipeline

// Record is the structured result of analyzing one article. Every field is
// always present; slices are sorted and never nil.
type Record struct {
	URL         string   `json:"url"`
	Domain      string   `json:"domain"`
	Title       string   `json:"title"`
	PublishedAt string   `json:"published_at"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Tickers     []string `json:"tickers"`
	Indexes     []string `json:"indexes"`
	Companies   []string `json:"companies"`
	Byline      string   `json:"byline"`
	SiteName    string   `json:"site_name"`
	Excerpt     string   `json:"excerpt"`
}

// EmptyRecord returns the record produced by a failed run.
func EmptyRecord() Record {
	return Record{
		Tickers:   []string{},
		Indexes:   []string{},
		Companies: []string{},
	}
}

// Empty reports whether the record carries no article content.
func (r Record) Empty() bool {
	return r.Content == ""
}

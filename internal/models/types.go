
package models

// Metadata is the structured summary of an HTML document's head.
// A nil scalar field means the value was not found. Keywords is nil when
// the tag is missing and empty (non-nil) when it was present but blank.
type Metadata struct {
	URL         *string  `json:"url"`
	SiteName    *string  `json:"siteName"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Keywords    []string `json:"keywords"`
	Author      *string  `json:"author"`
}

// Text returns a pointer to s, or nil when s is empty.
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional field, returning "" when absent.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

type CrawlResult struct {
	SourceURL string   `json:"sourceUrl"`
	FetchMs   int64    `json:"fetchMs"`
	Meta      Metadata `json:"meta"`
}

// CrawlOutcome is one line of batch output: either a result or an error.
type CrawlOutcome struct {
	URL    string       `json:"url"`
	Result *CrawlResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

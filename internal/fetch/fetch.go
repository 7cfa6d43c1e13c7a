// Package fetch retrieves rendered text content for arbitrary URLs through a
// chain of content-fetching providers.
package fetch

import "context"

// Page holds the extracted main content of a fetched URL.
type Page struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Source      string `json:"source"` // e.g. "firecrawl", "jina"
}

// Fetcher fetches a single URL and returns its content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Name() string
}

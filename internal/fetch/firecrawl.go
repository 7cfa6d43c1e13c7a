package fetch

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/madalingavanarescu/competeai/internal/resilience"
	"github.com/madalingavanarescu/competeai/pkg/firecrawl"
)

// FirecrawlFetcher fetches pages via the Firecrawl scrape API.
type FirecrawlFetcher struct {
	client firecrawl.Client
}

// NewFirecrawlFetcher creates a Firecrawl-backed fetcher.
func NewFirecrawlFetcher(client firecrawl.Client) *FirecrawlFetcher {
	return &FirecrawlFetcher{client: client}
}

func (f *FirecrawlFetcher) Name() string { return "firecrawl" }

func (f *FirecrawlFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		var apiErr *firecrawl.APIError
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return nil, resilience.NewTransientError(err, apiErr.StatusCode)
		}
		return nil, err
	}
	if !resp.Success || resp.Data.Markdown == "" {
		return nil, eris.Errorf("fetch: firecrawl returned no content for %s", url)
	}

	return &Page{
		URL:         url,
		Title:       resp.Data.Metadata.Title,
		Description: resp.Data.Metadata.Description,
		Content:     resp.Data.Markdown,
		Source:      f.Name(),
	}, nil
}

package fetch

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/madalingavanarescu/competeai/internal/resilience"
	"github.com/madalingavanarescu/competeai/pkg/jina"
)

// JinaFetcher fetches pages via the Jina AI Reader.
type JinaFetcher struct {
	client jina.Client
}

// NewJinaFetcher creates a Jina-backed fetcher.
func NewJinaFetcher(client jina.Client) *JinaFetcher {
	return &JinaFetcher{client: client}
}

func (f *JinaFetcher) Name() string { return "jina" }

func (f *JinaFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	resp, err := f.client.Read(ctx, url)
	if err != nil {
		var apiErr *jina.APIError
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return nil, resilience.NewTransientError(err, apiErr.StatusCode)
		}
		return nil, err
	}
	if resp.Data.Content == "" {
		return nil, eris.Errorf("fetch: jina returned no content for %s", url)
	}

	return &Page{
		URL:         url,
		Title:       resp.Data.Title,
		Description: resp.Data.Description,
		Content:     resp.Data.Content,
		Source:      f.Name(),
	}, nil
}

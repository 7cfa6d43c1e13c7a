// Package analyzer implements the AI-driven analysis phases: website context
// extraction, competitor discovery, and per-competitor comparative analysis.
// Every phase prefers returning a degraded-but-valid result over failing;
// only the orchestrator translates conditions into job failures.
package analyzer

import (
	"context"

	"go.uber.org/zap"

	"github.com/madalingavanarescu/competeai/internal/fetch"
	"github.com/madalingavanarescu/competeai/pkg/anthropic"
)

// Prompt input budgets, bounded to respect upstream token limits.
const (
	maxWebsiteContentChars    = 4000
	maxCompetitorContentChars = 3000
)

// Analyzer runs AI completions for the analysis phases.
type Analyzer struct {
	ai      anthropic.Client
	fetcher fetch.Fetcher
	model   string
}

// New creates an Analyzer. fetcher may be a single provider or a chain.
func New(ai anthropic.Client, fetcher fetch.Fetcher, model string) *Analyzer {
	return &Analyzer{ai: ai, fetcher: fetcher, model: model}
}

// complete sends one prompt and returns the raw response text, logging cost
// attribution per phase.
func (a *Analyzer) complete(ctx context.Context, phase, system, prompt string, maxTokens int64) (string, error) {
	temp := 0.3
	resp, err := a.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      system,
		Prompt:      prompt,
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(resp.Model, phase)
	return resp.Text(), nil
}

// fetchContent is a best-effort page fetch. Failures are logged and reported
// as empty content; the analysis proceeds with lower input quality.
func (a *Analyzer) fetchContent(ctx context.Context, url string) string {
	page, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		zap.L().Warn("analyzer: content fetch failed, continuing without scraped content",
			zap.String("url", url),
			zap.Error(err),
		)
		return ""
	}
	return page.Content
}

// truncate bounds s to max characters.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

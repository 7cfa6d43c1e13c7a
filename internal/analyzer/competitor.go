package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/madalingavanarescu/competeai/internal/archetype"
	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/normalize"
)

// AnalyzeCompetitor produces structured comparative data for one competitor
// relative to the subject's context. An AI service failure degrades to an
// archetype-synthesized record rather than an error; only exceeding the
// caller's deadline (or cancellation) is reported as an error, so the
// orchestrator can retry or skip the competitor. scraped is an optional
// content excerpt from the competitor's site; pass "" when the scrape failed.
func (a *Analyzer) AnalyzeCompetitor(ctx context.Context, subject *model.WebsiteContext, candidate model.CandidateCompetitor, scraped string) (model.Competitor, error) {
	guess := archetype.Guess(candidate.Website)

	content := scraped
	if content == "" {
		content = "(no competitor website content available)"
	}

	prompt := fmt.Sprintf(competitorPrompt,
		candidate.Name, candidate.Website,
		subject.CompanyName,
		subject.BusinessModel,
		subject.Industry,
		subject.ValueProposition,
		strings.Join(subject.CoreOfferings.KeyFeatures, ", "),
		subject.PricingStrategy.Model,
		subject.PricingStrategy.StartingPrice,
		subject.PricingStrategy.Currency,
		truncate(content, maxCompetitorContentChars),
	)

	raw, err := a.complete(ctx, "competitor_analysis", competitorSystem, prompt, 2500)
	if err != nil {
		if ctx.Err() != nil {
			return model.Competitor{}, ctx.Err()
		}
		zap.L().Warn("analyzer: comparative AI call failed, synthesizing from archetype",
			zap.String("competitor", candidate.Name),
			zap.Error(err),
		)
		comp := normalize.FallbackCompetitor(candidate.Name, candidate.Website, guess, subject)
		if candidate.Description != "" {
			comp.Description = candidate.Description
		}
		return comp, nil
	}

	comp := normalize.Competitor(raw, candidate.Name, candidate.Website, guess, subject)
	if candidate.Description != "" && strings.HasPrefix(comp.Description, candidate.Name+" is a ") {
		// Prefer the discovery description over the generic synthesized one.
		comp.Description = candidate.Description
	}
	return comp, nil
}

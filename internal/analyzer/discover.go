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

// Discovery tuning.
const (
	// minRelevanceScore is the filter threshold on the 1-10 scale.
	minRelevanceScore = 6
	// maxCandidates caps the discovery output, preserving discovery order.
	maxCandidates = 8
)

// Discover produces a ranked, filtered list of candidate competitors. It
// never fails: an AI failure falls back to the static per-industry table.
// An empty result is valid; the orchestrator decides whether to retry.
func (a *Analyzer) Discover(ctx context.Context, website, companyName string, subject *model.WebsiteContext) []model.CandidateCompetitor {
	guess := archetype.Guess(website)

	prompt := fmt.Sprintf(discoverPrompt,
		companyName, website,
		subject.BusinessModel,
		subject.Industry,
		subject.TargetAudience.Primary,
		subject.PricingStrategy.Model,
		subject.PricingStrategy.StartingPrice,
		subject.PricingStrategy.Currency,
		strings.Join(subject.CoreOfferings.KeyFeatures, ", "),
	)

	raw, err := a.complete(ctx, "competitor_discovery", discoverSystem, prompt, 2000)
	if err != nil {
		zap.L().Warn("analyzer: discovery AI call failed, using static fallback list",
			zap.String("website", website),
			zap.String("industry_guess", string(guess)),
			zap.Error(err),
		)
		return FilterCandidates(archetype.FallbackCandidates(guess), subject.Industry)
	}

	return FilterCandidates(normalize.Candidates(raw), subject.Industry)
}

// FilterCandidates applies the relevance filter and output cap: candidates
// need a relevance score of at least 6 and an exact or similar business-model
// match. Candidates without a score get one computed heuristically. The
// first 8 survivors are returned in their original discovery order, with
// website strings normalized to carry a scheme.
func FilterCandidates(candidates []model.CandidateCompetitor, industry string) []model.CandidateCompetitor {
	out := make([]model.CandidateCompetitor, 0, maxCandidates)
	for _, c := range candidates {
		if c.BusinessModelMatch != model.MatchExact && c.BusinessModelMatch != model.MatchSimilar {
			continue
		}
		if c.RelevanceScore == 0 {
			c.RelevanceScore = HeuristicScore(c, industry)
		}
		if c.RelevanceScore < minRelevanceScore {
			continue
		}
		c.Website = ensureScheme(c.Website)
		out = append(out, c)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}

// HeuristicScore computes a relevance score for candidates the AI returned
// without one: base 5, +3 for an exact business-model match, +1 for similar,
// +2 when the description mentions the subject's industry.
func HeuristicScore(c model.CandidateCompetitor, industry string) int {
	score := 5
	switch c.BusinessModelMatch {
	case model.MatchExact:
		score += 3
	case model.MatchSimilar:
		score++
	}
	if industry != "" && strings.Contains(strings.ToLower(c.Description), strings.ToLower(industry)) {
		score += 2
	}
	return score
}

// ensureScheme prefixes https:// when the website string has no scheme.
func ensureScheme(website string) string {
	if website == "" || strings.Contains(website, "://") {
		return website
	}
	return "https://" + website
}

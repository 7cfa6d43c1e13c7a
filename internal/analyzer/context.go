package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/madalingavanarescu/competeai/internal/archetype"
	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/normalize"
)

// AnalyzeWebsite produces a structured profile of the subject company. It
// never fails: an AI or fetch failure degrades to the industry archetype
// fallback, recorded in the context's Source field.
func (a *Analyzer) AnalyzeWebsite(ctx context.Context, website, companyName string) model.WebsiteContext {
	guess := archetype.Guess(website)

	content := a.fetchContent(ctx, website)
	if content == "" {
		content = "(no website content available)"
	}

	prompt := fmt.Sprintf(contextPrompt, companyName, website, truncate(content, maxWebsiteContentChars))
	raw, err := a.complete(ctx, "website_context", contextSystem, prompt, 1500)
	if err != nil {
		zap.L().Warn("analyzer: website context AI call failed, using fallback",
			zap.String("website", website),
			zap.String("industry_guess", string(guess)),
			zap.Error(err),
		)
		return normalize.FallbackContext(companyName, website, guess)
	}

	return normalize.Context(raw, companyName, website, guess)
}

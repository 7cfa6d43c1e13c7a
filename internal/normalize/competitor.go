package normalize

import (
	"encoding/json"

	"github.com/madalingavanarescu/competeai/internal/archetype"
	"github.com/madalingavanarescu/competeai/internal/model"
)

// competitorPayload mirrors the JSON shape requested from the AI for
// comparative competitor analysis.
type competitorPayload struct {
	Description      string          `json:"description"`
	Positioning      string          `json:"positioning"`
	PricingModel     string          `json:"pricingModel"`
	PricingStart     float64         `json:"pricingStart"`
	Strengths        []string        `json:"strengths"`
	Weaknesses       []string        `json:"weaknesses"`
	Features         map[string]bool `json:"features"`
	TargetAudience   string          `json:"targetAudience"`
	ValueProposition string          `json:"valueProposition"`
	Insights         struct {
		PricingComparison            string   `json:"pricingComparison"`
		FeatureGapsTheyHave          []string `json:"featureGapsTheyHave"`
		FeatureGapsUserHas           []string `json:"featureGapsUserHas"`
		PositioningDifference        string   `json:"positioningDifference"`
		TargetAudienceOverlap        string   `json:"targetAudienceOverlap"`
		DifferentiationOpportunities []string `json:"differentiationOpportunities"`
		CompetitiveThreatLevel       string   `json:"competitiveThreatLevel"`
		WinRateFactors               []string `json:"winRateFactors"`
	} `json:"comparativeInsights"`
}

// Competitor normalizes a comparative-analysis response into a complete
// Competitor record. Every nested field has an independent default; the
// record is always structurally complete regardless of input.
func Competitor(raw, name, website string, guess archetype.Industry, subject *model.WebsiteContext) model.Competitor {
	var p competitorPayload
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &p); err != nil {
		p.Positioning = scanField(raw, "positioning")
		p.Description = scanField(raw, "description")
		p.Strengths = scanList(raw, 3)
	}

	t := archetype.Template(guess)

	comp := model.Competitor{
		Name:             name,
		Website:          website,
		Description:      firstNonEmpty(p.Description, name+" is a "+t.BusinessModel+" company in the "+guess.Label()+" space"),
		Positioning:      firstNonEmpty(p.Positioning, t.MarketFocus),
		PricingModel:     firstNonEmpty(p.PricingModel, t.PricingModel),
		PricingStart:     p.PricingStart,
		Strengths:        orList(p.Strengths, t.Strengths),
		Weaknesses:       orList(p.Weaknesses, t.Weaknesses),
		Features:         normalizeFeatures(p.Features, guess),
		TargetAudience:   firstNonEmpty(p.TargetAudience, t.PrimaryAudience),
		ValueProposition: firstNonEmpty(p.ValueProposition, t.PrimaryProduct+" for "+t.PrimaryAudience),
	}
	if comp.PricingStart <= 0 {
		comp.PricingStart = archetype.FallbackPrice
	}

	subjectPrice := 0.0
	if subject != nil {
		subjectPrice = subject.PricingStrategy.StartingPrice
	}

	comp.Insights = &model.ComparativeInsights{
		PricingComparison:            normalizePricingComparison(p.Insights.PricingComparison, comp.PricingStart, subjectPrice),
		FeatureGapsTheyHave:          orList(p.Insights.FeatureGapsTheyHave, []string{}),
		FeatureGapsUserHas:           orList(p.Insights.FeatureGapsUserHas, []string{}),
		PositioningDifference:        firstNonEmpty(p.Insights.PositioningDifference, name+" targets a broader market segment"),
		TargetAudienceOverlap:        normalizeLevel(p.Insights.TargetAudienceOverlap),
		DifferentiationOpportunities: orList(p.Insights.DifferentiationOpportunities, t.Differentiators),
		CompetitiveThreatLevel:       normalizeLevel(p.Insights.CompetitiveThreatLevel),
		WinRateFactors:               orList(p.Insights.WinRateFactors, []string{"Product focus", "Customer experience"}),
	}

	return comp
}

// FallbackCompetitor synthesizes a competitor record purely from the industry
// archetype tables, used when the AI call itself failed. The pricing
// comparison falls back to comparing the fixed placeholder price against the
// subject's known starting price.
func FallbackCompetitor(name, website string, guess archetype.Industry, subject *model.WebsiteContext) model.Competitor {
	return Competitor("", name, website, guess, subject)
}

// normalizeLevel coerces a string to a valid Level, defaulting to medium.
func normalizeLevel(s string) model.Level {
	l := model.Level(s)
	if !l.Valid() {
		return model.LevelMedium
	}
	return l
}

// normalizePricingComparison validates the AI-provided comparison; when it is
// absent or invalid, the comparison is computed from the two prices with a
// ±20% band counting as similar.
func normalizePricingComparison(s string, competitorPrice, subjectPrice float64) model.PricingComparison {
	switch model.PricingComparison(s) {
	case model.PricingCheaper, model.PricingSimilar, model.PricingMoreExpensive:
		return model.PricingComparison(s)
	}
	if subjectPrice <= 0 {
		return model.PricingSimilar
	}
	ratio := competitorPrice / subjectPrice
	switch {
	case ratio < 0.8:
		return model.PricingCheaper
	case ratio > 1.2:
		return model.PricingMoreExpensive
	default:
		return model.PricingSimilar
	}
}

// normalizeFeatures merges AI-reported feature flags over the archetype
// defaults so that every checklist key is always present.
func normalizeFeatures(reported map[string]bool, guess archetype.Industry) map[string]bool {
	features := archetype.DefaultFeatures(guess)
	for _, key := range archetype.FeatureChecklist {
		if v, ok := reported[key]; ok {
			features[key] = v
		}
	}
	return features
}

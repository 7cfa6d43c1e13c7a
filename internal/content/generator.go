// Package content renders the long-form text artifacts for a completed
// analysis. It is pure templating over already-normalized structured data;
// no AI call happens here.
package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/madalingavanarescu/competeai/internal/archetype"
	"github.com/madalingavanarescu/competeai/internal/model"
)

// Generator renders four artifacts per job. The clock is injectable so the
// batch timestamp is the only source of non-determinism.
type Generator struct {
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces the four artifacts for a job in a single batch sharing
// one timestamp. The competitor list is assumed to be in discovery order and
// the angle list ordered by opportunity level.
func (g *Generator) Generate(job *model.AnalysisJob, wc *model.WebsiteContext, competitors []model.Competitor, angles []model.DifferentiationAngle) []model.AnalysisContent {
	generatedAt := g.now().UTC()

	render := map[model.ContentType]func(*model.AnalysisJob, *model.WebsiteContext, []model.Competitor, []model.DifferentiationAngle) string{
		model.ContentFullAnalysis:     g.fullAnalysis,
		model.ContentExecutiveSummary: g.executiveSummary,
		model.ContentBattleCard:       g.battleCard,
		model.ContentInsights:         g.insights,
	}

	contents := make([]model.AnalysisContent, 0, len(model.AllContentTypes))
	for _, ct := range model.AllContentTypes {
		contents = append(contents, model.AnalysisContent{
			JobID:       job.ID,
			ContentType: ct,
			Content:     render[ct](job, wc, competitors, angles),
			GeneratedAt: generatedAt,
		})
	}
	return contents
}

// pricingAggregates summarizes competitor starting prices. Competitors with
// no known price are excluded from the aggregates.
type pricingAggregates struct {
	Min, Max, Mean float64
	Sampled        int
}

func aggregatePricing(competitors []model.Competitor) pricingAggregates {
	var agg pricingAggregates
	var sum float64
	for _, c := range competitors {
		if c.PricingStart <= 0 {
			continue
		}
		if agg.Sampled == 0 || c.PricingStart < agg.Min {
			agg.Min = c.PricingStart
		}
		if c.PricingStart > agg.Max {
			agg.Max = c.PricingStart
		}
		sum += c.PricingStart
		agg.Sampled++
	}
	if agg.Sampled > 0 {
		agg.Mean = sum / float64(agg.Sampled)
	}
	return agg
}

// featureAdoption computes, per checklist feature, the fraction of
// competitors offering it.
func featureAdoption(competitors []model.Competitor) map[string]float64 {
	rates := make(map[string]float64, len(archetype.FeatureChecklist))
	if len(competitors) == 0 {
		return rates
	}
	for _, feature := range archetype.FeatureChecklist {
		have := 0
		for _, c := range competitors {
			if c.Features[feature] {
				have++
			}
		}
		rates[feature] = float64(have) / float64(len(competitors))
	}
	return rates
}

// partitionAngles splits angles by opportunity level, preserving order.
func partitionAngles(angles []model.DifferentiationAngle) map[model.Level][]model.DifferentiationAngle {
	parts := make(map[model.Level][]model.DifferentiationAngle)
	for _, a := range angles {
		parts[a.OpportunityLevel] = append(parts[a.OpportunityLevel], a)
	}
	return parts
}

// primaryCompetitor picks the battle-card subject: the first high-threat
// competitor, else the first competitor. Returns nil when the list is empty.
func primaryCompetitor(competitors []model.Competitor) *model.Competitor {
	for i := range competitors {
		if competitors[i].Insights != nil && competitors[i].Insights.CompetitiveThreatLevel == model.LevelHigh {
			return &competitors[i]
		}
	}
	if len(competitors) > 0 {
		return &competitors[0]
	}
	return nil
}

func (g *Generator) fullAnalysis(job *model.AnalysisJob, wc *model.WebsiteContext, competitors []model.Competitor, angles []model.DifferentiationAngle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Competitive Analysis: %s\n\n", job.CompanyName)
	fmt.Fprintf(&b, "Website: %s\n\n", job.Website)

	b.WriteString("## Company Profile\n\n")
	if wc != nil {
		fmt.Fprintf(&b, "- Business model: %s\n", wc.BusinessModel)
		fmt.Fprintf(&b, "- Industry: %s\n", wc.Industry)
		fmt.Fprintf(&b, "- Primary audience: %s\n", wc.TargetAudience.Primary)
		fmt.Fprintf(&b, "- Value proposition: %s\n", wc.ValueProposition)
		fmt.Fprintf(&b, "- Pricing: %s from %s\n\n", wc.PricingStrategy.Model, formatPrice(wc.PricingStrategy.StartingPrice, wc.PricingStrategy.Currency))
	} else {
		b.WriteString("Company profile unavailable; the analysis below is based on competitor data only.\n\n")
	}

	fmt.Fprintf(&b, "## Competitive Landscape (%d competitors)\n\n", len(competitors))
	for _, c := range competitors {
		fmt.Fprintf(&b, "### %s\n\n", c.Name)
		fmt.Fprintf(&b, "%s\n\n", c.Description)
		fmt.Fprintf(&b, "- Website: %s\n", c.Website)
		fmt.Fprintf(&b, "- Positioning: %s\n", c.Positioning)
		fmt.Fprintf(&b, "- Pricing: %s from %s\n", c.PricingModel, formatPrice(c.PricingStart, "USD"))
		writeList(&b, "- Strengths", c.Strengths)
		writeList(&b, "- Weaknesses", c.Weaknesses)
		if c.Insights != nil {
			fmt.Fprintf(&b, "- Threat level: %s\n", c.Insights.CompetitiveThreatLevel)
			fmt.Fprintf(&b, "- Pricing vs us: %s\n", strings.ReplaceAll(string(c.Insights.PricingComparison), "_", " "))
			fmt.Fprintf(&b, "- Audience overlap: %s\n", c.Insights.TargetAudienceOverlap)
			fmt.Fprintf(&b, "- Positioning difference: %s\n", c.Insights.PositioningDifference)
			writeList(&b, "- Features they have that we lack", c.Insights.FeatureGapsTheyHave)
			writeList(&b, "- Features we have that they lack", c.Insights.FeatureGapsUserHas)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Differentiation Opportunities\n\n")
	parts := partitionAngles(angles)
	for _, level := range []model.Level{model.LevelHigh, model.LevelMedium, model.LevelLow} {
		levelAngles := parts[level]
		if len(levelAngles) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s opportunity\n\n", titleCase(string(level)))
		for _, a := range levelAngles {
			fmt.Fprintf(&b, "- **%s**: %s\n", a.Title, a.Description)
		}
		b.WriteString("\n")
	}

	writePricingSection(&b, competitors)
	writeAdoptionSection(&b, competitors)

	return b.String()
}

func (g *Generator) executiveSummary(job *model.AnalysisJob, wc *model.WebsiteContext, competitors []model.Competitor, angles []model.DifferentiationAngle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Executive Summary: %s\n\n", job.CompanyName)

	highThreat := 0
	for _, c := range competitors {
		if c.Insights != nil && c.Insights.CompetitiveThreatLevel == model.LevelHigh {
			highThreat++
		}
	}
	fmt.Fprintf(&b, "We analyzed %d competitors for %s; %d present a high competitive threat.\n\n",
		len(competitors), job.CompanyName, highThreat)

	if wc != nil {
		fmt.Fprintf(&b, "%s operates as %s in %s, targeting %s.\n\n",
			job.CompanyName, wc.BusinessModel, wc.Industry, wc.TargetAudience.Primary)
	}

	agg := aggregatePricing(competitors)
	if agg.Sampled > 0 {
		fmt.Fprintf(&b, "Competitor pricing ranges from %s to %s (mean %s) across %d priced competitors.\n\n",
			formatPrice(agg.Min, "USD"), formatPrice(agg.Max, "USD"), formatPrice(agg.Mean, "USD"), agg.Sampled)
	}

	high := partitionAngles(angles)[model.LevelHigh]
	b.WriteString("## Top Opportunities\n\n")
	if len(high) == 0 {
		b.WriteString("No high-priority differentiation opportunities identified; review the full analysis for medium-priority angles.\n")
	}
	for i, a := range high {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** — %s\n", i+1, a.Title, a.Description)
	}

	return b.String()
}

func (g *Generator) battleCard(job *model.AnalysisJob, wc *model.WebsiteContext, competitors []model.Competitor, angles []model.DifferentiationAngle) string {
	primary := primaryCompetitor(competitors)
	if primary == nil {
		return fmt.Sprintf("# Battle Card: %s\n\nNo competitors were identified for this analysis; no battle card is available.\n", job.CompanyName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Battle Card: %s vs %s\n\n", job.CompanyName, primary.Name)

	fmt.Fprintf(&b, "## About %s\n\n%s\n\n", primary.Name, primary.Description)
	fmt.Fprintf(&b, "- Positioning: %s\n", primary.Positioning)
	fmt.Fprintf(&b, "- Pricing: %s from %s\n", primary.PricingModel, formatPrice(primary.PricingStart, "USD"))
	fmt.Fprintf(&b, "- Target audience: %s\n\n", primary.TargetAudience)

	b.WriteString("## Where They Win\n\n")
	for _, s := range primary.Strengths {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	b.WriteString("\n## Where We Win\n\n")
	for _, w := range primary.Weaknesses {
		fmt.Fprintf(&b, "- Their weakness: %s\n", w)
	}
	if primary.Insights != nil {
		for _, f := range primary.Insights.FeatureGapsUserHas {
			fmt.Fprintf(&b, "- We offer %s, they do not\n", f)
		}
		writeList(&b, "\n## Key Win Factors", primary.Insights.WinRateFactors)
	}

	b.WriteString("\n## Talking Points\n\n")
	for i, a := range angles {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Description)
	}

	return b.String()
}

func (g *Generator) insights(job *model.AnalysisJob, wc *model.WebsiteContext, competitors []model.Competitor, angles []model.DifferentiationAngle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Market Insights: %s\n\n", job.CompanyName)

	writePricingSection(&b, competitors)
	writeAdoptionSection(&b, competitors)

	b.WriteString("## Differentiation Angles\n\n")
	if len(angles) == 0 {
		b.WriteString("No differentiation angles were identified.\n")
	}
	for _, a := range angles {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", a.OpportunityLevel, a.Title, a.Description)
	}

	return b.String()
}

func writePricingSection(b *strings.Builder, competitors []model.Competitor) {
	agg := aggregatePricing(competitors)
	b.WriteString("## Pricing Landscape\n\n")
	if agg.Sampled == 0 {
		b.WriteString("No competitor pricing data available.\n\n")
		return
	}
	fmt.Fprintf(b, "- Lowest starting price: %s\n", formatPrice(agg.Min, "USD"))
	fmt.Fprintf(b, "- Highest starting price: %s\n", formatPrice(agg.Max, "USD"))
	fmt.Fprintf(b, "- Average starting price: %s\n", formatPrice(agg.Mean, "USD"))
	fmt.Fprintf(b, "- Competitors with known pricing: %d of %d\n\n", agg.Sampled, len(competitors))
}

func writeAdoptionSection(b *strings.Builder, competitors []model.Competitor) {
	b.WriteString("## Feature Adoption\n\n")
	if len(competitors) == 0 {
		b.WriteString("No competitor feature data available.\n\n")
		return
	}
	rates := featureAdoption(competitors)
	for _, feature := range archetype.FeatureChecklist {
		fmt.Fprintf(b, "- %s: %.0f%% of competitors\n", featureLabel(feature), rates[feature]*100)
	}
	b.WriteString("\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", heading, strings.Join(items, "; "))
}

func formatPrice(price float64, currency string) string {
	if price <= 0 {
		return "unknown"
	}
	symbol := "$"
	if currency != "" && currency != "USD" {
		symbol = currency + " "
	}
	if price == float64(int64(price)) {
		return fmt.Sprintf("%s%d/mo", symbol, int64(price))
	}
	return fmt.Sprintf("%s%.2f/mo", symbol, price)
}

func featureLabel(key string) string {
	return titleCase(strings.ReplaceAll(key, "_", " "))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

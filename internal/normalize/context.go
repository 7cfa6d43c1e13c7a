package normalize

import (
	"encoding/json"

	"github.com/madalingavanarescu/competeai/internal/archetype"
	"github.com/madalingavanarescu/competeai/internal/model"
)

// contextPayload mirrors the JSON shape requested from the AI for website
// context analysis. Every field is optional; defaults are patched in after
// parsing.
type contextPayload struct {
	CompanyName    string `json:"companyName"`
	BusinessModel  string `json:"businessModel"`
	Industry       string `json:"industry"`
	TargetAudience struct {
		Primary     string   `json:"primary"`
		Segments    []string `json:"segments"`
		CompanySize string   `json:"companySize"`
	} `json:"targetAudience"`
	ValueProposition string `json:"valueProposition"`
	CoreOfferings    struct {
		PrimaryProduct    string   `json:"primaryProduct"`
		SecondaryProducts []string `json:"secondaryProducts"`
		KeyFeatures       []string `json:"keyFeatures"`
	} `json:"coreOfferings"`
	PricingStrategy struct {
		Model         string  `json:"model"`
		StartingPrice float64 `json:"startingPrice"`
		Currency      string  `json:"currency"`
		BillingCycle  string  `json:"billingCycle"`
		FreeTier      *bool   `json:"freeTier"`
	} `json:"pricingStrategy"`
	CompetitivePositioning struct {
		MainDifferentiators  []string `json:"mainDifferentiators"`
		PositioningStatement string   `json:"positioningStatement"`
		MarketFocus          string   `json:"marketFocus"`
	} `json:"competitivePositioning"`
}

// Context normalizes raw AI output into a fully-populated WebsiteContext.
// Missing or invalid fields are patched from the industry archetype template.
func Context(raw, companyName, website string, guess archetype.Industry) model.WebsiteContext {
	var p contextPayload
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &p); err != nil {
		// Best-effort text scan before giving up on the response entirely.
		p.BusinessModel = scanField(raw, "businessModel", "business model")
		p.Industry = scanField(raw, "industry")
		p.ValueProposition = scanField(raw, "valueProposition", "value proposition")
		p.TargetAudience.Primary = scanField(raw, "targetAudience", "target audience")
		p.CoreOfferings.KeyFeatures = scanList(raw, 6)
	}

	t := archetype.Template(guess)

	ctx := model.WebsiteContext{
		CompanyName:      firstNonEmpty(p.CompanyName, companyName),
		BusinessModel:    firstNonEmpty(p.BusinessModel, t.BusinessModel),
		Industry:         firstNonEmpty(p.Industry, guess.Label()),
		ValueProposition: firstNonEmpty(p.ValueProposition, t.PrimaryProduct+" for "+t.PrimaryAudience),
		Source:           model.ContextSourceAI,
	}

	ctx.TargetAudience = model.TargetAudience{
		Primary:     firstNonEmpty(p.TargetAudience.Primary, t.PrimaryAudience),
		Segments:    orList(p.TargetAudience.Segments, t.Segments),
		CompanySize: firstNonEmpty(p.TargetAudience.CompanySize, t.CompanySize),
	}

	ctx.CoreOfferings = model.CoreOfferings{
		PrimaryProduct:    firstNonEmpty(p.CoreOfferings.PrimaryProduct, t.PrimaryProduct),
		SecondaryProducts: orList(p.CoreOfferings.SecondaryProducts, []string{}),
		KeyFeatures:       orList(p.CoreOfferings.KeyFeatures, t.KeyFeatures),
	}

	ctx.PricingStrategy = model.PricingStrategy{
		Model:         firstNonEmpty(p.PricingStrategy.Model, t.PricingModel),
		StartingPrice: p.PricingStrategy.StartingPrice,
		Currency:      firstNonEmpty(p.PricingStrategy.Currency, "USD"),
		BillingCycle:  firstNonEmpty(p.PricingStrategy.BillingCycle, t.BillingCycle),
		FreeTier:      t.FreeTier,
	}
	if ctx.PricingStrategy.StartingPrice <= 0 {
		ctx.PricingStrategy.StartingPrice = t.StartingPrice
	}
	if p.PricingStrategy.FreeTier != nil {
		ctx.PricingStrategy.FreeTier = *p.PricingStrategy.FreeTier
	}

	ctx.CompetitivePositioning = model.CompetitivePositioning{
		MainDifferentiators:  orList(p.CompetitivePositioning.MainDifferentiators, t.Differentiators),
		PositioningStatement: firstNonEmpty(p.CompetitivePositioning.PositioningStatement, ctx.CompanyName+" delivers "+ctx.ValueProposition),
		MarketFocus:          firstNonEmpty(p.CompetitivePositioning.MarketFocus, t.MarketFocus),
	}

	return ctx
}

// FallbackContext synthesizes a WebsiteContext purely from the industry
// archetype tables, used when the AI call itself failed.
func FallbackContext(companyName, website string, guess archetype.Industry) model.WebsiteContext {
	ctx := Context("", companyName, website, guess)
	ctx.Source = model.ContextSourceFallback
	return ctx
}

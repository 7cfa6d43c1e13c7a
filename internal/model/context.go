package model

// ContextSource records which path produced a WebsiteContext. Observability
// only; it does not change pipeline control flow.
type ContextSource string

const (
	ContextSourceAI       ContextSource = "ai_analysis"
	ContextSourceFallback ContextSource = "fallback"
)

// WebsiteContext is the structured profile of the subject company. Every
// field carries a non-null default when the source analysis could not
// determine it; no field is ever truly absent.
type WebsiteContext struct {
	CompanyName            string                 `json:"company_name"`
	BusinessModel          string                 `json:"business_model"`
	Industry               string                 `json:"industry"`
	TargetAudience         TargetAudience         `json:"target_audience"`
	ValueProposition       string                 `json:"value_proposition"`
	CoreOfferings          CoreOfferings          `json:"core_offerings"`
	PricingStrategy        PricingStrategy        `json:"pricing_strategy"`
	CompetitivePositioning CompetitivePositioning `json:"competitive_positioning"`
	Source                 ContextSource          `json:"source"`
}

// TargetAudience describes who the subject sells to.
type TargetAudience struct {
	Primary     string   `json:"primary"`
	Segments    []string `json:"segments"`
	CompanySize string   `json:"company_size"`
}

// CoreOfferings describes the subject's product surface.
type CoreOfferings struct {
	PrimaryProduct    string   `json:"primary_product"`
	SecondaryProducts []string `json:"secondary_products"`
	KeyFeatures       []string `json:"key_features"`
}

// PricingStrategy describes the subject's pricing archetype.
type PricingStrategy struct {
	Model         string  `json:"model"`
	StartingPrice float64 `json:"starting_price"`
	Currency      string  `json:"currency"`
	BillingCycle  string  `json:"billing_cycle"`
	FreeTier      bool    `json:"free_tier"`
}

// CompetitivePositioning describes how the subject positions itself.
type CompetitivePositioning struct {
	MainDifferentiators  []string `json:"main_differentiators"`
	PositioningStatement string   `json:"positioning_statement"`
	MarketFocus          string   `json:"market_focus"`
}

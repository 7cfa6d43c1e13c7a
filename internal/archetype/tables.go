package archetype

import "github.com/madalingavanarescu/competeai/internal/model"

// FallbackPrice is the placeholder monthly price used when synthesizing a
// pricing comparison without any real competitor pricing signal.
const FallbackPrice = 29

// ContextTemplate holds the per-industry defaults used to synthesize a
// WebsiteContext when the AI call fails, and to patch individual fields the
// normalizer found missing.
type ContextTemplate struct {
	BusinessModel   string
	PrimaryAudience string
	Segments        []string
	CompanySize     string
	PrimaryProduct  string
	KeyFeatures     []string
	PricingModel    string
	StartingPrice   float64
	BillingCycle    string
	FreeTier        bool
	MarketFocus     string
	Differentiators []string
	Strengths       []string
	Weaknesses      []string
}

var contextTemplates = map[Industry]ContextTemplate{
	Technology: {
		BusinessModel:   "B2B SaaS",
		PrimaryAudience: "Software and product teams",
		Segments:        []string{"Startups", "Mid-market", "Enterprise"},
		CompanySize:     "SMB to Enterprise",
		PrimaryProduct:  "Software platform",
		KeyFeatures:     []string{"API access", "Integrations", "Analytics dashboard", "Team collaboration"},
		PricingModel:    "subscription",
		StartingPrice:   49,
		BillingCycle:    "monthly",
		FreeTier:        true,
		MarketFocus:     "Technology-driven businesses",
		Differentiators: []string{"Modern developer experience", "Fast implementation"},
		Strengths:       []string{"Established product", "Broad integration ecosystem"},
		Weaknesses:      []string{"Generic positioning", "Limited vertical depth"},
	},
	Ecommerce: {
		BusinessModel:   "E-commerce platform",
		PrimaryAudience: "Online merchants",
		Segments:        []string{"D2C brands", "Marketplaces", "Retailers"},
		CompanySize:     "SMB",
		PrimaryProduct:  "Online storefront",
		KeyFeatures:     []string{"Checkout", "Inventory management", "Payment processing", "Storefront themes"},
		PricingModel:    "subscription",
		StartingPrice:   29,
		BillingCycle:    "monthly",
		FreeTier:        false,
		MarketFocus:     "Online retail",
		Differentiators: []string{"Conversion-optimized checkout", "Merchant tooling"},
		Strengths:       []string{"Large merchant base", "Mature checkout flow"},
		Weaknesses:      []string{"Transaction fees", "Limited customization"},
	},
	Marketing: {
		BusinessModel:   "Marketing SaaS",
		PrimaryAudience: "Marketing teams",
		Segments:        []string{"Agencies", "In-house teams", "Freelancers"},
		CompanySize:     "SMB to Mid-market",
		PrimaryProduct:  "Marketing platform",
		KeyFeatures:     []string{"Campaign management", "Audience segmentation", "Reporting", "Automation"},
		PricingModel:    "subscription",
		StartingPrice:   39,
		BillingCycle:    "monthly",
		FreeTier:        true,
		MarketFocus:     "Digital marketing",
		Differentiators: []string{"Ease of use", "Unified reporting"},
		Strengths:       []string{"Strong brand recognition", "Wide channel coverage"},
		Weaknesses:      []string{"Pricing scales steeply", "Shallow analytics"},
	},
	Finance: {
		BusinessModel:   "Fintech SaaS",
		PrimaryAudience: "Finance teams",
		Segments:        []string{"Startups", "SMBs", "Accountants"},
		CompanySize:     "SMB to Mid-market",
		PrimaryProduct:  "Financial management platform",
		KeyFeatures:     []string{"Invoicing", "Expense tracking", "Reporting", "Bank integrations"},
		PricingModel:    "subscription",
		StartingPrice:   25,
		BillingCycle:    "monthly",
		FreeTier:        false,
		MarketFocus:     "Financial operations",
		Differentiators: []string{"Compliance built in", "Bank-grade security"},
		Strengths:       []string{"Trusted brand", "Regulatory compliance"},
		Weaknesses:      []string{"Dated interface", "Slow feature velocity"},
	},
	Default: {
		BusinessModel:   "SaaS",
		PrimaryAudience: "Business teams",
		Segments:        []string{"SMBs", "Mid-market"},
		CompanySize:     "SMB",
		PrimaryProduct:  "Business software",
		KeyFeatures:     []string{"Core workflow", "Reporting", "Integrations", "Support"},
		PricingModel:    "subscription",
		StartingPrice:   29,
		BillingCycle:    "monthly",
		FreeTier:        false,
		MarketFocus:     "General business",
		Differentiators: []string{"Customer focus", "Simple onboarding"},
		Strengths:       []string{"Solid core product", "Responsive support"},
		Weaknesses:      []string{"Narrow feature set", "Small ecosystem"},
	},
}

// Template returns the context template for an industry.
func Template(i Industry) ContextTemplate {
	if t, ok := contextTemplates[i]; ok {
		return t
	}
	return contextTemplates[Default]
}

// FeatureChecklist is the fixed feature list used for competitor feature maps
// and for feature-adoption aggregates in generated content.
var FeatureChecklist = []string{
	"free_trial",
	"api_access",
	"integrations",
	"analytics",
	"mobile_app",
	"sso",
	"custom_branding",
	"priority_support",
}

// fallbackCompetitor is one row of the static discovery fallback table.
type fallbackCompetitor struct {
	Name        string
	Website     string
	Description string
}

// fallbackCompetitors is the static lookup used when discovery cannot reach
// the AI endpoint. Keyed by industry; the business model is folded into the
// candidate descriptions rather than the key.
var fallbackCompetitors = map[Industry][]fallbackCompetitor{
	Technology: {
		{"Monday.com", "https://monday.com", "Work management platform for teams of all sizes"},
		{"Asana", "https://asana.com", "Project and work management SaaS for collaborative teams"},
		{"Notion", "https://notion.so", "All-in-one workspace for notes, docs, and project tracking"},
	},
	Ecommerce: {
		{"Shopify", "https://shopify.com", "Hosted e-commerce platform for online merchants"},
		{"BigCommerce", "https://bigcommerce.com", "E-commerce platform for growing and mid-market retailers"},
		{"WooCommerce", "https://woocommerce.com", "Open-source e-commerce plugin for WordPress stores"},
	},
	Marketing: {
		{"HubSpot", "https://hubspot.com", "Inbound marketing, sales, and CRM software suite"},
		{"Mailchimp", "https://mailchimp.com", "Email marketing and automation platform for small businesses"},
		{"Semrush", "https://semrush.com", "Online visibility and marketing analytics software"},
	},
	Finance: {
		{"QuickBooks", "https://quickbooks.intuit.com", "Accounting software for small and mid-size businesses"},
		{"Xero", "https://xero.com", "Cloud accounting platform for small businesses and accountants"},
		{"FreshBooks", "https://freshbooks.com", "Invoicing and accounting software for service businesses"},
	},
	Default: {
		{"Salesforce", "https://salesforce.com", "Cloud CRM and business application platform"},
		{"Zoho", "https://zoho.com", "Suite of business software for SMBs"},
		{"Microsoft 365", "https://microsoft.com", "Productivity and business software suite"},
	},
}

// FallbackCandidates returns the static discovery list for an industry as
// candidates pre-marked with a similar business-model match. The returned
// slice is a copy; callers may mutate it.
func FallbackCandidates(i Industry) []model.CandidateCompetitor {
	rows, ok := fallbackCompetitors[i]
	if !ok {
		rows = fallbackCompetitors[Default]
	}
	out := make([]model.CandidateCompetitor, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.CandidateCompetitor{
			Name:               r.Name,
			Website:            r.Website,
			Description:        r.Description,
			RelevanceScore:     7,
			BusinessModelMatch: model.MatchSimilar,
		})
	}
	return out
}

// DefaultFeatures returns a feature map covering the fixed checklist with
// conservative defaults for an industry archetype.
func DefaultFeatures(i Industry) map[string]bool {
	t := Template(i)
	features := make(map[string]bool, len(FeatureChecklist))
	for _, f := range FeatureChecklist {
		features[f] = false
	}
	features["integrations"] = true
	features["analytics"] = true
	features["free_trial"] = t.FreeTier
	features["api_access"] = i == Technology
	return features
}

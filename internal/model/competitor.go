package model

import "time"

// Level is a coarse categorical rating used for threat, audience overlap,
// and differentiation opportunity. No numeric interpolation is defined.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Valid reports whether l is one of the three defined levels.
func (l Level) Valid() bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}

// PricingComparison classifies a competitor's pricing relative to the subject.
type PricingComparison string

const (
	PricingCheaper       PricingComparison = "cheaper"
	PricingSimilar       PricingComparison = "similar"
	PricingMoreExpensive PricingComparison = "more_expensive"
)

// BusinessModelMatch classifies how closely a discovery candidate's business
// model matches the subject's.
const (
	MatchExact   = "exact"
	MatchSimilar = "similar"
)

// CandidateCompetitor is one discovery result before comparative analysis.
type CandidateCompetitor struct {
	Name               string `json:"name"`
	Website            string `json:"website"`
	Description        string `json:"description"`
	RelevanceScore     int    `json:"relevance_score"`
	BusinessModelMatch string `json:"business_model_match"`
}

// Competitor is one discovered rival enriched with comparative data relative
// to the subject. Insights is nil when the comparative analysis phase did not
// succeed for this competitor.
type Competitor struct {
	ID               string               `json:"id"`
	JobID            string               `json:"job_id"`
	Position         int                  `json:"position"`
	Name             string               `json:"name"`
	Website          string               `json:"website"`
	Description      string               `json:"description"`
	Positioning      string               `json:"positioning"`
	PricingModel     string               `json:"pricing_model"`
	PricingStart     float64              `json:"pricing_start"`
	Strengths        []string             `json:"strengths"`
	Weaknesses       []string             `json:"weaknesses"`
	Features         map[string]bool      `json:"features"`
	TargetAudience   string               `json:"target_audience"`
	ValueProposition string               `json:"value_proposition"`
	Insights         *ComparativeInsights `json:"comparative_insights,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// ComparativeInsights holds the six comparison dimensions produced by the
// comparative analysis phase.
type ComparativeInsights struct {
	PricingComparison            PricingComparison `json:"pricing_comparison"`
	FeatureGapsTheyHave          []string          `json:"feature_gaps_they_have"`
	FeatureGapsUserHas           []string          `json:"feature_gaps_user_has"`
	PositioningDifference        string            `json:"positioning_difference"`
	TargetAudienceOverlap        Level             `json:"target_audience_overlap"`
	DifferentiationOpportunities []string          `json:"differentiation_opportunities"`
	CompetitiveThreatLevel       Level             `json:"competitive_threat_level"`
	WinRateFactors               []string          `json:"win_rate_factors"`
}

// DifferentiationAngle is one strategic opportunity extracted from a
// competitor's differentiation opportunities during insertion fan-out.
type DifferentiationAngle struct {
	ID               string    `json:"id"`
	JobID            string    `json:"job_id"`
	CompetitorID     string    `json:"competitor_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	OpportunityLevel Level     `json:"opportunity_level"`
	CreatedAt        time.Time `json:"created_at"`
}

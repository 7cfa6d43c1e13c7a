package model

import "time"

// ContentType identifies one of the four generated text artifacts.
type ContentType string

const (
	ContentFullAnalysis     ContentType = "full_analysis"
	ContentExecutiveSummary ContentType = "executive_summary"
	ContentBattleCard       ContentType = "battle_card"
	ContentInsights         ContentType = "insights"
)

// AllContentTypes lists every artifact type in generation order.
var AllContentTypes = []ContentType{
	ContentFullAnalysis,
	ContentExecutiveSummary,
	ContentBattleCard,
	ContentInsights,
}

// AnalysisContent is one generated long-form text artifact.
type AnalysisContent struct {
	ID          string      `json:"id"`
	JobID       string      `json:"job_id"`
	ContentType ContentType `json:"content_type"`
	Content     string      `json:"content"`
	GeneratedAt time.Time   `json:"generated_at"`
}

package model

import "time"

// JobStatus represents the current state of an analysis job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusAnalyzing JobStatus = "analyzing"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final. Terminal statuses are never
// overwritten; a new job must be created to re-run an analysis.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is a legal transition.
// The only legal sequences are pending → analyzing → completed and
// pending → analyzing → failed.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusAnalyzing
	case JobStatusAnalyzing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// AnalysisJob is one user-initiated competitive analysis run.
type AnalysisJob struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Website     string    `json:"website"`
	CompanyName string    `json:"company_name"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

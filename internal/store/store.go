// Package store persists analysis jobs and their child records. Two
// implementations share one interface: PostgresStore for production and
// SQLiteStore for local runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/madalingavanarescu/competeai/internal/model"
)

// ErrTerminalStatus is returned when a status update targets a job already
// in a terminal state. Terminal statuses are never overwritten.
var ErrTerminalStatus = eris.New("store: job is in a terminal status")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	OwnerID string
	Status  model.JobStatus
	Limit   int
	Offset  int
}

// JobCounts aggregates the child-record counts for one job, used for the
// final completeness gate and the confidence label.
type JobCounts struct {
	Competitors  int `json:"competitors"`
	WithInsights int `json:"with_insights"`
	Angles       int `json:"angles"`
	Contents     int `json:"contents"`
}

// Store defines the persistence interface for the analysis pipeline.
type Store interface {
	// Jobs. UpdateJobStatus refuses to overwrite a terminal status.
	CreateJob(ctx context.Context, ownerID, website, companyName string) (*model.AnalysisJob, error)
	GetJob(ctx context.Context, jobID string) (*model.AnalysisJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.AnalysisJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error
	CountJobsByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error)

	// Website context: at most one per job, immutable after creation.
	SaveWebsiteContext(ctx context.Context, jobID string, wc *model.WebsiteContext) error
	GetWebsiteContext(ctx context.Context, jobID string) (*model.WebsiteContext, error)

	// Competitors, inserted one at a time in discovery order.
	InsertCompetitor(ctx context.Context, comp *model.Competitor) error
	ListCompetitors(ctx context.Context, jobID string) ([]model.Competitor, error)

	// Differentiation angles, inserted as one batch per competitor.
	InsertAngles(ctx context.Context, angles []model.DifferentiationAngle) error
	ListAngles(ctx context.Context, jobID string) ([]model.DifferentiationAngle, error)

	// Content artifacts, persisted atomically: all four or none.
	InsertContentBatch(ctx context.Context, contents []model.AnalysisContent) error
	ListContent(ctx context.Context, jobID string, contentType model.ContentType) ([]model.AnalysisContent, error)

	// Aggregates for gates and confidence.
	GetJobCounts(ctx context.Context, jobID string) (*JobCounts, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}

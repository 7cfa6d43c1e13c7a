package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/store"
)

// PollResult is the terminal observation of a job: the final job record
// plus, for completed jobs, the aggregate counts and the derived confidence
// label.
type PollResult struct {
	Job        *model.AnalysisJob
	Counts     *store.JobCounts
	Confidence model.Confidence
}

// Poller repeatedly reads job status until a terminal state is observed.
// It is strictly read-only.
type Poller struct {
	store          store.Store
	analyzingEvery time.Duration
	otherwiseEvery time.Duration
	onUpdate       func(*model.AnalysisJob)
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithIntervals overrides the poll cadence. The analyzing interval applies
// while the job is mid-pipeline; the other interval applies before it has
// been picked up.
func WithIntervals(analyzing, otherwise time.Duration) PollerOption {
	return func(p *Poller) {
		p.analyzingEvery = analyzing
		p.otherwiseEvery = otherwise
	}
}

// WithOnUpdate registers a callback invoked after every poll with the
// current job record. Used by the CLI to render progress.
func WithOnUpdate(fn func(*model.AnalysisJob)) PollerOption {
	return func(p *Poller) { p.onUpdate = fn }
}

func NewPoller(st store.Store, opts ...PollerOption) *Poller {
	p := &Poller{
		store:          st,
		analyzingEvery: 3 * time.Second,
		otherwiseEvery: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait polls until the job reaches a terminal state or ctx is cancelled.
// On completion it fetches the final counts and computes the confidence
// label; on failure the counts are nil and confidence is empty.
func (p *Poller) Wait(ctx context.Context, jobID string) (*PollResult, error) {
	for {
		job, err := p.store.GetJob(ctx, jobID)
		if err != nil {
			return nil, eris.Wrapf(err, "poller: job %s", jobID)
		}
		if p.onUpdate != nil {
			p.onUpdate(job)
		}

		if job.Status.Terminal() {
			result := &PollResult{Job: job}
			if job.Status == model.JobStatusCompleted {
				counts, err := p.store.GetJobCounts(ctx, jobID)
				if err != nil {
					return nil, eris.Wrapf(err, "poller: counts for job %s", jobID)
				}
				result.Counts = counts
				result.Confidence = model.ComputeConfidence(counts.Competitors, counts.WithInsights, counts.Angles)
			}
			return result, nil
		}

		interval := p.otherwiseEvery
		if job.Status == model.JobStatusAnalyzing {
			interval = p.analyzingEvery
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, eris.Wrap(ctx.Err(), "poller: cancelled")
		case <-timer.C:
		}
	}
}

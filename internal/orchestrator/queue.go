package orchestrator

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/store"
)

// ErrQueueFull is returned by Submit when the job buffer is at capacity.
var ErrQueueFull = eris.New("orchestrator: job queue is full")

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = eris.New("orchestrator: job queue is closed")

// Queue decouples job creation from job execution: the creating request
// returns immediately and a worker pool drains submitted job IDs through the
// orchestrator. Worker failures are written to the job's error field rather
// than dropped.
type Queue struct {
	orch    *Orchestrator
	jobs    chan string
	workers int
	done    chan struct{}
}

// NewQueue creates a queue draining into orch with the given worker count
// and buffer size. Non-positive values fall back to 1 worker and a buffer of
// 32 jobs.
func NewQueue(orch *Orchestrator, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 32
	}
	return &Queue{
		orch:    orch,
		jobs:    make(chan string, buffer),
		workers: workers,
		done:    make(chan struct{}),
	}
}

// Submit enqueues a job for execution without blocking. The caller's
// synchronous path never waits on pipeline latency.
func (q *Queue) Submit(jobID string) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- jobID:
		zap.L().Debug("job enqueued", zap.String("job_id", jobID))
		return nil
	default:
		return ErrQueueFull
	}
}

// Start runs the worker pool until ctx is cancelled. It returns after all
// workers have drained their in-flight job.
func (q *Queue) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		worker := i
		g.Go(func() error {
			log := zap.L().With(zap.Int("worker", worker))
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case jobID := <-q.jobs:
					q.runOne(ctx, log, jobID)
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops accepting new submissions. In-flight jobs finish under Start's
// context.
func (q *Queue) Close() {
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}

// runOne executes one job. Run records quality failures on the job itself;
// infrastructure errors that escape it are persisted here as a last resort
// so a stuck "analyzing" job always carries a reason.
func (q *Queue) runOne(ctx context.Context, log *zap.Logger, jobID string) {
	if err := q.orch.Run(ctx, jobID); err != nil {
		log.Error("job run failed", zap.String("job_id", jobID), zap.Error(err))

		updateErr := q.orch.store.UpdateJobStatus(ctx, jobID, model.JobStatusFailed, eris.ToString(err, false))
		if updateErr != nil && !errors.Is(updateErr, store.ErrTerminalStatus) {
			log.Error("failed to record job failure",
				zap.String("job_id", jobID),
				zap.Error(updateErr),
			)
		}
	}
}

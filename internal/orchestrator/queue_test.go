package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madalingavanarescu/competeai/internal/model"
)

func TestQueue_SubmitRejectsWhenFull(t *testing.T) {
	q := NewQueue(newTestOrchestrator(newMemStore(), &stubAnalyzer{}), 1, 1)

	require.NoError(t, q.Submit("job-1"))
	assert.ErrorIs(t, q.Submit("job-2"), ErrQueueFull)
}

func TestQueue_SubmitRejectsAfterClose(t *testing.T) {
	q := NewQueue(newTestOrchestrator(newMemStore(), &stubAnalyzer{}), 1, 4)

	q.Close()
	assert.ErrorIs(t, q.Submit("job-1"), ErrQueueClosed)
	q.Close() // idempotent
}

func TestQueue_WorkerRunsSubmittedJob(t *testing.T) {
	st := newMemStore()
	orch := newTestOrchestrator(st, &stubAnalyzer{candidates: candidateSet(2)})
	q := NewQueue(orch, 2, 8)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan error, 1)
	go func() { started <- q.Start(ctx) }()

	require.NoError(t, q.Submit(job.ID))

	require.Eventually(t, func() bool {
		got, err := st.GetJob(context.Background(), job.ID)
		return err == nil && got.Status == model.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-started, "cancellation is a clean shutdown")
}

func TestQueue_WorkerRecordsInfrastructureFailure(t *testing.T) {
	st := newMemStore()
	orch := newTestOrchestrator(st, &stubAnalyzer{})
	q := NewQueue(orch, 1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Start(ctx) }()

	// A job that was already failed: Run refuses it and the queue must not
	// overwrite the terminal record.
	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)
	require.NoError(t, st.UpdateJobStatus(context.Background(), job.ID, model.JobStatusAnalyzing, ""))
	require.NoError(t, st.UpdateJobStatus(context.Background(), job.ID, model.JobStatusFailed, "original failure"))

	require.NoError(t, q.Submit(job.ID))

	assert.Never(t, func() bool {
		got, err := st.GetJob(context.Background(), job.ID)
		return err != nil || got.Error != "original failure"
	}, 200*time.Millisecond, 20*time.Millisecond)
}

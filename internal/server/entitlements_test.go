package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madalingavanarescu/competeai/internal/store"
)

func newLimiterStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestUsageLimiter(t *testing.T) {
	st := newLimiterStore(t)
	ctx := context.Background()
	limiter := NewUsageLimiter(st, 2)

	require.NoError(t, limiter.CanStartAnalysis(ctx, "owner-1"))

	_, err := st.CreateJob(ctx, "owner-1", "https://a.io", "A")
	require.NoError(t, err)
	require.NoError(t, limiter.CanStartAnalysis(ctx, "owner-1"))

	_, err = st.CreateJob(ctx, "owner-1", "https://b.io", "B")
	require.NoError(t, err)
	assert.ErrorIs(t, limiter.CanStartAnalysis(ctx, "owner-1"), ErrLimitExceeded)

	// Per owner, not global.
	assert.NoError(t, limiter.CanStartAnalysis(ctx, "owner-2"))
}

func TestUsageLimiter_CountsCurrentMonthOnly(t *testing.T) {
	st := newLimiterStore(t)
	ctx := context.Background()

	_, err := st.CreateJob(ctx, "owner-1", "https://a.io", "A")
	require.NoError(t, err)

	// Pretend the clock is two months ahead: last month's usage does not
	// count against this month's cap.
	limiter := NewUsageLimiter(st, 1)
	limiter.now = func() time.Time { return time.Now().AddDate(0, 2, 0) }

	assert.NoError(t, limiter.CanStartAnalysis(ctx, "owner-1"))
}

func TestUsageLimiter_Disabled(t *testing.T) {
	st := newLimiterStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateJob(ctx, "owner-1", "https://a.io", "A")
		require.NoError(t, err)
	}

	assert.NoError(t, NewUsageLimiter(st, 0).CanStartAnalysis(ctx, "owner-1"))
}

func TestUnlimited(t *testing.T) {
	assert.NoError(t, Unlimited{}.CanStartAnalysis(context.Background(), "anyone"))
}

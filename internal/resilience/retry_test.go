package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearBackoff(t *testing.T) {
	phase1 := LinearBackoff(2 * time.Second)
	phase2 := LinearBackoff(3 * time.Second)

	// The Nth retry sleeps N × base, strictly increasing in N.
	assert.Equal(t, 2*time.Second, phase1(1))
	assert.Equal(t, 4*time.Second, phase1(2))
	assert.Equal(t, 3*time.Second, phase2(1))
	assert.Equal(t, 6*time.Second, phase2(2))
	for n := 1; n < 5; n++ {
		assert.Less(t, phase1(n), phase1(n+1))
		assert.Less(t, phase2(n), phase2(n+1))
	}
}

func TestFixedBackoff(t *testing.T) {
	b := FixedBackoff(2 * time.Second)
	assert.Equal(t, 2*time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(7))
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(time.Second, 8*time.Second, 2, 0)
	assert.Equal(t, time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
	assert.Equal(t, 4*time.Second, b(3))
	// Capped at max.
	assert.Equal(t, 8*time.Second, b(5))
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{MaxAttempts: 3}, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{
		MaxAttempts: 3,
		Backoff:     FixedBackoff(time.Millisecond),
	}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewRetryableError(eris.New("not enough results"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{
		MaxAttempts: 3,
		Backoff:     FixedBackoff(time.Millisecond),
	}, func(ctx context.Context) error {
		calls++
		return eris.New("permanent failure")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	retries := []int{}
	err := Do(context.Background(), RetryConfig{
		MaxAttempts: 3,
		Backoff:     FixedBackoff(time.Millisecond),
		ShouldRetry: func(error) bool { return true },
		OnRetry:     func(retry int, err error) { retries = append(retries, retry) },
	}, func(ctx context.Context) error {
		calls++
		return eris.New("always failing")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, RetryConfig{
		MaxAttempts: 5,
		Backoff:     FixedBackoff(10 * time.Second),
		ShouldRetry: func(error) bool { return true },
	}, func(ctx context.Context) error {
		calls++
		cancel()
		return eris.New("failing")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ReturnsValue(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), RetryConfig{
		MaxAttempts: 2,
		Backoff:     FixedBackoff(time.Millisecond),
		ShouldRetry: func(error) bool { return true },
	}, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, eris.New("first attempt fails")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError(eris.New("upstream 503"), 503)))
	assert.True(t, IsTransient(NewRetryableError(eris.New("quality shortfall"))))
	assert.True(t, IsTransient(eris.New("context deadline exceeded")))
	assert.False(t, IsTransient(eris.New("invalid credentials")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// BackoffFunc returns the sleep duration before the given retry. retry starts
// at 1 for the first retry.
type BackoffFunc func(retry int) time.Duration

// LinearBackoff grows the delay linearly: retry N sleeps N × base.
func LinearBackoff(base time.Duration) BackoffFunc {
	return func(retry int) time.Duration {
		return time.Duration(retry) * base
	}
}

// FixedBackoff sleeps the same duration before every retry.
func FixedBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return d
	}
}

// ExponentialBackoff scales the delay by multiplier each retry, capped at
// max, with ±jitterFraction random jitter.
func ExponentialBackoff(initial, max time.Duration, multiplier, jitterFraction float64) BackoffFunc {
	return func(retry int) time.Duration {
		delay := float64(initial) * math.Pow(multiplier, float64(retry-1))
		if delay > float64(max) {
			delay = float64(max)
		}
		if jitterFraction > 0 {
			jitterRange := delay * jitterFraction
			delay += (rand.Float64()*2 - 1) * jitterRange
		}
		if delay < 0 {
			delay = 0
		}
		return time.Duration(delay)
	}
}

// RetryConfig controls bounded retry behavior. All phases of the analysis
// pipeline share this one utility instead of per-phase counter loops.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first try.
	// A value of 1 means no retries. Default: 2.
	MaxAttempts int

	// Backoff computes the sleep before each retry. Default: fixed 2s.
	Backoff BackoffFunc

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with the retry number and
	// the error that triggered it.
	OnRetry func(retry int, err error)
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.Backoff == nil {
		cfg.Backoff = FixedBackoff(2 * time.Second)
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = IsTransient
	}
	return cfg
}

// Do executes fn with bounded retries. Context cancellation stops retries
// immediately and returns the last error.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal executes fn returning a value with bounded retries. The value from
// the first successful attempt is returned.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !cfg.ShouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt >= cfg.MaxAttempts {
			break
		}

		retry := attempt
		if cfg.OnRetry != nil {
			cfg.OnRetry(retry, lastErr)
		}

		timer := time.NewTimer(cfg.Backoff(retry))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(retry int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("retry", retry),
			zap.Error(err),
		)
	}
}

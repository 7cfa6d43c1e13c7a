package server

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/madalingavanarescu/competeai/internal/store"
)

// ErrLimitExceeded is returned when an owner has used up their analysis
// quota for the current period.
var ErrLimitExceeded = eris.New("server: analysis limit exceeded")

// Entitlements answers "may this owner start an analysis?". Billing and
// subscription tiers live outside this service; the store-backed
// implementation below enforces a flat monthly cap.
type Entitlements interface {
	CanStartAnalysis(ctx context.Context, ownerID string) error
}

// UsageLimiter enforces a per-owner monthly job cap by counting jobs created
// since the start of the current calendar month (UTC).
type UsageLimiter struct {
	store   store.Store
	monthly int
	now     func() time.Time
}

// NewUsageLimiter creates a limiter allowing monthly jobs per owner per
// calendar month. A non-positive cap disables the limit.
func NewUsageLimiter(st store.Store, monthly int) *UsageLimiter {
	return &UsageLimiter{store: st, monthly: monthly, now: time.Now}
}

func (l *UsageLimiter) CanStartAnalysis(ctx context.Context, ownerID string) error {
	if l.monthly <= 0 {
		return nil
	}

	now := l.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	used, err := l.store.CountJobsByOwnerSince(ctx, ownerID, monthStart)
	if err != nil {
		return eris.Wrap(err, "server: count owner usage")
	}
	if used >= l.monthly {
		return eris.Wrapf(ErrLimitExceeded, "%d of %d analyses used", used, l.monthly)
	}
	return nil
}

// Unlimited is an Entitlements implementation that always allows. Used by
// the CLI, which runs on the operator's own infrastructure.
type Unlimited struct{}

func (Unlimited) CanStartAnalysis(context.Context, string) error { return nil }

package services

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// InsertThrottle spaces inserts into stores that do not acknowledge writes
// synchronously. The first Wait returns immediately; each later Wait blocks
// until at least one interval has passed since the previous one.
type InsertThrottle struct {
	limiter *rate.Limiter
}

// NewInsertThrottle creates a throttle. A non-positive interval disables it.
func NewInsertThrottle(interval time.Duration) *InsertThrottle {
	if interval <= 0 {
		return &InsertThrottle{}
	}
	return &InsertThrottle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next insert may proceed or ctx is done.
func (t *InsertThrottle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Enabled reports whether Wait can block.
func (t *InsertThrottle) Enabled() bool {
	return t != nil && t.limiter != nil
}

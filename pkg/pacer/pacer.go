// Package pacer spaces out side effects that contend for an external resource,
// such as a print spooler or a download directory.
package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer lets one start through immediately and every following start only after
// the configured interval has elapsed since the previous one. It limits the start
// rate, it does not wait for earlier work to finish.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// New builds a Pacer. A non-positive interval disables pacing.
func New(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until the next start is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Interval reports the configured spacing.
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

package api

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces calls at least Interval apart. The first call never waits and
// a zero interval never waits at all.
type Pacer struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a Pacer with the given interval.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{Interval: interval, now: time.Now, wait: sleep}
}

// Wait blocks until Interval has passed since the previous call returned, or
// ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() && p.Interval > 0 {
		if d := p.Interval - p.now().Sub(p.last); d > 0 {
			if err := p.wait(ctx, d); err != nil {
				return err
			}
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	p.last = p.now()
	return nil
}

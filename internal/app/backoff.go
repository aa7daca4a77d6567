package app

import (
	"context"
	"time"

	"github.com/bft-labs/logship/internal/domain"
)

// BackoffTick is the sleep granularity between cancellation checks. It bounds
// how long a shutdown request can go unnoticed while backing off.
const BackoffTick = time.Second

// backoff implements exponential backoff counted in ticks: it starts at one
// tick and doubles after every sleep, clamped at max ticks.
type backoff struct {
	tick    time.Duration
	max     int
	current int
}

// newBackoff creates a backoff sleeping in units of tick, capped at maxBackoff.
// A cap below one tick is raised to one tick.
func newBackoff(tick, maxBackoff time.Duration) *backoff {
	if tick <= 0 {
		tick = BackoffTick
	}
	maxTicks := int(maxBackoff / tick)
	if maxTicks < 1 {
		maxTicks = 1
	}
	return &backoff{tick: tick, max: maxTicks, current: 1}
}

// Current returns the duration the next Sleep will wait.
func (b *backoff) Current() time.Duration {
	return time.Duration(b.current) * b.tick
}

// Sleep waits for the current backoff one tick at a time and then doubles it.
// It returns domain.ErrCancelled as soon as ctx is done.
func (b *backoff) Sleep(ctx context.Context) error {
	timer := time.NewTimer(b.tick)
	defer timer.Stop()

	for i := 0; i < b.current; i++ {
		if i > 0 {
			timer.Reset(b.tick)
		}
		select {
		case <-ctx.Done():
			return domain.Cancelled(ctx.Err())
		case <-timer.C:
		}
	}

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return nil
}

package source

import (
	"context"
	"math/rand"
	"time"
)

// Backoff is the retry policy for a single source fetch: up to
// MaxRetries retries after the initial attempt, each preceded by a
// jittered linear wait. It is owned by the acquisition layer and
// independent of whatever scheduler invokes a run.
type Backoff struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
	// Step is the unit of the linear component; retry n adds
	// (n-1) * uniform(Step, 2*Step). Defaults to one second.
	Step time.Duration
}

// Wait returns the pause before the given retry (1-based):
// uniform(MinWait, MaxWait) + (retry-1) * uniform(Step, 2*Step).
// The growth is linear, not exponential.
func (b Backoff) Wait(retry int) time.Duration {
	step := b.Step
	if step == 0 {
		step = time.Second
	}
	base := b.MinWait + time.Duration(rand.Float64()*float64(b.MaxWait-b.MinWait))
	extra := time.Duration(float64(retry-1) * (1 + rand.Float64()) * float64(step))
	return base + extra
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

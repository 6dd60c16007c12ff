// Package retry provides exponential backoff for connection attempts.
//
// The line Connection never retries on its own; callers that want a
// second chance wrap Connect in a [Backoff].
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Zero-value fallbacks for Backoff fields.
const (
	defaultInitialDelay = 250 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
	defaultMultiplier   = 2.0
)

// ExhaustedError is returned when every allowed attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error // the last failure
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Backoff retries an operation with exponentially growing waits.
// The zero value makes unlimited attempts starting at 250ms.
type Backoff struct {
	InitialDelay time.Duration // wait before the second attempt
	MaxDelay     time.Duration // cap on any single wait
	Multiplier   float64       // growth factor per attempt
	MaxAttempts  int           // tries including the first; 0 = until ctx ends
	Jitter       bool          // randomise each wait by ±25%

	// Retryable, if set, filters which failures are retried.  Errors it
	// rejects are returned at once.
	Retryable func(error) bool
	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// ForConnect returns the backoff used for opening a connection: attempts
// tries in total (at least one), starting at 250ms and capped at 5s.
func ForConnect(attempts int) *Backoff {
	if attempts < 1 {
		attempts = 1
	}
	return &Backoff{
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
		Multiplier:   defaultMultiplier,
		MaxAttempts:  attempts,
		Jitter:       true,
	}
}

// Do calls fn until it succeeds, fails with an error Retryable rejects,
// runs out of attempts, or ctx ends during a wait.
//
// fn receives the 1-based attempt number.  When only one attempt was
// allowed its error is returned as-is; otherwise running out yields an
// *ExhaustedError wrapping the last failure.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	next := b.schedule()

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		switch {
		case err == nil:
			return nil
		case b.Retryable != nil && !b.Retryable(err):
			return err
		case b.MaxAttempts == 1:
			return err
		case b.MaxAttempts > 0 && attempt >= b.MaxAttempts:
			return &ExhaustedError{Attempts: attempt, Err: err}
		}

		wait := next()
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt, err)
		}
	}
}

// schedule returns a function yielding successive waits.
func (b *Backoff) schedule() func() time.Duration {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = defaultInitialDelay
	}
	ceiling := b.MaxDelay
	if ceiling <= 0 {
		ceiling = defaultMaxDelay
	}
	factor := b.Multiplier
	if factor < 1 {
		factor = defaultMultiplier
	}

	return func() time.Duration {
		wait := min(delay, ceiling)
		delay = min(time.Duration(float64(wait)*factor), ceiling)
		if b.Jitter {
			wait = addJitter(wait)
		}
		return wait
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// addJitter moves d by up to 25% either way, never below 1ms.
func addJitter(d time.Duration) time.Duration {
	spread := float64(d) / 2
	j := time.Duration(float64(d) - spread/2 + rand.Float64()*spread)
	return max(j, time.Millisecond)
}

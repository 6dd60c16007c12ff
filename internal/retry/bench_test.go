package retry

import (
	"context"
	"testing"
	"time"
)

// BenchmarkBackoff_FirstAttempt measures the cost of a connect that
// succeeds straight away.
func BenchmarkBackoff_FirstAttempt(b *testing.B) {
	bo := ForConnect(5)
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(int) error { return nil }) //nolint:errcheck
	}
}

// BenchmarkBackoff_NonRetryable measures a connect failing with an
// error the filter rejects.
func BenchmarkBackoff_NonRetryable(b *testing.B) {
	bo := ForConnect(5)
	bo.Retryable = func(error) bool { return false }
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(int) error { return errRefused }) //nolint:errcheck
	}
}

func BenchmarkSchedule(b *testing.B) {
	next := ForConnect(0).schedule()
	for i := 0; i < b.N; i++ {
		_ = next()
	}
}

func BenchmarkJitter(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = addJitter(100 * time.Millisecond)
	}
}

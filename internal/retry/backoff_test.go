package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

var errRefused = syscall.ECONNREFUSED

// failing returns an operation that fails its first n attempts.
func failing(n int, calls *int) func(int) error {
	return func(attempt int) error {
		*calls++
		if attempt <= n {
			return errRefused
		}
		return nil
	}
}

func fast(attempts int) *Backoff {
	return &Backoff{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: attempts}
}

func TestBackoff_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{"first try", 3, 0, 1, false},
		{"recovers", 5, 2, 3, false},
		{"recovers on last attempt", 3, 2, 3, false},
		{"runs out", 3, 10, 3, true},
		{"single attempt", 1, 10, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fast(tt.attempts).Do(context.Background(), failing(tt.failures, &calls))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBackoff_ExhaustedWrapsLastError(t *testing.T) {
	calls := 0
	err := fast(3).Do(context.Background(), failing(10, &calls))

	var ex *ExhaustedError
	if !errors.As(err, &ex) || ex.Attempts != 3 {
		t.Fatalf("err = %v, want ExhaustedError after 3 attempts", err)
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Error("ExhaustedError should unwrap to the last failure")
	}
}

func TestBackoff_SingleAttemptUnwrapped(t *testing.T) {
	err := ForConnect(0).Do(context.Background(), func(int) error { return errRefused })
	if err != errRefused {
		t.Errorf("err = %v, want the bare cause", err)
	}
}

func TestBackoff_RetryableFilter(t *testing.T) {
	fatal := errors.New("no such host")

	b := fast(10)
	b.Retryable = func(err error) bool { return errors.Is(err, syscall.ECONNREFUSED) }

	calls := 0
	err := b.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return errRefused
		}
		return fatal
	})
	if err != fatal {
		t.Errorf("err = %v, want %v", err, fatal)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBackoff_OnRetry(t *testing.T) {
	var seen []int
	b := fast(4)
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		if err == nil || wait <= 0 {
			t.Errorf("OnRetry(%d, %v, %v)", attempt, err, wait)
		}
		seen = append(seen, attempt)
	}

	calls := 0
	b.Do(context.Background(), failing(10, &calls)) //nolint:errcheck

	// No wait follows the final attempt.
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("OnRetry attempts = %v, want [1 2 3]", seen)
	}
}

func TestBackoff_ContextEndsWait(t *testing.T) {
	b := &Backoff{InitialDelay: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Do(ctx, func(int) error { return errRefused })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Do should return as soon as the context ends")
	}
}

func TestBackoff_Schedule(t *testing.T) {
	b := &Backoff{InitialDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond, Multiplier: 2}
	next := b.schedule()

	want := []time.Duration{100, 200, 400, 500, 500}
	for i, w := range want {
		if got := next(); got != w*time.Millisecond {
			t.Errorf("wait %d = %v, want %v", i+1, got, w*time.Millisecond)
		}
	}
}

func TestBackoff_ZeroValueSchedule(t *testing.T) {
	next := (&Backoff{}).schedule()
	if got := next(); got != defaultInitialDelay {
		t.Errorf("first wait = %v, want %v", got, defaultInitialDelay)
	}
	for i := 0; i < 100; i++ {
		if got := next(); got <= 0 || got > defaultMaxDelay {
			t.Fatalf("wait %d = %v, outside (0, %v]", i+2, got, defaultMaxDelay)
		}
	}
}

func TestForConnect(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{5, 5},
	}
	for _, tt := range tests {
		b := ForConnect(tt.in)
		if b.MaxAttempts != tt.want {
			t.Errorf("ForConnect(%d).MaxAttempts = %d, want %d", tt.in, b.MaxAttempts, tt.want)
		}
		if !b.Jitter || b.MaxDelay != defaultMaxDelay {
			t.Errorf("ForConnect(%d) = %+v", tt.in, b)
		}
	}
}

func TestJitter_Range(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		if j := addJitter(d); j < 75*time.Millisecond || j > 125*time.Millisecond {
			t.Fatalf("jitter %v outside ±25%% of %v", j, d)
		}
	}
	if j := addJitter(0); j != time.Millisecond {
		t.Errorf("addJitter(0) = %v, want 1ms floor", j)
	}
}

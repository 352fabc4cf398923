package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFetch = errors.New("fetch failed")

func failing() error    { return errFetch }
func succeeding() error { return nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("test", Settings{FailureThreshold: 3, SuccessThreshold: 1, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Do(ctx, failing); !errors.Is(err, errFetch) {
			t.Fatalf("call %d: err = %v, want errFetch", i, err)
		}
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %v, want open after threshold failures", got)
	}

	err := b.Do(ctx, succeeding)
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen while cooling down", err)
	}
	if stats := b.Stats(); stats.Rejected != 1 {
		t.Errorf("rejected = %d, want 1", stats.Rejected)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", Settings{FailureThreshold: 3, SuccessThreshold: 1, Cooldown: time.Minute})
	ctx := context.Background()

	b.Do(ctx, failing)
	b.Do(ctx, failing)
	b.Do(ctx, succeeding)
	b.Do(ctx, failing)
	b.Do(ctx, failing)

	if got := b.State(); got != StateClosed {
		t.Errorf("state = %v, want closed when failures never run consecutively", got)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := NewBreaker("test", Settings{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: time.Millisecond})
	ctx := context.Background()

	b.Do(ctx, failing)
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	time.Sleep(5 * time.Millisecond)

	if err := b.Do(ctx, succeeding); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after one trial success", got)
	}
	if err := b.Do(ctx, succeeding); err != nil {
		t.Fatalf("second trial call: %v", err)
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("state = %v, want closed after success threshold", got)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("test", Settings{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: time.Millisecond})
	ctx := context.Background()

	b.Do(ctx, failing)
	time.Sleep(5 * time.Millisecond)

	b.Do(ctx, failing)
	if got := b.State(); got != StateOpen {
		t.Errorf("state = %v, want reopened after a half-open failure", got)
	}
}

func TestBreakerCancelledContext(t *testing.T) {
	b := NewBreaker("test", DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.Do(ctx, func() error { called = true; return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Error("fn ran despite cancelled context")
	}
	if stats := b.Stats(); stats.Calls != 0 {
		t.Errorf("calls = %d, want 0", stats.Calls)
	}
}

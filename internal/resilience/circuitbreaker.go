// Package resilience provides a circuit breaker for outbound provider
// calls. Repeated fetch failures open the circuit so a struggling data
// source is left alone for a cooldown instead of being hammered by every
// command invocation.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the circuit state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrOpen is returned when the circuit is open and calls are rejected.
var ErrOpen = errors.New("circuit breaker open")

// Settings configures a Breaker.
type Settings struct {
	// FailureThreshold is the consecutive failure count that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the success count in half-open that closes it again.
	SuccessThreshold int
	// Cooldown is how long an open circuit rejects calls before probing.
	Cooldown time.Duration
}

// DefaultSettings returns breaker settings suited to a rate-limited
// market data API.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	name     string
	settings Settings

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	openedAt    time.Time
	calls       int64
	callsFailed int64
	rejected    int64
}

// NewBreaker creates a circuit breaker in the closed state.
func NewBreaker(name string, settings Settings) *Breaker {
	return &Breaker{name: name, settings: settings, state: StateClosed}
}

// Do runs fn under the breaker. When the circuit is open and the cooldown
// has not elapsed, fn is not called and ErrOpen is returned. Context
// cancellation surfaced by fn counts as a failure like any other error.
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.openedAt) < b.settings.Cooldown {
			b.rejected++
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.successes = 0
	}
	b.calls++
	return nil
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok {
		switch b.state {
		case StateHalfOpen:
			b.successes++
			if b.successes >= b.settings.SuccessThreshold {
				b.state = StateClosed
				b.failures = 0
			}
		case StateClosed:
			b.failures = 0
		}
		return
	}

	b.callsFailed++
	switch b.state {
	case StateHalfOpen:
		b.open()
	case StateClosed:
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.open()
		}
	}
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.failures = 0
	b.successes = 0
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats is a point-in-time snapshot of breaker counters.
type Stats struct {
	Name     string
	State    State
	Calls    int64
	Failed   int64
	Rejected int64
}

// Stats returns a snapshot of the breaker counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:     b.name,
		State:    b.state,
		Calls:    b.calls,
		Failed:   b.callsFailed,
		Rejected: b.rejected,
	}
}

// Reset forces the breaker back to closed. Used between test runs.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

package syntonerr

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current disposition.
type BreakerState int

const (
	// BreakerClosed allows calls through normally.
	BreakerClosed BreakerState = iota
	// BreakerOpen fails calls fast without attempting them.
	BreakerOpen
	// BreakerHalfOpen lets calls through after the reset timeout; the next
	// RecordSuccess closes the breaker and the next RecordFailure re-opens it.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker is a circuit breaker guarding a flaky capability — in
// SYNTON-DB's case, the Embedder. Repeated EmbedderUnavailable failures
// open the breaker so retrieval degrades to text-mode immediately instead
// of paying a timeout on every query (spec §4.5.6, §9 "Dynamic dispatch").
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu          sync.RWMutex
	state       BreakerState
	failures    int
	lastFailure time.Time
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithMaxFailures sets the number of consecutive failures before opening.
func WithMaxFailures(n int) BreakerOption {
	return func(b *Breaker) { b.maxFailures = n }
}

// WithResetTimeout sets how long the breaker stays open before probing.
func WithResetTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) { b.resetTimeout = d }
}

// NewBreaker creates a closed Breaker. Defaults: 5 failures, 30s reset.
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:         name,
		maxFailures:  5,
		resetTimeout: 30 * time.Second,
		state:        BreakerClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the breaker's name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, resolving Open->HalfOpen transitions.
func (b *Breaker) State() BreakerState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentState()
}

func (b *Breaker) currentState() BreakerState {
	if b.state == BreakerOpen && time.Since(b.lastFailure) > b.resetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

// Allow reports whether a call should be attempted.
func (b *Breaker) Allow() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentState() != BreakerOpen
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = BreakerClosed
}

// RecordFailure increments the failure count, opening the breaker once
// maxFailures is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = time.Now()
	if b.failures >= b.maxFailures {
		b.state = BreakerOpen
	}
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failures
}

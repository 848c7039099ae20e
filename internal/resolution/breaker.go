package resolution

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen indicates a dependency path is disabled by its circuit breaker.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerState is the state of a circuit breaker.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// CircuitBreaker guards a failing dependency path. It opens on failure and
// admits a single probe after the cooldown elapses; a successful probe closes
// it again. Safe for concurrent use.
type CircuitBreaker struct {
	mu          sync.Mutex
	name        string
	state       BreakerState
	lastFailure time.Time
	cooldown    time.Duration
	now         func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given cooldown.
func NewCircuitBreaker(name string, cooldown time.Duration) *CircuitBreaker {
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{
		name:     name,
		state:    BreakerClosed,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Allow reports whether a call may proceed. When the cooldown has elapsed on
// an open breaker, one caller is admitted as a half-open probe.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerHalfOpen:
		// A probe is already in flight.
		return false
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) >= b.cooldown {
			b.state = BreakerHalfOpen
			return true
		}
		return false
	}
	return false
}

// RecordSuccess closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
}

// RecordFailure opens the breaker and restarts the cooldown.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerOpen
	b.lastFailure = b.now()
}

// State returns the current state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker's name.
func (b *CircuitBreaker) Name() string {
	return b.name
}

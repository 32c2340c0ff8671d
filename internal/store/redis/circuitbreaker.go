package redis

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting writes.
var ErrCircuitOpen = errors.New("redis: circuit open")

// State of the delivery breaker. The numeric values double as the samples
// for the terminal_redis_circuit_breaker_state gauge.
type State int

const (
	StateClosed   State = iota // deliveries pass through
	StateOpen                  // deliveries rejected, replay buffer fills
	StateHalfOpen              // cooldown elapsed, probing with live writes
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// GaugeValue reports the state as a metric sample.
func (s State) GaugeValue() float64 { return float64(s) }

// CircuitBreaker guards the Redis delivery pipeline. A run of consecutive
// write failures opens the breaker; while open, every publish fails fast
// with ErrCircuitOpen so a dead Redis cannot stall the tick path. Once the
// cooldown elapses the next publish runs as a probe: success closes the
// breaker, failure restarts the cooldown.
type CircuitBreaker struct {
	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time

	maxFailures int
	cooldown    time.Duration

	// OnStateChange fires on every transition, with the breaker lock
	// held. Used for logging, the state gauge, and replay flushing.
	OnStateChange func(from, to State)
}

// NewCircuitBreaker creates a closed breaker that trips after maxFailures
// consecutive failures and probes again after cooldown.
func NewCircuitBreaker(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
	}
}

// Execute runs one delivery attempt through the breaker.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

// CurrentState returns the breaker state.
func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// allow decides whether a delivery may run, moving an open breaker to
// half-open once the cooldown has elapsed.
func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.openedAt) <= cb.cooldown {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
	}
	return nil
}

// record folds one delivery outcome into the state machine.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.openedAt = time.Now()
			cb.setState(StateOpen)
		}
		return
	}

	if cb.state == StateHalfOpen {
		cb.setState(StateClosed)
	}
	cb.failures = 0
}

func (cb *CircuitBreaker) setState(to State) {
	if to == cb.state {
		return
	}
	from := cb.state
	cb.state = to
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.OnStateChange != nil {
		cb.OnStateChange(from, to)
	}
}

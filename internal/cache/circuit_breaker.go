package cache

import (
	"errors"
	"log"
	"sync"
	"time"
)

type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerOpen
	CircuitBreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a failing backend for a cool-down period.
// After the timeout a limited number of trial calls decide whether it closes
// again.
type CircuitBreaker struct {
	name string

	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	trialCalls      int
	trialSuccesses  int
	lastFailureTime time.Time

	maxFailures      int
	timeout          time.Duration
	halfOpenMaxCalls int
	now              func() time.Time
}

type CircuitBreakerConfig struct {
	Name             string        `json:"name"`
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:             "redis",
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 1
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}

	return &CircuitBreaker{
		name:             config.Name,
		state:            CircuitBreakerClosed,
		maxFailures:      config.MaxFailures,
		timeout:          config.Timeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
		now:              time.Now,
	}
}

// Execute runs fn unless the breaker is open. Errors returned by fn count as
// failures.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitBreakerOpen
	}

	err := fn()
	if err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitBreakerClosed:
		return true
	case CircuitBreakerOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			return false
		}
		cb.setState(CircuitBreakerHalfOpen)
		cb.trialCalls = 1
		return true
	case CircuitBreakerHalfOpen:
		if cb.trialCalls >= cb.halfOpenMaxCalls {
			return false
		}
		cb.trialCalls++
		return true
	}
	return false
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case CircuitBreakerClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.setState(CircuitBreakerOpen)
		}
	case CircuitBreakerHalfOpen:
		cb.setState(CircuitBreakerOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitBreakerClosed:
		cb.failureCount = 0
	case CircuitBreakerHalfOpen:
		cb.trialSuccesses++
		if cb.trialSuccesses >= cb.halfOpenMaxCalls {
			cb.setState(CircuitBreakerClosed)
		}
	}
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(state CircuitBreakerState) {
	if cb.state == state {
		return
	}
	log.Printf("Circuit breaker %s: %s -> %s", cb.name, cb.state, state)

	cb.state = state
	cb.trialCalls = 0
	cb.trialSuccesses = 0
	if state == CircuitBreakerClosed {
		cb.failureCount = 0
	}
}

func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"name":            cb.name,
		"state":           cb.state.String(),
		"failure_count":   cb.failureCount,
		"last_failure":    cb.lastFailureTime.Unix(),
		"max_failures":    cb.maxFailures,
		"timeout_seconds": cb.timeout.Seconds(),
	}
}

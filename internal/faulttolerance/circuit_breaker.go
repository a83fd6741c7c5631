package faulttolerance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	MaxFailures      int           // Consecutive failures before opening
	Timeout          time.Duration // Time to wait before transitioning from Open to Half-Open
	SuccessThreshold int           // Consecutive successes needed to close from Half-Open
	Name             string        // Name for logging
}

// CircuitBreaker stops calls to a vendor that keeps failing so the
// remaining workers of a run do not spend their retries on it.
type CircuitBreaker struct {
	config          CircuitBreakerConfig
	state           CircuitBreakerState
	failures        int
	successes       int
	lastFailureTime time.Time
	mutex           sync.Mutex
	logger          *logrus.Logger
	now             func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 20
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Name == "" {
		config.Name = "CircuitBreaker"
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		logger: logger,
		now:    time.Now,
	}
}

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// Execute runs fn unless the breaker is open. Permanent errors are
// answers from a healthy vendor and do not count as failures.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cb.canExecute() {
		return ErrCircuitBreakerOpen
	}

	err := fn()
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		cb.recordResult(nil)
	} else {
		cb.recordResult(err)
	}
	return err
}

func (cb *CircuitBreaker) canExecute() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) <= cb.config.Timeout {
			return false
		}
		cb.setState(StateHalfOpen)
		cb.successes = 0
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if err != nil {
		cb.failures++
		cb.successes = 0
		cb.lastFailureTime = cb.now()

		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.config.MaxFailures {
				cb.setState(StateOpen)
				cb.logger.Warnf("[%s] Circuit breaker OPENED after %d failures", cb.config.Name, cb.failures)
			}
		case StateHalfOpen:
			cb.setState(StateOpen)
			cb.logger.Warnf("[%s] Circuit breaker reopened from HALF_OPEN due to failure", cb.config.Name)
		}
		return
	}

	cb.failures = 0
	cb.successes++
	if cb.state == StateHalfOpen && cb.successes >= cb.config.SuccessThreshold {
		cb.setState(StateClosed)
	}
}

// setState must be called with the mutex held.
func (cb *CircuitBreaker) setState(state CircuitBreakerState) {
	if cb.state != state {
		oldState := cb.state
		cb.state = state
		cb.logger.Infof("[%s] Circuit breaker state changed: %s -> %s", cb.config.Name, oldState, state)
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

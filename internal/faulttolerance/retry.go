// Package faulttolerance wraps fallible vendor calls with bounded retry and a circuit breaker.
package faulttolerance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// RetryConfig holds configuration for retry mechanisms
type RetryConfig struct {
	MaxAttempts int           // Total calls, the first one included
	BaseDelay   time.Duration // Delay after the first failure
	MaxDelay    time.Duration // Upper bound of a single delay
	Multiplier  float64       // Growth of the delay per attempt
	JitterRange float64       // Randomization factor (0.0 to 1.0)
	Name        string        // Name for logging
}

// DefaultRetryConfig returns 4 attempts waiting 1s, 2s and 4s in between.
func DefaultRetryConfig(name string) RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		JitterRange: 0,
		Name:        name,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retryer handles retry logic with exponential backoff
type Retryer struct {
	config RetryConfig
	logger *logrus.Logger
	sleep  SleepFunc
}

// Option customises a Retryer.
type Option func(*Retryer)

// WithSleep replaces the wait between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(r *Retryer) {
		r.sleep = sleep
	}
}

// NewRetryer creates a new retryer
func NewRetryer(config RetryConfig, logger *logrus.Logger, opts ...Option) *Retryer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 4
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 1 * time.Second
	}
	if config.MaxDelay < config.BaseDelay {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 1.0 {
		config.Multiplier = 2.0
	}
	if config.JitterRange < 0 || config.JitterRange > 1.0 {
		config.JitterRange = 0
	}
	if config.Name == "" {
		config.Name = "Retryer"
	}

	r := &Retryer{
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Execute calls fn until it succeeds, returns a permanent error, or
// MaxAttempts calls have failed. The last error is returned wrapped.
func (r *Retryer) Execute(ctx context.Context, fn RetryableFunc) error {
	schedule := r.schedule()
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				r.logger.Infof("[%s] Operation succeeded on attempt %d", r.config.Name, attempt)
			}
			return nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			r.logger.Debugf("[%s] Non-retryable error: %v", r.config.Name, permanent.Err)
			return permanent.Err
		}

		lastErr = err
		if attempt == r.config.MaxAttempts {
			r.logger.Errorf("[%s] All %d attempts failed, last error: %v", r.config.Name, attempt, err)
			break
		}

		delay := schedule.NextBackOff()
		r.logger.Warnf("[%s] Attempt %d failed: %v. Retrying in %v...", r.config.Name, attempt, err, delay)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
}

// Do is Execute for calls that return a value.
func Do[T any](ctx context.Context, r *Retryer, fn func() (T, error)) (T, error) {
	var out T
	err := r.Execute(ctx, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// ExecuteWithCircuitBreaker combines retry logic with circuit breaker.
// An open breaker ends the retries at once.
func (r *Retryer) ExecuteWithCircuitBreaker(ctx context.Context, cb *CircuitBreaker, fn RetryableFunc) error {
	return r.Execute(ctx, func() error {
		err := cb.Execute(ctx, fn)
		if errors.Is(err, ErrCircuitBreakerOpen) {
			return Permanent(err)
		}
		return err
	})
}

// schedule yields BaseDelay, BaseDelay*Multiplier, ... capped at MaxDelay.
func (r *Retryer) schedule() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.BaseDelay
	b.Multiplier = r.config.Multiplier
	b.RandomizationFactor = r.config.JitterRange
	b.MaxInterval = r.config.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

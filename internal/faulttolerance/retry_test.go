package faulttolerance

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestRetrySucceedsAfterTwoFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	sleeps := &recordedSleeps{}
	r := NewRetryer(DefaultRetryConfig("test"), logger, WithSleep(sleeps.sleep))

	calls := 0
	got, err := Do(context.Background(), r, func() (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != "ok" {
		t.Errorf("Expected value 'ok', got %q", got)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}

	expected := []time.Duration{time.Second, 2 * time.Second}
	if len(sleeps.delays) != len(expected) {
		t.Fatalf("Expected %d sleeps, got %v", len(expected), sleeps.delays)
	}
	for i, d := range sleeps.delays {
		if d.Round(time.Millisecond) != expected[i] {
			t.Errorf("Sleep %d: expected ~%v, got %v", i, expected[i], d)
		}
	}

	out := buf.String()
	if !strings.Contains(out, "[test] Attempt 1 failed: boom") || !strings.Contains(out, "[test] Attempt 2 failed: boom") {
		t.Errorf("Expected a warning per retry, got:\n%s", out)
	}
}

func TestRetryPropagatesLastError(t *testing.T) {
	sleeps := &recordedSleeps{}
	r := NewRetryer(DefaultRetryConfig("test"), quietLogger(), WithSleep(sleeps.sleep))

	sentinel := errors.New("still down")
	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected wrapped sentinel, got %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 calls, got %d", calls)
	}
	expected := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(sleeps.delays) != len(expected) {
		t.Fatalf("Expected %d sleeps, got %v", len(expected), sleeps.delays)
	}
	for i, d := range sleeps.delays {
		if d.Round(time.Millisecond) != expected[i] {
			t.Errorf("Sleep %d: expected ~%v, got %v", i, expected[i], d)
		}
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	sleeps := &recordedSleeps{}
	r := NewRetryer(DefaultRetryConfig("test"), quietLogger(), WithSleep(sleeps.sleep))

	notFound := errors.New("404")
	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		return Permanent(notFound)
	})

	if err != notFound {
		t.Errorf("Expected the unwrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if len(sleeps.delays) != 0 {
		t.Errorf("Expected no sleeps, got %v", sleeps.delays)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetryer(DefaultRetryConfig("test"), quietLogger(), WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	calls := 0
	err := r.Execute(ctx, func() error {
		calls++
		return errors.New("boom")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetryRealSleep(t *testing.T) {
	cfg := DefaultRetryConfig("fast")
	cfg.BaseDelay = time.Millisecond
	r := NewRetryer(cfg, quietLogger())

	calls := 0
	start := time.Now()
	err := r.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 3*time.Millisecond {
		t.Errorf("Expected at least 3ms of backoff, got %v", elapsed)
	}
}

func TestNewRetryerDefaults(t *testing.T) {
	r := NewRetryer(RetryConfig{}, quietLogger())

	if r.config.MaxAttempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", r.config.MaxAttempts)
	}
	if r.config.BaseDelay != time.Second {
		t.Errorf("Expected 1s base delay, got %v", r.config.BaseDelay)
	}
	if r.config.Multiplier != 2 {
		t.Errorf("Expected multiplier 2, got %v", r.config.Multiplier)
	}
}

package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/faulttolerance"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func testClient(baseURL string) *HTTPClient {
	cfg := DefaultHTTPConfig("test", baseURL, 1000)
	cfg.RateLimiter = rate.NewLimiter(rate.Inf, 1)
	return NewHTTPClient(cfg, quietLogger(), faulttolerance.WithSleep(noSleep))
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/thing" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("market") != "KRW-BTC" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"price": 42.5}`))
	}))
	defer server.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	err := testClient(server.URL).GetJSON(context.Background(), "/v1/thing", url.Values{"market": {"KRW-BTC"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Price != 42.5 {
		t.Errorf("Expected 42.5, got %v", out.Price)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	var out []any
	if err := testClient(server.URL).GetJSON(context.Background(), "/", nil, &out); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var out map[string]any
	if err := testClient(server.URL).GetJSON(context.Background(), "/", nil, &out); err != nil {
		t.Fatalf("Expected success after 429, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var out map[string]any
	err := testClient(server.URL).GetJSON(context.Background(), "/missing", nil, &out)
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("Expected a 404 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestGetJSONGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var out map[string]any
	err := testClient(server.URL).GetJSON(context.Background(), "/", nil, &out)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected the last 503 to propagate, got %v", err)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"abc", 0},
		{"5", 5 * time.Second},
		{"600", maxRateLimitWait},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.header); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestHTTPConfigFor(t *testing.T) {
	cfg := HTTPConfigFor(configs.SourceConfig{
		Name:              "upbit",
		BaseURL:           "https://api.upbit.com/v1",
		RequestsPerSecond: 8,
		RequestTimeout:    3 * time.Second,
		RetryAttempts:     6,
		RetryBaseDelay:    2 * time.Second,
	})

	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("Unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.Retry.MaxAttempts != 6 || cfg.Retry.BaseDelay != 2*time.Second {
		t.Errorf("Unexpected retry config %+v", cfg.Retry)
	}
	if cfg.RateLimiter.Limit() != rate.Limit(8) {
		t.Errorf("Unexpected rate %v", cfg.RateLimiter.Limit())
	}
}

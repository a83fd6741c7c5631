package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/faulttolerance"
)

const (
	maxBodySize      = 64 << 20
	maxRateLimitWait = 60 * time.Second
	userAgent        = "momentum-updater/1.0"
)

type HTTPConfig struct {
	Name            string
	BaseURL         string
	RateLimiter     *rate.Limiter
	RequestTimeout  time.Duration
	Retry           faulttolerance.RetryConfig
	BreakerFailures int
}

func DefaultHTTPConfig(name, baseURL string, requestsPerSecond float64) *HTTPConfig {
	return &HTTPConfig{
		Name:            name,
		BaseURL:         baseURL,
		RateLimiter:     rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		RequestTimeout:  10 * time.Second,
		Retry:           faulttolerance.DefaultRetryConfig(name),
		BreakerFailures: 20,
	}
}

// HTTPConfigFor derives the client settings of a configured source.
func HTTPConfigFor(src configs.SourceConfig) *HTTPConfig {
	cfg := DefaultHTTPConfig(src.Name, src.BaseURL, src.RequestsPerSecond)
	if src.RequestsPerSecond <= 0 {
		cfg.RateLimiter = rate.NewLimiter(rate.Inf, 1)
	}
	if src.RequestTimeout > 0 {
		cfg.RequestTimeout = src.RequestTimeout
	}
	if src.RetryAttempts > 0 {
		cfg.Retry.MaxAttempts = src.RetryAttempts
	}
	if src.RetryBaseDelay > 0 {
		cfg.Retry.BaseDelay = src.RetryBaseDelay
	}
	if src.BreakerFailures > 0 {
		cfg.BreakerFailures = src.BreakerFailures
	}
	return cfg
}

// StatusError is a non-2xx vendor answer.
type StatusError struct {
	Code       int
	URL        string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// IsStatus reports whether err carries the HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// HTTPClient is the shared vendor client: every request waits on the rate
// limiter, carries its own timeout and goes through retry and the circuit breaker.
type HTTPClient struct {
	config  *HTTPConfig
	client  *http.Client
	retryer *faulttolerance.Retryer
	breaker *faulttolerance.CircuitBreaker
	logger  *logrus.Logger
	sleep   faulttolerance.SleepFunc
}

func NewHTTPClient(config *HTTPConfig, logger *logrus.Logger, opts ...faulttolerance.Option) *HTTPClient {
	c := &HTTPClient{
		config:  config,
		client:  &http.Client{},
		retryer: faulttolerance.NewRetryer(config.Retry, logger, opts...),
		breaker: faulttolerance.NewCircuitBreaker(faulttolerance.CircuitBreakerConfig{
			MaxFailures: config.BreakerFailures,
			Name:        config.Name,
		}, logger),
		logger: logger,
		sleep:  waitContext,
	}
	return c
}

// GetJSON fetches BaseURL+path with query and decodes the body into out.
// 429 and 5xx answers are retried, other 4xx answers are not.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return c.retryer.ExecuteWithCircuitBreaker(ctx, c.breaker, func() error {
		return c.get(ctx, target, out)
	})
}

func (c *HTTPClient) get(ctx context.Context, target string, out any) error {
	if err := c.config.RateLimiter.Wait(ctx); err != nil {
		return faulttolerance.Permanent(fmt.Errorf("rate limiter: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return faulttolerance.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		se := &StatusError{Code: resp.StatusCode, URL: target, RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if se.RetryAfter > 0 {
				c.logger.Warnf("[%s] Rate limited, waiting %v", c.config.Name, se.RetryAfter)
				if err := c.sleep(ctx, se.RetryAfter); err != nil {
					return faulttolerance.Permanent(err)
				}
			}
			return se
		case resp.StatusCode >= 500:
			return se
		default:
			return faulttolerance.Permanent(se)
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRateLimitWait {
		d = maxRateLimitWait
	}
	return d
}

func waitContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

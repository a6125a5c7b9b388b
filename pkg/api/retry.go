// Package api holds the retry and pacing helpers shared by the outbound
// clients.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// RetryPolicy controls how Do retries a failing call.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// RetryStatuses are the HTTP status codes worth another attempt.
	RetryStatuses []int
}

// DefaultRetryPolicy retries throttling and upstream failures three times.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
		RetryStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// InferenceRetryPolicy covers hosted model endpoints, which answer 503 while
// a model is loading and 429 when throttled.
func InferenceRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     20 * time.Second,
		Multiplier:     2,
		RetryStatuses:  []int{http.StatusTooManyRequests, http.StatusServiceUnavailable},
	}
}

// Backoff is the delay before retry number n (1-based), capped at MaxBackoff.
func (p *RetryPolicy) Backoff(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	d := p.InitialBackoff
	for i := 1; i < n; i++ {
		if p.Multiplier > 1 {
			d = time.Duration(float64(d) * p.Multiplier)
		}
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Retryable reports whether err carries one of RetryStatuses.
func (p *RetryPolicy) Retryable(err error) bool {
	status := StatusCode(err)
	return status != 0 && slices.Contains(p.RetryStatuses, status)
}

// delay is the wait before retry n after err. A server-sent Retry-After
// longer than the backoff wins, still capped at MaxBackoff.
func (p *RetryPolicy) delay(n int, err error) time.Duration {
	d := p.Backoff(n)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > d {
		d = httpErr.RetryAfter
		if p.MaxBackoff > 0 && d > p.MaxBackoff {
			d = p.MaxBackoff
		}
	}
	return d
}

// HTTPError is a non-2xx answer from an API.
type HTTPError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the HTTP status from the error types this module
// produces, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	var fetchErr *cricket.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	var oauthErr *oauth2.RetrieveError
	if errors.As(err, &oauthErr) && oauthErr.Response != nil {
		return oauthErr.Response.StatusCode
	}
	return 0
}

// ParseRetryAfter reads a Retry-After header given in seconds. HTTP dates and
// junk yield 0.
func ParseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Do calls op until it succeeds, returns an error the policy does not retry,
// runs out of attempts or ctx is done. Errors are wrapped with name.
func Do(ctx context.Context, name string, policy *RetryPolicy, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			if attempt > 1 {
				slog.Info("Call succeeded after retry", "operation", name, "attempt", attempt)
			}
			return nil
		}
		if !policy.Retryable(err) {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		if attempt >= policy.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}

		d := policy.delay(attempt, err)
		slog.Warn("Retrying call", "operation", name, "attempt", attempt+1, "of", policy.MaxAttempts, "backoff", d, "error", err)
		if serr := sleep(ctx, d); serr != nil {
			return fmt.Errorf("%s cancelled: %w", name, serr)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

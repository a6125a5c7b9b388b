package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
		{100, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.retry), func(t *testing.T) {
			if got := policy.Backoff(tt.retry); got != tt.expected {
				t.Errorf("Backoff(%d) = %v, expected %v", tt.retry, got, tt.expected)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 0},
		{"HTTPError", &HTTPError{StatusCode: http.StatusServiceUnavailable}, 503},
		{"wrapped HTTPError", fmt.Errorf("predict: %w", &HTTPError{StatusCode: http.StatusTooManyRequests}), 429},
		{"FetchError", &cricket.FetchError{Source: "cricbuzz.com", StatusCode: http.StatusBadGateway}, 502},
		{"FetchError without status", &cricket.FetchError{Source: "cricbuzz.com", Err: errors.New("dns")}, 0},
		{"oauth2 RetrieveError", &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusUnauthorized}}, 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.expected {
				t.Errorf("StatusCode() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestInferenceRetryPolicy_Retryable(t *testing.T) {
	policy := InferenceRetryPolicy()

	for status, expected := range map[int]bool{
		http.StatusServiceUnavailable:  true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: false,
		http.StatusNotFound:            false,
	} {
		if got := policy.Retryable(&HTTPError{StatusCode: status}); got != expected {
			t.Errorf("Retryable(%d) = %v, expected %v", status, got, expected)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":                              0,
		"5":                             5 * time.Second,
		" 12 ":                          12 * time.Second,
		"-3":                            0,
		"Wed, 21 Oct 2026 07:28:00 GMT": 0,
	}
	for header, expected := range tests {
		if got := ParseRetryAfter(header); got != expected {
			t.Errorf("ParseRetryAfter(%q) = %v, expected %v", header, got, expected)
		}
	}
}

func TestRetryPolicy_DelayHonoursRetryAfter(t *testing.T) {
	policy := &RetryPolicy{InitialBackoff: time.Second, MaxBackoff: 10 * time.Second, Multiplier: 2}

	tests := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"backoff when no header", &HTTPError{StatusCode: 503}, time.Second},
		{"shorter header ignored", &HTTPError{StatusCode: 503, RetryAfter: time.Millisecond}, time.Second},
		{"longer header wins", &HTTPError{StatusCode: 429, RetryAfter: 4 * time.Second}, 4 * time.Second},
		{"header capped", &HTTPError{StatusCode: 429, RetryAfter: time.Minute}, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.delay(1, tt.err); got != tt.expected {
				t.Errorf("delay() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	tests := []struct {
		err      *HTTPError
		expected string
	}{
		{&HTTPError{StatusCode: 500, Message: "model crashed"}, "HTTP 500: model crashed"},
		{&HTTPError{StatusCode: 503}, "HTTP 503: Service Unavailable"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, expected %q", got, tt.expected)
		}
	}
}

func TestDo(t *testing.T) {
	fast := &RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Multiplier:     2,
		RetryStatuses:  []int{http.StatusServiceUnavailable, http.StatusTooManyRequests},
	}
	unavailable := &HTTPError{StatusCode: http.StatusServiceUnavailable}

	tests := []struct {
		name     string
		failures []error
		wantErr  string
		attempts int
	}{
		{"first try", nil, "", 1},
		{"not retryable", []error{&HTTPError{StatusCode: http.StatusNotFound}}, "predict failed: HTTP 404", 1},
		{"recovers", []error{unavailable, &HTTPError{StatusCode: http.StatusTooManyRequests}}, "", 3},
		{"exhausted", []error{unavailable, unavailable, unavailable}, "predict failed after 3 attempts", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), "predict", fast, func(context.Context) error {
				attempts++
				if attempts <= len(tt.failures) {
					return tt.failures[attempts-1]
				}
				return nil
			})

			if tt.wantErr == "" && err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("Do() error = %v, expected %q", err, tt.wantErr)
			}
			if attempts != tt.attempts {
				t.Errorf("attempts = %d, expected %d", attempts, tt.attempts)
			}
		})
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	policy := &RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Hour, RetryStatuses: []int{http.StatusServiceUnavailable}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Do(ctx, "slow", policy, func(context.Context) error {
		return &HTTPError{StatusCode: http.StatusServiceUnavailable}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, expected deadline exceeded", err)
	}
}

package http

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 0 {
		t.Errorf("DefaultConfig().MaxRetries = %d, scrapes are not retried", config.MaxRetries)
	}
	if !strings.Contains(config.UserAgent, "Chrome") {
		t.Errorf("DefaultConfig().UserAgent = %q, expected a browser identity", config.UserAgent)
	}
	for _, h := range []string{"Accept", "Accept-Language", "Accept-Encoding"} {
		if config.Headers[h] == "" {
			t.Errorf("DefaultConfig() missing %s header", h)
		}
	}
}

func TestClient_FetchSendsBrowserHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>India vs Australia</body></html>"))
	}))
	defer server.Close()

	body, err := NewClient(nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(body, "India vs Australia") {
		t.Errorf("Fetch() body = %q", body)
	}
	if got.Get("User-Agent") != BrowserUserAgent {
		t.Errorf("User-Agent = %q", got.Get("User-Agent"))
	}
	if got.Get("Accept-Language") == "" {
		t.Errorf("Accept-Language header not sent")
	}
}

func TestClient_FetchDecodesGzipAndCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		// "Mumbaí" in Latin-1
		_, _ = gz.Write([]byte("<p>Mumba\xed</p>"))
		_ = gz.Close()
	}))
	defer server.Close()

	body, err := NewClient(nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(body, "Mumbaí") {
		t.Errorf("Fetch() body = %q, expected UTF-8 converted text", body)
	}
}

func TestClient_FetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"non-2xx status", server.URL, http.StatusForbidden},
		{"invalid URL", "not a url", 0},
		{"connection refused", "http://127.0.0.1:1/", 0},
	}

	client := NewClient(&ClientConfig{Timeout: 2 * time.Second})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Fetch(context.Background(), tt.url)
			var fe *cricket.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Fetch() error = %v, expected *cricket.FetchError", err)
			}
			if fe.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, expected %d", fe.StatusCode, tt.wantStatus)
			}
			if fe.URL != tt.url {
				t.Errorf("URL = %q, expected %q", fe.URL, tt.url)
			}
		})
	}
}

func TestClient_FetchCapsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
	}))
	defer server.Close()

	config := DefaultConfig()
	config.MaxBodyBytes = 100
	body, err := NewClient(config).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(body) != 100 {
		t.Errorf("len(body) = %d, expected 100", len(body))
	}
}

func TestClient_FetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"India vs Australia"}]}`))
	}))
	defer server.Close()

	var payload struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := NewClient(nil).FetchJSON(context.Background(), server.URL, &payload); err != nil {
		t.Fatalf("FetchJSON() error = %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Name != "India vs Australia" {
		t.Errorf("FetchJSON() = %+v", payload)
	}
}

func TestClient_PostRetriesOnRetryableStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond})
	resp, err := client.PostWithContext(context.Background(), server.URL, "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("PostWithContext() error = %v", err)
	}
	resp.Body.Close()
	if calls != 2 {
		t.Errorf("server saw %d calls, expected 2", calls)
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			if got := IsRetryableStatusCode(tt.code); got != tt.expected {
				t.Errorf("IsRetryableStatusCode(%d) = %v, expected %v", tt.code, got, tt.expected)
			}
		})
	}
}

package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// BrowserUserAgent is sent by default so sources serve the same markup a
// desktop browser would get.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves a remote document as UTF-8 text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// JSONFetcher retrieves and decodes a remote JSON document.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, target any) error
}

// ClientConfig represents HTTP client configuration
type ClientConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	UserAgent    string
	Headers      map[string]string
	MaxBodyBytes int64
	// Transport overrides http.DefaultTransport, e.g. with an oauth2.Transport.
	Transport http.RoundTripper
}

// DefaultConfig returns a browser-like configuration without retries.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:      15 * time.Second,
		MaxRetries:   0,
		RetryBackoff: 1 * time.Second,
		UserAgent:    BrowserUserAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Accept-Encoding": "gzip",
			"Cache-Control":   "no-cache",
			"Connection":      "keep-alive",
		},
		MaxBodyBytes: 5 << 20,
	}
}

// Client is an HTTP client presenting a browser identity.
type Client struct {
	client *http.Client
	config *ClientConfig
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		config: config,
	}
}

// Fetch GETs targetURL and returns the body decoded to UTF-8. Any network or
// non-2xx outcome is reported as *cricket.FetchError.
func (c *Client) Fetch(ctx context.Context, targetURL string) (string, error) {
	resp, err := c.get(ctx, targetURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("Failed to close response body", "error", closeErr)
		}
	}()

	body, err := c.readBody(resp)
	if err != nil {
		return "", fetchError(targetURL, 0, err)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset, hand back the raw bytes.
		slog.Debug("Charset detection failed", "url", targetURL, "error", err)
		return string(body), nil
	}
	utf8Body, err := io.ReadAll(reader)
	if err != nil {
		return "", fetchError(targetURL, 0, fmt.Errorf("failed to convert to UTF-8: %w", err))
	}

	slog.Debug("Fetched document", "url", targetURL, "bytes", len(utf8Body))
	return string(utf8Body), nil
}

// FetchJSON GETs targetURL and decodes the JSON body into target.
func (c *Client) FetchJSON(ctx context.Context, targetURL string, target any) error {
	resp, err := c.get(ctx, targetURL, "Accept", "application/json")
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("Failed to close response body", "error", closeErr)
		}
	}()

	body, err := c.readBody(resp)
	if err != nil {
		return fetchError(targetURL, 0, err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fetchError(targetURL, 0, fmt.Errorf("failed to decode JSON: %w", err))
	}
	return nil
}

// PostWithContext performs an HTTP POST request with context and retry logic
func (c *Client) PostWithContext(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.doWithRetry(req)
}

// get issues a GET with the configured identity. extra is a list of header
// key/value pairs that override the defaults.
func (c *Client) get(ctx context.Context, targetURL string, extra ...string) (*http.Response, error) {
	if _, err := url.ParseRequestURI(targetURL); err != nil {
		return nil, fetchError(targetURL, 0, fmt.Errorf("invalid URL: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", targetURL, nil)
	if err != nil {
		return nil, fetchError(targetURL, 0, fmt.Errorf("failed to create GET request: %w", err))
	}
	for i := 0; i+1 < len(extra); i += 2 {
		req.Header.Set(extra[i], extra[i+1])
	}

	resp, err := c.doWithRetry(req)
	if err != nil {
		return nil, fetchError(targetURL, 0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("Failed to close response body", "error", closeErr)
		}
		return nil, fetchError(targetURL, resp.StatusCode, fmt.Errorf("unexpected status: %s", resp.Status))
	}
	return resp, nil
}

// readBody reads the body, undoing gzip when the transport did not, capped at
// MaxBodyBytes.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	if c.config.MaxBodyBytes > 0 {
		reader = io.LimitReader(reader, c.config.MaxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// doWithRetry performs an HTTP request with retry logic
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	for key, value := range c.config.Headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	var lastErr error
	backoff := c.config.RetryBackoff

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if IsRetryableStatusCode(resp.StatusCode) && attempt < c.config.MaxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("retryable HTTP status: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	if c.config.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// IsRetryableStatusCode determines if an HTTP status code should be retried
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func fetchError(targetURL string, status int, err error) *cricket.FetchError {
	host := targetURL
	if u, perr := url.Parse(targetURL); perr == nil && u.Host != "" {
		host = u.Host
	}
	return &cricket.FetchError{Source: host, URL: targetURL, StatusCode: status, Err: err}
}

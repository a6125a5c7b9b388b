package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// errorSnippetBytes bounds how much of an error body ends up in messages.
const errorSnippetBytes = 512

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Error("Failed to close response body", "error", err)
	}
}

// ReadResponseBody reads at most limit bytes of the body and closes it. A
// limit <= 0 reads everything.
func ReadResponseBody(resp *http.Response, limit int64) ([]byte, error) {
	defer closeBody(resp)

	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit)
	}
	return io.ReadAll(r)
}

// DecodeJSONResponse decodes a 2xx JSON body into target and closes it. Other
// statuses are reported with the start of the body, which is where APIs put
// their error text.
func DecodeJSONResponse(resp *http.Response, target any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := ReadResponseBody(resp, errorSnippetBytes)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	defer closeBody(resp)
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

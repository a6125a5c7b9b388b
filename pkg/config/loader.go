// Package config loads auxiliary configuration documents (selector tables)
// from a remote URL with a local file fallback.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
)

// Where a document was loaded from.
const (
	SourceRemote  = "remote"
	SourceLocal   = "local"
	SourceDefault = "default"
)

// ErrNotLoaded is returned when neither location produced a document and
// FallbackToDefault is off.
var ErrNotLoaded = errors.New("failed to load configuration from URL and local file")

// LoaderConfig represents configuration loading options
type LoaderConfig struct {
	RemoteURL         string
	LocalPath         string
	Timeout           time.Duration
	MaxRetries        int
	FallbackToDefault bool
}

// DefaultLoaderConfig returns default loader configuration
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		FallbackToDefault: true,
	}
}

// LoadFromURLWithFallback decodes the remote document into target, or the
// local file when the remote is unset or fails. It reports which one was
// used; SourceDefault means target was left untouched.
func LoadFromURLWithFallback(ctx context.Context, config *LoaderConfig, target any) (string, error) {
	var errs []error

	if config.RemoteURL != "" {
		err := loadFromURL(ctx, config, target)
		if err == nil {
			return SourceRemote, nil
		}
		slog.Warn("Remote configuration unavailable", "url", config.RemoteURL, "error", err)
		errs = append(errs, err)
	}

	if config.LocalPath != "" {
		err := loadFromFile(config.LocalPath, target)
		if err == nil {
			return SourceLocal, nil
		}
		errs = append(errs, err)
	}

	if !config.FallbackToDefault && (config.RemoteURL != "" || config.LocalPath != "") {
		return "", errors.Join(append([]error{ErrNotLoaded}, errs...)...)
	}
	return SourceDefault, nil
}

// loadFromURL fetches and decodes a remote document with the shared client.
func loadFromURL(ctx context.Context, config *LoaderConfig, target any) error {
	httpConfig := httputil.DefaultConfig()
	httpConfig.Timeout = config.Timeout
	httpConfig.MaxRetries = config.MaxRetries
	httpConfig.RetryBackoff = 250 * time.Millisecond
	httpConfig.Headers = map[string]string{"Accept": "application/json, application/yaml, text/yaml, */*"}

	body, err := httputil.NewClient(httpConfig).Fetch(ctx, config.RemoteURL)
	if err != nil {
		return fmt.Errorf("failed to fetch config from URL: %w", err)
	}

	if err := decode(config.RemoteURL, []byte(body), target); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// loadFromFile loads configuration from a local file
func loadFromFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return decode(path, data, target)
}

func decode(name string, data []byte, target any) error {
	switch detectFormat(name, data) {
	case "json":
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	return nil
}

// detectFormat picks json or yaml from the extension, then from the content.
func detectFormat(path string, data []byte) string {
	name := path
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "json"
	}
	return "yaml"
}

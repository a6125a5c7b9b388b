package config

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Test configuration structure
type testConfig struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Debug   bool   `json:"debug" yaml:"debug"`
	Timeout int    `json:"timeout" yaml:"timeout"`
}

func TestDefaultLoaderConfig(t *testing.T) {
	config := DefaultLoaderConfig()

	if config.Timeout != 10*time.Second {
		t.Errorf("DefaultLoaderConfig().Timeout = %v, want %v", config.Timeout, 10*time.Second)
	}
	if config.MaxRetries != 3 {
		t.Errorf("DefaultLoaderConfig().MaxRetries = %d, want %d", config.MaxRetries, 3)
	}
	if !config.FallbackToDefault {
		t.Errorf("DefaultLoaderConfig().FallbackToDefault should be true")
	}
	if config.RemoteURL != "" || config.LocalPath != "" {
		t.Errorf("DefaultLoaderConfig() should not name any location")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		data     string
		expected string
	}{
		{"JSON file extension", "config.json", `{"test": true}`, "json"},
		{"YAML file extension", "config.yaml", `test: true`, "yaml"},
		{"YML file extension", "config.yml", `test: true`, "yaml"},
		{"URL with query", "https://example.com/selectors.json?v=2", `test: true`, "json"},
		{"JSON content detection", "config", `{"test": true}`, "json"},
		{"JSON array content detection", "config", `[{"test": true}]`, "json"},
		{"YAML content fallback", "config", `test: true`, "yaml"},
		{"extension wins over content", "config.json", `test: true`, "json"},
		{"whitespace handling", "config", `  {"test": true}  `, "json"},
		{"empty content defaults to YAML", "config", ``, "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.path, []byte(tt.data)); got != tt.expected {
				t.Errorf("detectFormat(%q, %q) = %q, want %q", tt.path, tt.data, got, tt.expected)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		filename    string
		content     string
		expected    testConfig
		errorSubstr string
	}{
		{
			name:     "JSON",
			filename: "config.json",
			content:  `{"name": "test-config", "version": "1.0.0", "debug": true, "timeout": 30}`,
			expected: testConfig{Name: "test-config", Version: "1.0.0", Debug: true, Timeout: 30},
		},
		{
			name:     "YAML",
			filename: "config.yaml",
			content:  "name: test-config-yaml\nversion: 2.0.0\ndebug: false\ntimeout: 60\n",
			expected: testConfig{Name: "test-config-yaml", Version: "2.0.0", Timeout: 60},
		},
		{
			name:        "invalid JSON",
			filename:    "invalid.json",
			content:     `{"name": "test", invalid}`,
			errorSubstr: "failed to parse JSON",
		},
		{
			name:        "invalid YAML",
			filename:    "invalid.yaml",
			content:     "name: test\n  invalid: : yaml",
			errorSubstr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.filename)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			var got testConfig
			err := loadFromFile(path, &got)
			if tt.errorSubstr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errorSubstr) {
					t.Errorf("loadFromFile() error = %v, should contain %q", err, tt.errorSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadFromFile() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("loadFromFile() = %+v, want %+v", got, tt.expected)
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		var got testConfig
		err := loadFromFile(filepath.Join(tempDir, "nonexistent.json"), &got)
		if err == nil || !strings.Contains(err.Error(), "failed to read file") {
			t.Errorf("loadFromFile() error = %v", err)
		}
	})
}

func TestLoadFromURLWithFallback(t *testing.T) {
	localFile := filepath.Join(t.TempDir(), "fallback.yaml")
	if err := os.WriteFile(localFile, []byte("name: local-fallback\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/config.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name": "remote-config", "version": "3.0.0"}`))
		case "/broken.json":
			_, _ = w.Write([]byte(`{invalid json}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(remote.Close)

	tests := []struct {
		name           string
		config         *LoaderConfig
		expectedSource string
		expectedName   string
		wantErr        bool
	}{
		{
			name:           "remote wins",
			config:         &LoaderConfig{RemoteURL: remote.URL + "/config.json", LocalPath: localFile, Timeout: time.Second},
			expectedSource: SourceRemote,
			expectedName:   "remote-config",
		},
		{
			name:           "404 falls back to local",
			config:         &LoaderConfig{RemoteURL: remote.URL + "/missing.json", LocalPath: localFile, Timeout: time.Second},
			expectedSource: SourceLocal,
			expectedName:   "local-fallback",
		},
		{
			name:           "undecodable remote falls back to local",
			config:         &LoaderConfig{RemoteURL: remote.URL + "/broken.json", LocalPath: localFile, Timeout: time.Second},
			expectedSource: SourceLocal,
			expectedName:   "local-fallback",
		},
		{
			name:           "nothing configured",
			config:         DefaultLoaderConfig(),
			expectedSource: SourceDefault,
		},
		{
			name:           "failures tolerated with fallback to default",
			config:         &LoaderConfig{RemoteURL: remote.URL + "/missing.json", Timeout: time.Second, FallbackToDefault: true},
			expectedSource: SourceDefault,
		},
		{
			name:    "failures reported without fallback",
			config:  &LoaderConfig{RemoteURL: remote.URL + "/missing.json", LocalPath: filepath.Join(t.TempDir(), "none.yaml"), Timeout: time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got testConfig
			source, err := LoadFromURLWithFallback(context.Background(), tt.config, &got)
			if tt.wantErr {
				if !errors.Is(err, ErrNotLoaded) {
					t.Errorf("error = %v, expected ErrNotLoaded", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromURLWithFallback() error = %v", err)
			}
			if source != tt.expectedSource || got.Name != tt.expectedName {
				t.Errorf("source = %q, name = %q; expected %q, %q", source, got.Name, tt.expectedSource, tt.expectedName)
			}
		})
	}
}

func TestLoadFromURL_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{"name": "test"}`))
	}))
	t.Cleanup(server.Close)

	var got testConfig
	err := loadFromURL(context.Background(), &LoaderConfig{RemoteURL: server.URL, Timeout: 50 * time.Millisecond}, &got)
	if err == nil || !strings.Contains(err.Error(), "failed to fetch config from URL") {
		t.Errorf("loadFromURL() error = %v, expected a fetch failure", err)
	}
}

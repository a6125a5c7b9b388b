// Package testutil provides golden file helpers. Run the tests with -update
// to rewrite the golden files from the current output.
package testutil

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

var update = flag.Bool("update", false, "update golden files")

// CompareGolden fails t when actual differs from the golden file.
func CompareGolden(t *testing.T, goldenPath string, actual string) {
	t.Helper()

	if *update {
		writeGolden(t, goldenPath, []byte(actual))
		return
	}

	content, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", goldenPath, err)
	}
	if expected := string(content); actual != expected {
		t.Errorf("Golden file mismatch for %s\nExpected:\n%s\nActual:\n%s", goldenPath, expected, actual)
	}
}

// CompareGoldenLines compares rendered lines against a golden JSON array of
// strings, which keeps trailing spaces and column padding visible in diffs.
func CompareGoldenLines(t *testing.T, goldenPath string, actual []string) {
	t.Helper()

	if *update {
		data, err := json.MarshalIndent(actual, "", "  ")
		if err != nil {
			t.Fatalf("Failed to marshal lines: %v", err)
		}
		writeGolden(t, goldenPath, append(data, '\n'))
		return
	}

	content, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", goldenPath, err)
	}
	var expected []string
	if err := json.Unmarshal(content, &expected); err != nil {
		t.Fatalf("Failed to parse JSON from golden file %s: %v", goldenPath, err)
	}
	if !slices.Equal(actual, expected) {
		t.Errorf("Golden file mismatch for %s\nExpected: %q\nActual:   %q", goldenPath, expected, actual)
	}
}

func writeGolden(t *testing.T, goldenPath string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", goldenPath, err)
	}
	if err := os.WriteFile(goldenPath, content, 0o644); err != nil {
		t.Fatalf("Failed to update golden file %s: %v", goldenPath, err)
	}
	t.Logf("Updated golden file: %s", goldenPath)
}

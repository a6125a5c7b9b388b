// Package render writes query results for the CLI.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted values of the --format flag.
var Formats = []string{FormatJSON, FormatYAML}

// Write encodes value to w in format. JSON is indented.
func Write(w io.Writer, format string, value any) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush YAML: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported output format %q (expected one of %s)", format, strings.Join(Formats, ", "))
}

// String is Write into a string, returning the error text on failure.
func String(format string, value any) string {
	var b strings.Builder
	if err := Write(&b, format, value); err != nil {
		return err.Error()
	}
	return b.String()
}

// Package configs provides embedded configuration files for cricket-forge.
package configs

import "embed"

// SelectorsFile is the markup rule table consumed by pkg/extract.
const SelectorsFile = "selectors.yaml"

// EmbeddedConfigs exposes embedded configuration files for read-only access.
//
//go:embed *.yaml
var EmbeddedConfigs embed.FS

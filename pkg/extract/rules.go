package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/cricket-forge/configs"
	"github.com/lepinkainen/cricket-forge/pkg/config"
)

// RuleSet maps a provider name to its ordered markup rules.
type RuleSet map[string][]MarkupRule

// For returns the rules for provider, or nil.
func (rs RuleSet) For(provider string) []MarkupRule {
	return rs[provider]
}

// Validate rejects rules without a container selector.
func (rs RuleSet) Validate() error {
	for provider, rules := range rs {
		for i, rule := range rules {
			if rule.Container == "" {
				return fmt.Errorf("rule %d (%s) for %s has no container selector", i, rule.Name, provider)
			}
		}
	}
	return nil
}

// Merge replaces the rules of every provider named in override.
func (rs RuleSet) Merge(override RuleSet) {
	for provider, rules := range override {
		slog.Debug("Overriding selector rules", "provider", provider, "rules", len(rules))
		rs[provider] = rules
	}
}

// LoadRules decodes a YAML rule table.
func LoadRules(r io.Reader) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.NewDecoder(r).Decode(&rs); err != nil {
		return nil, fmt.Errorf("failed to decode selector rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// DefaultRules returns the rule table embedded in the binary.
func DefaultRules() (RuleSet, error) {
	f, err := configs.EmbeddedConfigs.Open(configs.SelectorsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded selectors: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}

// LoadRulesWithOverride returns the embedded rules with the providers found
// at remoteURL (or, failing that, localPath) replacing their defaults. JSON
// and YAML documents are accepted. With neither location set the defaults
// are returned unchanged.
func LoadRulesWithOverride(ctx context.Context, remoteURL, localPath string) (RuleSet, error) {
	rs, err := DefaultRules()
	if err != nil {
		return nil, err
	}
	if remoteURL == "" && localPath == "" {
		return rs, nil
	}

	loader := config.DefaultLoaderConfig()
	loader.RemoteURL = remoteURL
	loader.LocalPath = localPath
	loader.Timeout = 10 * time.Second
	loader.FallbackToDefault = false

	var override RuleSet
	source, err := config.LoadFromURLWithFallback(ctx, loader, &override)
	if err != nil {
		return nil, fmt.Errorf("failed to load selector overrides: %w", err)
	}
	if err := override.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Loaded selector overrides", "source", source, "providers", len(override))
	rs.Merge(override)
	return rs, nil
}

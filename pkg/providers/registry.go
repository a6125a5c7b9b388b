package providers

import (
	"fmt"
	"log/slog"
)

// RegisterSource registers a source with the default registry, logging duplicates.
func RegisterSource(name string, info *SourceInfo) {
	if err := DefaultRegistry.Register(name, info); err != nil {
		slog.Warn("Failed to register source", "source", name, "error", err)
	} else {
		slog.Debug("Registered source", "source", name, "description", info.Description)
	}
}

// MustRegister registers a source with the default registry and panics on a
// duplicate name. Intended for init functions.
func MustRegister(name string, info *SourceInfo) {
	if err := DefaultRegistry.Register(name, info); err != nil {
		panic(fmt.Sprintf("providers: %v", err))
	}
}

// GetSource gets a source from the default registry.
func GetSource(name string) (*SourceInfo, error) {
	return DefaultRegistry.Get(name)
}

// ListSources lists all sources in the default registry.
func ListSources() []string {
	return DefaultRegistry.List()
}

// ResolveSources creates the named sources from the default registry.
func ResolveSources(names []string, deps Deps) []MatchSource {
	return DefaultRegistry.Resolve(names, deps)
}

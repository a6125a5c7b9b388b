// Package providers is the registry of match sources. Each source lives in its
// own internal package and registers itself from init.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
)

// MatchSource fetches and extracts live match records from one remote site.
// A source returns *cricket.FetchError when the site is unreachable and an
// error wrapping cricket.ErrExtractionEmpty when nothing could be extracted.
type MatchSource interface {
	Name() string
	FetchMatches(ctx context.Context) ([]cricket.MatchRecord, error)
}

// Deps are the collaborators handed to every source factory.
type Deps struct {
	Fetcher  httputil.Fetcher
	JSON     httputil.JSONFetcher
	Rendered httputil.Fetcher // nil disables script-rendered fetches
	Rules    extract.RuleSet
	Now      func() time.Time
	// BaseURLs overrides a source's default origin, keyed by source name.
	BaseURLs map[string]string
}

// BaseURL returns the override for source, or def.
func (d Deps) BaseURL(source, def string) string {
	if u, ok := d.BaseURLs[source]; ok && u != "" {
		return strings.TrimRight(u, "/")
	}
	return def
}

// Clock returns d.Now, or time.Now when unset.
func (d Deps) Clock() func() time.Time {
	if d.Now == nil {
		return time.Now
	}
	return d.Now
}

// SourceFactory creates a source from its dependencies.
type SourceFactory func(deps Deps) (MatchSource, error)

// SourceInfo contains metadata about a source.
type SourceInfo struct {
	Name        string
	Description string
	Factory     SourceFactory
}

// SourceRegistry manages registered match sources.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]*SourceInfo
}

// NewSourceRegistry creates an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		sources: make(map[string]*SourceInfo),
	}
}

// Register adds a source to the registry.
func (r *SourceRegistry) Register(name string, info *SourceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source %s is already registered", name)
	}

	r.sources[name] = info
	return nil
}

// Get retrieves a source by name.
func (r *SourceRegistry) Get(name string) (*SourceInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s not found", name)
	}

	return info, nil
}

// List returns all registered source names in sorted order.
func (r *SourceRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Create builds a new instance of the named source.
func (r *SourceRegistry) Create(name string, deps Deps) (MatchSource, error) {
	info, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	source, err := info.Factory(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create source %s: %w", name, err)
	}
	return source, nil
}

// Resolve creates the named sources in order. Unknown names are logged and
// skipped so a typo in configuration degrades to fewer sources.
func (r *SourceRegistry) Resolve(names []string, deps Deps) []MatchSource {
	sources := make([]MatchSource, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		source, err := r.Create(name, deps)
		if err != nil {
			slog.Warn("Skipping match source", "source", name, "error", err)
			continue
		}
		sources = append(sources, source)
	}
	return sources
}

// DefaultRegistry is the process-wide registry the source packages register into.
var DefaultRegistry = NewSourceRegistry()

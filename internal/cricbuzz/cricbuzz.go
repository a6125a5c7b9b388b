// Package cricbuzz scrapes Cricbuzz: the live-scores page (primary live
// source), the homepage schedule strip (secondary), the series listing and
// individual match pages.
package cricbuzz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
	"github.com/lepinkainen/cricket-forge/pkg/providers"
)

// DefaultBaseURL is the Cricbuzz origin.
const DefaultBaseURL = "https://www.cricbuzz.com"

// Source names as registered with providers.DefaultRegistry.
const (
	LiveSourceName = "cricbuzz-live"
	HomeSourceName = "cricbuzz-home"
)

const (
	livePath = "/cricket-match/live-scores"
	homePath = "/"
)

// Source fetches one Cricbuzz page and runs its extraction chain.
type Source struct {
	name    string
	url     string
	fetcher httputil.Fetcher
	chain   extract.Chain[cricket.MatchRecord]
}

// Name implements providers.MatchSource
func (s *Source) Name() string { return s.name }

// FetchMatches implements providers.MatchSource
func (s *Source) FetchMatches(ctx context.Context) ([]cricket.MatchRecord, error) {
	raw, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, err
	}

	records, err := s.chain.Run(extract.NewDocument(s.url, raw))
	if err != nil {
		return nil, err
	}

	slog.Debug("Extracted matches", "source", s.name, "count", len(records))
	return cricket.Dedup(records), nil
}

// NewLiveSource builds the live-scores source.
func NewLiveSource(deps providers.Deps) (*Source, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("%s: fetcher is required", LiveSourceName)
	}
	now := deps.Clock()
	return &Source{
		name:    LiveSourceName,
		url:     deps.BaseURL(LiveSourceName, DefaultBaseURL) + livePath,
		fetcher: deps.Fetcher,
		chain: extract.NewChain(LiveSourceName,
			extract.StructuredMatches(LiveSourceName, now),
			extract.MarkupMatches(LiveSourceName, deps.Rules.For(LiveSourceName), now),
		),
	}, nil
}

// NewHomeSource builds the homepage schedule source. The homepage ships its
// fixtures inside script payloads, so the free-text rule runs before markup.
func NewHomeSource(deps providers.Deps) (*Source, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("%s: fetcher is required", HomeSourceName)
	}
	now := deps.Clock()
	fixtures := extract.NewTextRule("fixture-mentions", extract.MatchFixturePattern, "cricbuzz")
	return &Source{
		name:    HomeSourceName,
		url:     deps.BaseURL(HomeSourceName, DefaultBaseURL) + homePath,
		fetcher: deps.Fetcher,
		chain: extract.NewChain(HomeSourceName,
			extract.StructuredMatches(HomeSourceName, now),
			extract.TextMatches(HomeSourceName, []extract.TextRule{fixtures}, now),
			extract.MarkupMatches(HomeSourceName, deps.Rules.For(HomeSourceName), now),
		),
	}, nil
}

func init() {
	providers.MustRegister(LiveSourceName, &providers.SourceInfo{
		Name:        LiveSourceName,
		Description: "Cricbuzz live scores page",
		Factory: func(deps providers.Deps) (providers.MatchSource, error) {
			return NewLiveSource(deps)
		},
	})
	providers.MustRegister(HomeSourceName, &providers.SourceInfo{
		Name:        HomeSourceName,
		Description: "Cricbuzz homepage schedule",
		Factory: func(deps providers.Deps) (providers.MatchSource, error) {
			return NewHomeSource(deps)
		},
	})
}

// Client reads the non-live Cricbuzz pages.
type Client struct {
	fetcher httputil.Fetcher
	baseURL string
	now     func() time.Time
}

// NewClient creates a client against baseURL; empty means DefaultBaseURL.
func NewClient(fetcher httputil.Fetcher, baseURL string, now func() time.Time) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if now == nil {
		now = time.Now
	}
	return &Client{fetcher: fetcher, baseURL: baseURL, now: now}
}

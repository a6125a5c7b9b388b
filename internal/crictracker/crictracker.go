// Package crictracker is the heavy live fallback: CricTracker renders its
// scores with JavaScript, so the page is first loaded in a headless browser
// and only then fetched plainly.
package crictracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
	"github.com/lepinkainen/cricket-forge/pkg/providers"
)

// SourceName is the registry name.
const SourceName = "crictracker"

// DefaultBaseURL is the CricTracker origin.
const DefaultBaseURL = "https://www.crictracker.com"

// Source tries the rendered page, then the plain page.
type Source struct {
	url      string
	rendered httputil.Fetcher
	simple   httputil.Fetcher
	chain    extract.Chain[cricket.MatchRecord]
}

// NewSource builds the CricTracker source. deps.Rendered may be nil.
func NewSource(deps providers.Deps) (*Source, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("%s: fetcher is required", SourceName)
	}
	now := deps.Clock()
	fixtures := extract.NewTextRule("fixture-mentions", extract.MatchFixturePattern, SourceName)
	return &Source{
		url:      deps.BaseURL(SourceName, DefaultBaseURL) + "/",
		rendered: deps.Rendered,
		simple:   deps.Fetcher,
		chain: extract.NewChain(SourceName,
			extract.StructuredMatches(SourceName, now),
			extract.MarkupMatches(SourceName, deps.Rules.For(SourceName), now),
			extract.TextMatches(SourceName, []extract.TextRule{fixtures}, now),
		),
	}, nil
}

// Name implements providers.MatchSource
func (s *Source) Name() string { return SourceName }

// FetchMatches implements providers.MatchSource
func (s *Source) FetchMatches(ctx context.Context) ([]cricket.MatchRecord, error) {
	var errs []error

	if s.rendered != nil {
		records, err := s.attempt(ctx, s.rendered)
		if err == nil {
			return records, nil
		}
		slog.Debug("Rendered fetch produced nothing, trying plain fetch", "source", SourceName, "error", err)
		errs = append(errs, err)
	}

	records, err := s.attempt(ctx, s.simple)
	if err == nil {
		return records, nil
	}
	errs = append(errs, err)
	return nil, errors.Join(errs...)
}

func (s *Source) attempt(ctx context.Context, fetcher httputil.Fetcher) ([]cricket.MatchRecord, error) {
	raw, err := fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, err
	}
	records, err := s.chain.Run(extract.NewDocument(s.url, raw))
	if err != nil {
		return nil, err
	}
	return cricket.Dedup(records), nil
}

func init() {
	providers.MustRegister(SourceName, &providers.SourceInfo{
		Name:        SourceName,
		Description: "CricTracker homepage, rendered then plain",
		Factory: func(deps providers.Deps) (providers.MatchSource, error) {
			return NewSource(deps)
		},
	})
}

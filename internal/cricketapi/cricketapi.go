// Package cricketapi is the last live fallback: a public JSON matches API.
package cricketapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
	"github.com/lepinkainen/cricket-forge/pkg/providers"
)

// SourceName is the registry name.
const SourceName = "cricket-api"

// DefaultBaseURL hosts the /api/matches endpoint.
const DefaultBaseURL = "https://cricket-api.vercel.app"

const matchesPath = "/api/matches"

// Source reads the JSON matches API.
type Source struct {
	url     string
	fetcher httputil.JSONFetcher
	now     func() time.Time
}

// NewSource builds the API source.
func NewSource(deps providers.Deps) (*Source, error) {
	if deps.JSON == nil {
		return nil, fmt.Errorf("%s: JSON fetcher is required", SourceName)
	}
	return &Source{
		url:     deps.BaseURL(SourceName, DefaultBaseURL) + matchesPath,
		fetcher: deps.JSON,
		now:     deps.Clock(),
	}, nil
}

// Name implements providers.MatchSource
func (s *Source) Name() string { return SourceName }

// FetchMatches implements providers.MatchSource
func (s *Source) FetchMatches(ctx context.Context) ([]cricket.MatchRecord, error) {
	var raw json.RawMessage
	if err := s.fetcher.FetchJSON(ctx, s.url, &raw); err != nil {
		return nil, err
	}

	var items []apiMatch
	if err := json.Unmarshal(raw, &items); err != nil {
		var env envelope
		if envErr := json.Unmarshal(raw, &env); envErr != nil {
			return nil, fmt.Errorf("%s: failed to decode matches: %w", SourceName, err)
		}
		items = append(env.Data, env.Matches...)
	}

	now := s.now()
	records := make([]cricket.MatchRecord, 0, len(items))
	for i, item := range items {
		if rec, ok := item.toRecord(i, now); ok {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", SourceName, cricket.ErrExtractionEmpty)
	}
	return cricket.Dedup(records), nil
}

func (m apiMatch) toRecord(index int, now time.Time) (cricket.MatchRecord, bool) {
	teams := m.Teams
	if len(teams) == 0 {
		for _, t := range []string{m.Team1, m.Team2} {
			if t != "" {
				teams = append(teams, t)
			}
		}
	}

	name := firstNonEmpty(m.Name, m.Title)
	if name == "" && len(teams) == 2 {
		name = teams[0] + " vs " + teams[1]
	}
	if name == "" {
		return cricket.MatchRecord{}, false
	}

	stamp := now.UTC().Format(time.RFC3339)
	start := normalizeStart(string(m.StartTime))

	matchType, ok := cricket.ParseMatchType(firstNonEmpty(m.Format, m.MatchType))
	if !ok {
		matchType = cricket.DefaultMatchType
	}

	rec := cricket.MatchRecord{
		ID:           firstNonEmpty(string(m.ID), string(m.MatchID), fmt.Sprintf("match-%d-%d", index, now.UnixMilli())),
		Name:         name,
		MatchType:    matchType,
		Status:       firstNonEmpty(m.Status, m.State, cricket.StatusLive),
		Venue:        firstNonEmpty(m.Venue, m.Location),
		Date:         firstNonEmpty(m.Date, start, stamp),
		DateTimeGMT:  firstNonEmpty(m.DateTimeGMT, start, stamp),
		Teams:        teams,
		Score:        m.Score,
		MatchStarted: true,
		Source:       SourceName,
	}
	if rec.Teams == nil {
		rec.Teams = []string{}
	}
	if m.MatchStarted != nil {
		rec.MatchStarted = *m.MatchStarted
	}
	if m.MatchEnded != nil {
		rec.MatchEnded = *m.MatchEnded
	}
	return rec, true
}

func msToRFC3339(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func init() {
	providers.MustRegister(SourceName, &providers.SourceInfo{
		Name:        SourceName,
		Description: "Public JSON matches API",
		Factory: func(deps providers.Deps) (providers.MatchSource, error) {
			return NewSource(deps)
		},
	})
}

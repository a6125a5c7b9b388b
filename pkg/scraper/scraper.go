// Package scraper answers cricket data queries from the cache, or from the
// remote sources in priority order when the cache cannot.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cache"
	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/providers"
)

// SeriesFetcher lists the current series.
type SeriesFetcher interface {
	Series(ctx context.Context) ([]cricket.SeriesRecord, error)
}

// MatchDetailsFetcher reads one match page.
type MatchDetailsFetcher interface {
	MatchDetails(ctx context.Context, id string) (*cricket.MatchRecord, error)
}

// PlayerFetcher reads a player biography.
type PlayerFetcher interface {
	Player(ctx context.Context, name string) (*cricket.PlayerInfo, error)
}

// TeamFetcher reads a team and its squad. On error the returned TeamInfo
// still identifies the team.
type TeamFetcher interface {
	Team(ctx context.Context, name string) (cricket.TeamInfo, error)
}

// RosterWriter persists scrape-all results.
type RosterWriter interface {
	UpsertTeam(ctx context.Context, team cricket.TeamInfo) (int64, error)
	UpsertPlayer(ctx context.Context, teamID int64, player cricket.PlayerInfo, inPlaying11 bool) (int64, error)
}

// Config wires a Service. Live sources are all consulted and merged;
// Fallback sources are tried in order only when the live ones yield nothing.
type Config struct {
	Live     []providers.MatchSource
	Fallback []providers.MatchSource

	Series  SeriesFetcher
	Details MatchDetailsFetcher
	Players PlayerFetcher
	Teams   TeamFetcher

	Store cache.Store
	TTL   cache.TTLPolicy

	Roster      RosterWriter
	ScrapeTeams []string
	TeamDelay   time.Duration
	PlayerDelay time.Duration

	Metrics *Metrics
}

// Service is the fallback orchestrator.
type Service struct {
	cfg Config
}

// New creates a Service. A zero TTL policy is replaced with the defaults.
func New(cfg Config) *Service {
	if cfg.TTL == (cache.TTLPolicy{}) {
		cfg.TTL = cache.DefaultTTLPolicy()
	}
	return &Service{cfg: cfg}
}

// GetLiveMatches returns the current matches. The cache is consulted unless
// forceRefresh is set. Every live source is merged; the fallback sources are
// tried only when that yields nothing. Empty results are returned but never
// cached, and the source failures are logged as one entry.
func (s *Service) GetLiveMatches(ctx context.Context, forceRefresh bool) []cricket.MatchRecord {
	key := cache.LiveMatchesKey
	if !forceRefresh {
		if records, ok := readCache[[]cricket.MatchRecord](ctx, s, key); ok {
			slog.Debug("Using cached live matches", "count", len(records))
			return records
		}
	}

	var merger cricket.Merger
	var failures []string

	for _, source := range s.cfg.Live {
		records, err := s.fetchSource(ctx, source)
		if err != nil {
			failures = append(failures, source.Name()+": "+err.Error())
			continue
		}
		added := merger.AddAll(records)
		slog.Debug("Merged source records", "source", source.Name(), "records", len(records), "new", added)
	}

	if merger.Len() == 0 {
		for _, source := range s.cfg.Fallback {
			records, err := s.fetchSource(ctx, source)
			if err != nil {
				failures = append(failures, source.Name()+": "+err.Error())
				continue
			}
			merger.AddAll(records)
			slog.Info("Live matches served by fallback source", "source", source.Name(), "records", len(records))
			break
		}
	}

	records := merger.Records()
	s.cfg.Metrics.setLive(len(records))
	if len(records) == 0 {
		slog.Warn("No live matches from any source", "failures", failures)
		return records
	}
	if len(failures) > 0 {
		slog.Debug("Some live sources failed", "failures", failures)
	}

	writeCache(ctx, s, key, records)
	return records
}

// fetchSource runs one source and reports an empty result as an error.
func (s *Service) fetchSource(ctx context.Context, source providers.MatchSource) ([]cricket.MatchRecord, error) {
	start := time.Now()
	records, err := source.FetchMatches(ctx)
	duration := time.Since(start)

	switch {
	case err != nil:
		outcome := "error"
		if errors.Is(err, cricket.ErrExtractionEmpty) {
			outcome = "empty"
		}
		s.cfg.Metrics.recordFetch(source.Name(), outcome, duration)
		slog.Debug("Source failed", "source", source.Name(), "error", err, "duration", duration)
		return nil, err
	case len(records) == 0:
		s.cfg.Metrics.recordFetch(source.Name(), "empty", duration)
		return nil, cricket.ErrExtractionEmpty
	}

	s.cfg.Metrics.recordFetch(source.Name(), "ok", duration)
	return records, nil
}

// readCache decodes the cached value for key. Read and decode failures are
// logged and reported as a miss.
func readCache[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var zero T
	if s.cfg.Store == nil {
		return zero, false
	}

	raw, found, err := s.cfg.Store.Get(ctx, key)
	if err != nil {
		s.cfg.Metrics.recordLookup(key, "error")
		var readErr *cricket.CacheReadError
		if !errors.As(err, &readErr) {
			readErr = &cricket.CacheReadError{Key: key, Err: err}
		}
		slog.Warn("Cache read failed, treating as miss", "error", readErr)
		return zero, false
	}
	if !found {
		s.cfg.Metrics.recordLookup(key, "miss")
		return zero, false
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		s.cfg.Metrics.recordLookup(key, "error")
		slog.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return zero, false
	}
	s.cfg.Metrics.recordLookup(key, "hit")
	return value, true
}

// writeCache stores value under key with the policy TTL. Failures are logged
// and never reach the caller.
func writeCache(ctx context.Context, s *Service, key string, value any) {
	if s.cfg.Store == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Failed to encode cache value", "key", key, "error", err)
		return
	}

	ttl := s.cfg.TTL.For(key)
	if err := s.cfg.Store.Set(ctx, key, string(payload), ttl); err != nil {
		s.cfg.Metrics.recordWrite(key, false)
		var writeErr *cricket.CacheWriteError
		if !errors.As(err, &writeErr) {
			writeErr = &cricket.CacheWriteError{Key: key, Err: err}
		}
		slog.Warn("Cache write failed", "error", writeErr)
		return
	}
	s.cfg.Metrics.recordWrite(key, true)
	slog.Debug("Cached value", "key", key, "ttl", ttl)
}

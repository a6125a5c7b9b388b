package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lepinkainen/cricket-forge/pkg/cache"
	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// GetSeries returns the series listing from offset onwards. Each offset is
// cached separately for the series TTL. Failures yield an empty slice.
func (s *Service) GetSeries(ctx context.Context, offset int) []cricket.SeriesRecord {
	offset = max(offset, 0)
	key := cache.SeriesKey(offset)

	if series, ok := readCache[[]cricket.SeriesRecord](ctx, s, key); ok {
		return series
	}
	if s.cfg.Series == nil {
		return []cricket.SeriesRecord{}
	}

	all, err := s.cfg.Series.Series(ctx)
	if err != nil {
		slog.Warn("Failed to fetch series", "offset", offset, "error", err)
		return []cricket.SeriesRecord{}
	}
	if offset >= len(all) {
		return []cricket.SeriesRecord{}
	}

	page := all[offset:]
	writeCache(ctx, s, key, page)
	return page
}

// GetMatchDetails returns one match, or nil when it cannot be fetched.
func (s *Service) GetMatchDetails(ctx context.Context, id string) *cricket.MatchRecord {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	key := cache.MatchKey(id)

	if match, ok := readCache[cricket.MatchRecord](ctx, s, key); ok {
		return &match
	}
	if s.cfg.Details == nil {
		return nil
	}

	match, err := s.cfg.Details.MatchDetails(ctx, id)
	if err != nil || match == nil {
		slog.Warn("Failed to fetch match details", "id", id, "error", err)
		return nil
	}

	writeCache(ctx, s, key, match)
	return match
}

// FindMatch resolves a match id from the live listing first, since live
// records may carry generated ids, then from the match details page.
func (s *Service) FindMatch(ctx context.Context, id string) *cricket.MatchRecord {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	for _, m := range s.GetLiveMatches(ctx, false) {
		if m.ID == id {
			return &m
		}
	}
	return s.GetMatchDetails(ctx, id)
}

// GetPlayerInfo returns a player's biography, or nil when it cannot be found.
func (s *Service) GetPlayerInfo(ctx context.Context, name string) *cricket.PlayerInfo {
	player, err := s.playerInfo(ctx, name)
	if err != nil {
		slog.Warn("Failed to fetch player info", "player", name, "error", err)
		return nil
	}
	return player
}

// GetTeamInfo returns a team and its squad. When the squad cannot be fetched
// the team is returned with an empty player list.
func (s *Service) GetTeamInfo(ctx context.Context, name string) cricket.TeamInfo {
	team, err := s.teamInfo(ctx, name)
	if err != nil {
		slog.Warn("Failed to fetch team info", "team", name, "error", err)
	}
	return team
}

func (s *Service) playerInfo(ctx context.Context, name string) (*cricket.PlayerInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errEmptyName
	}
	key := cache.PlayerKey(name)

	if player, ok := readCache[cricket.PlayerInfo](ctx, s, key); ok {
		return &player, nil
	}
	if s.cfg.Players == nil {
		return nil, errNoFetcher
	}

	player, err := s.cfg.Players.Player(ctx, name)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, cricket.ErrExtractionEmpty
	}

	writeCache(ctx, s, key, player)
	return player, nil
}

func (s *Service) teamInfo(ctx context.Context, name string) (cricket.TeamInfo, error) {
	name = strings.TrimSpace(name)
	fallback := cricket.TeamInfo{Name: name, Country: name, Players: []string{}}
	if name == "" {
		return fallback, errEmptyName
	}
	key := cache.TeamKey(name)

	if team, ok := readCache[cricket.TeamInfo](ctx, s, key); ok {
		return team, nil
	}
	if s.cfg.Teams == nil {
		return fallback, errNoFetcher
	}

	team, err := s.cfg.Teams.Team(ctx, name)
	if team.Name == "" {
		team.Name, team.Country = fallback.Name, fallback.Country
	}
	if team.Players == nil {
		team.Players = []string{}
	}
	if err != nil {
		return team, err
	}
	if len(team.Players) == 0 {
		return team, cricket.ErrExtractionEmpty
	}

	writeCache(ctx, s, key, team)
	return team, nil
}

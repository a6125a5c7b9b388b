// Package cache defines the scrape cache contract, its TTL policy and the
// Redis backend. The SQLite backend lives in pkg/database.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is a keyed TTL cache for serialized payloads. Get reports found=false
// for missing and expired keys; Set replaces any existing value.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Well-known keys.
const (
	LiveMatchesKey = "live_matches"
)

// SeriesKey is the key for one page of the series listing.
func SeriesKey(offset int) string {
	return fmt.Sprintf("series_offset_%d", offset)
}

// MatchKey is the key for a single match's details.
func MatchKey(id string) string {
	return "match_" + id
}

// PlayerKey is the key for a player biography.
func PlayerKey(name string) string {
	return "player_" + name
}

// TeamKey is the key for a team roster.
func TeamKey(name string) string {
	return "team_" + name
}

// TTLPolicy maps cache keys to lifetimes.
type TTLPolicy struct {
	Live    time.Duration
	Series  time.Duration
	Default time.Duration
}

// DefaultTTLPolicy returns 60s for live data, 7 days for series and 15 minutes otherwise.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Live:    60 * time.Second,
		Series:  7 * 24 * time.Hour,
		Default: 15 * time.Minute,
	}
}

// For returns the TTL for key.
func (p TTLPolicy) For(key string) time.Duration {
	switch {
	case strings.Contains(key, LiveMatchesKey), strings.HasPrefix(key, "match_"):
		return p.Live
	case strings.HasPrefix(key, "series_"):
		return p.Series
	default:
		return p.Default
	}
}

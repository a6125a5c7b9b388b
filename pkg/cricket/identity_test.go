package cricket

import (
	"errors"
	"fmt"
	"testing"
)

func TestPairKey(t *testing.T) {
	tests := []struct {
		name     string
		teams    []string
		expected string
	}{
		{"ordered", []string{"India", "Australia"}, "australia|india"},
		{"reversed", []string{"Australia", "India"}, "australia|india"},
		{"whitespace and case", []string{"  South   AFRICA ", "india"}, "india|south africa"},
		{"single team", []string{"India"}, ""},
		{"empty name", []string{"India", "  "}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PairKey(tt.teams); got != tt.expected {
				t.Errorf("PairKey(%v) = %q, expected %q", tt.teams, got, tt.expected)
			}
		})
	}
}

func TestSameMatch(t *testing.T) {
	tests := []struct {
		name     string
		a, b     MatchRecord
		expected bool
	}{
		{
			name:     "reversed team order",
			a:        MatchRecord{Teams: []string{"India", "Australia"}},
			b:        MatchRecord{Teams: []string{"Australia", "India"}},
			expected: true,
		},
		{
			name:     "same pair same day",
			a:        MatchRecord{Teams: []string{"India", "Australia"}, DateTimeGMT: "2026-10-19T09:00:00Z"},
			b:        MatchRecord{Teams: []string{"australia", "india"}, DateTimeGMT: "2026-10-19T14:30:00Z"},
			expected: true,
		},
		{
			name:     "same pair different day",
			a:        MatchRecord{Teams: []string{"India", "Australia"}, DateTimeGMT: "2026-10-19T09:00:00Z"},
			b:        MatchRecord{Teams: []string{"India", "Australia"}, DateTimeGMT: "2026-10-22T09:00:00Z"},
			expected: false,
		},
		{
			name:     "unknown date matches any",
			a:        MatchRecord{Teams: []string{"India", "Australia"}},
			b:        MatchRecord{Teams: []string{"India", "Australia"}, DateTimeGMT: "2026-10-22T09:00:00Z"},
			expected: true,
		},
		{
			name:     "different pair",
			a:        MatchRecord{Teams: []string{"India", "Australia"}},
			b:        MatchRecord{Teams: []string{"England", "Pakistan"}},
			expected: false,
		},
		{
			name:     "name fallback",
			a:        MatchRecord{Name: "India vs Australia"},
			b:        MatchRecord{Name: "india  vs australia"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameMatch(tt.a, tt.b); got != tt.expected {
				t.Errorf("SameMatch() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestMerger_DedupAcrossSources(t *testing.T) {
	m := NewMerger()
	m.Add(MatchRecord{ID: "1", Teams: []string{"India", "Australia"}, Status: "Live", Source: "cricbuzz-live"})
	added := m.Add(MatchRecord{ID: "2", Teams: []string{"Australia", "India"}, Status: "Upcoming", Venue: "Perth", Source: "cricbuzz-home"})

	if added {
		t.Errorf("Add() of a reversed pair should not add a new record")
	}
	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("Records() len = %d, expected 1", len(records))
	}

	got := records[0]
	if got.ID != "1" || got.Status != "Live" || got.Source != "cricbuzz-live" {
		t.Errorf("first-seen fields overwritten: %+v", got)
	}
	if got.Venue != "Perth" {
		t.Errorf("Venue = %q, expected empty field filled from later record", got.Venue)
	}
}

func TestDedup_PreservesOrder(t *testing.T) {
	in := []MatchRecord{
		{ID: "a", Teams: []string{"India", "Australia"}},
		{ID: "b", Teams: []string{"England", "Pakistan"}},
		{ID: "c", Teams: []string{"Australia", "India"}},
		{ID: "d", Teams: []string{"South Africa", "England"}},
	}

	out := Dedup(in)
	var ids []string
	for _, r := range out {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[a b d]" {
		t.Errorf("Dedup() ids = %v, expected [a b d]", ids)
	}
}

func TestMerger_RecordsNeverNil(t *testing.T) {
	if NewMerger().Records() == nil {
		t.Errorf("Records() on empty merger returned nil")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("primary source: %w", &FetchError{Source: "cricbuzz-live", URL: "https://x", Err: cause})

	if !IsFetchError(wrapped) {
		t.Errorf("IsFetchError() = false for wrapped FetchError")
	}
	if !errors.Is(wrapped, cause) {
		t.Errorf("errors.Is() should reach the underlying cause")
	}
	if IsFetchError(ErrExtractionEmpty) {
		t.Errorf("IsFetchError() = true for ErrExtractionEmpty")
	}

	statusErr := &FetchError{Source: "s", URL: "u", StatusCode: 503}
	if statusErr.Error() != "fetch s (u): HTTP 503" {
		t.Errorf("Error() = %q", statusErr.Error())
	}

	var cw error = &CacheWriteError{Key: "live_matches", Err: cause}
	if !errors.Is(cw, cause) {
		t.Errorf("CacheWriteError should unwrap to its cause")
	}
}

func TestParseMatchType(t *testing.T) {
	tests := []struct {
		in       string
		expected MatchType
		ok       bool
	}{
		{"test", Test, true},
		{" ODI ", ODI, true},
		{"T20", T20I, true},
		{"t20i", T20I, true},
		{"The Hundred", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseMatchType(tt.in)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ParseMatchType(%q) = %v, %v, expected %v, %v", tt.in, got, ok, tt.expected, tt.ok)
		}
	}
}

package preview

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/testutil"
)

var testMatches = []cricket.MatchRecord{
	{
		ID:          "cricbuzz-112233",
		Name:        "India vs Australia",
		MatchType:   cricket.ODI,
		Status:      cricket.StatusLive,
		Venue:       "Adelaide Oval",
		DateTimeGMT: "2026-10-19T03:30:00Z",
		Teams:       []string{"India", "Australia"},
		Score:       []cricket.Score{{Runs: 245, Wickets: 6, Overs: 48.3, Inning: "IND"}},
		Source:      "cricbuzz-live",
	},
	{
		ID:        "cricbuzz-bangladesh-ireland-1792396800000",
		Name:      "Bangladesh vs Ireland",
		MatchType: cricket.T20I,
		Status:    cricket.StatusToday,
		MatchTime: "Today • 6:30 PM",
		Teams:     []string{"Bangladesh", "Ireland"},
	},
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestFormatCompactListItem(t *testing.T) {
	tests := []struct {
		index    int
		match    cricket.MatchRecord
		expected string
	}{
		{0, testMatches[0], " 1. [ODI ] Live         India vs Australia"},
		{1, testMatches[1], " 2. [T20I] Today        Bangladesh vs Ireland  Today • 6:30 PM"},
		{9, cricket.MatchRecord{Name: "A vs B", MatchType: cricket.Test, Status: "Stumps - Day 2: England lead"}, "10. [Test] Stumps - Da… A vs B"},
	}

	for _, tt := range tests {
		t.Run(tt.match.Name, func(t *testing.T) {
			if got := FormatCompactListItem(tt.index, tt.match); got != tt.expected {
				t.Errorf("FormatCompactListItem() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestFormatCompactListItem_Golden(t *testing.T) {
	lines := make([]string, 0, len(testMatches))
	for i, m := range testMatches {
		lines = append(lines, FormatCompactListItem(i, m))
	}
	testutil.CompareGoldenLines(t, "testdata/list.golden", lines)
}

func TestFormatDetailedItem(t *testing.T) {
	got := FormatDetailedItem(testMatches[0])
	for _, want := range []string{
		"Match: India vs Australia",
		"Format: ODI | Status: Live",
		"Venue: Adelaide Oval",
		"Starts: Mon 19 Oct 2026 03:30 UTC",
		"Score: IND 245/6 (48.3)",
		"Source: cricbuzz-live",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("detail view missing %q:\n%s", want, got)
		}
	}
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel(testMatches, "", nil)

	m = press(t, m, "down", "down")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, expected it to stop at the last match", m.cursor)
	}

	m = press(t, m, "enter")
	if m.viewMode != DetailViewMode || !strings.Contains(m.View(), "Bangladesh vs Ireland") {
		t.Fatalf("enter did not open the detail view: %s", m.View())
	}

	m = press(t, m, "v")
	if m.viewMode != RawViewMode || !strings.Contains(m.View(), "matchType: T20I") {
		t.Errorf("raw view = %s", m.View())
	}

	m = press(t, m, "esc")
	if m.viewMode != ListViewMode {
		t.Errorf("esc did not return to the list")
	}
}

func TestModel_Refresh(t *testing.T) {
	calls := 0
	refresh := func() []cricket.MatchRecord {
		calls++
		return testMatches[:1]
	}

	m := NewModel(testMatches, "json", refresh)
	m.cursor = 1

	next, cmd := m.Update(key("r"))
	m = next.(Model)
	if cmd == nil || !m.refreshing {
		t.Fatal("r did not start a refresh")
	}

	next, _ = m.Update(cmd())
	m = next.(Model)
	if calls != 1 || len(m.matches) != 1 || m.refreshing || m.cursor != 0 {
		t.Errorf("after refresh: calls = %d, matches = %d, cursor = %d", calls, len(m.matches), m.cursor)
	}
}

func TestModel_EmptyList(t *testing.T) {
	m := press(t, NewModel(nil, "", nil), "enter")
	if m.viewMode != ListViewMode {
		t.Error("enter on an empty list changed the view")
	}
	if !strings.Contains(m.View(), "No matches available") {
		t.Errorf("View() = %s", m.View())
	}
}

// Package preview provides an interactive live-match browser using Bubble Tea.
package preview

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// FormatScore renders score lines as "IND 245/6 (48.3)".
func FormatScore(scores []cricket.Score) string {
	parts := make([]string, 0, len(scores))
	for _, s := range scores {
		line := fmt.Sprintf("%d/%d (%g)", s.Runs, s.Wickets, s.Overs)
		if s.Inning != "" {
			line = s.Inning + " " + line
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " • ")
}

// FormatCompactListItem formats a match as one list line.
// Example: " 1. [ODI ] Live         India vs Australia"
func FormatCompactListItem(index int, m cricket.MatchRecord) string {
	name := m.Name
	const maxNameLength = 60
	if len(name) > maxNameLength {
		name = name[:maxNameLength-3] + "..."
	}

	status := m.Status
	const maxStatusLength = 12
	if len(status) > maxStatusLength {
		status = status[:maxStatusLength-1] + "…"
	}

	line := fmt.Sprintf("%2d. [%-4s] %-12s %s", index+1, m.MatchType, status, name)
	if m.MatchTime != "" {
		line += "  " + m.MatchTime
	}
	return line
}

// FormatDetailedItem formats a match with all known fields.
func FormatDetailedItem(m cricket.MatchRecord) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	b.WriteString(fmt.Sprintf("Match: %s\n", m.Name))
	b.WriteString(fmt.Sprintf("ID: %s\n", m.ID))
	b.WriteString(fmt.Sprintf("Format: %s | Status: %s\n", m.MatchType, m.Status))

	if m.Venue != "" {
		b.WriteString(fmt.Sprintf("Venue: %s\n", m.Venue))
	}
	if start := m.StartTime(); !start.IsZero() {
		b.WriteString(fmt.Sprintf("Starts: %s\n", start.Format("Mon 2 Jan 2006 15:04 MST")))
	}
	if m.MatchTime != "" {
		b.WriteString(fmt.Sprintf("Time: %s\n", m.MatchTime))
	}
	if len(m.Score) > 0 {
		b.WriteString(fmt.Sprintf("Score: %s\n", FormatScore(m.Score)))
	}
	if m.Result != "" {
		b.WriteString(fmt.Sprintf("Result: %s\n", m.Result))
	}
	if m.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", m.Source))
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

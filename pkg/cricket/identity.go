package cricket

import (
	"sort"
	"strings"
)

// NormalizeTeam lower-cases a team name and collapses internal whitespace.
func NormalizeTeam(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// PairKey returns the order-insensitive key for the first two teams, or "" if
// fewer than two non-empty names are present.
func PairKey(teams []string) string {
	if len(teams) < 2 {
		return ""
	}
	a, b := NormalizeTeam(teams[0]), NormalizeTeam(teams[1])
	if a == "" || b == "" {
		return ""
	}
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

// identity is the reconciliation key for a match across sources: the team
// pair plus the UTC calendar date when one is known.
type identity struct {
	pair string
	date string
}

func identityOf(m MatchRecord) identity {
	id := identity{pair: PairKey(m.Teams)}
	if id.pair == "" {
		id.pair = "name:" + strings.ReplaceAll(NormalizeTeam(m.Name), " ", "")
	}
	if t := m.StartTime(); !t.IsZero() {
		id.date = t.UTC().Format("2006-01-02")
	}
	return id
}

// SameMatch reports whether two records describe the same real-world match.
// An unknown date on either side matches any date.
func SameMatch(a, b MatchRecord) bool {
	ia, ib := identityOf(a), identityOf(b)
	if ia.pair != ib.pair {
		return false
	}
	return ia.date == "" || ib.date == "" || ia.date == ib.date
}

// Merger accumulates match records from several sources in arrival order.
// Duplicates are folded into the first-seen record.
type Merger struct {
	records []MatchRecord
}

// NewMerger returns an empty merger.
func NewMerger() *Merger {
	return &Merger{}
}

// Add merges rec and reports whether it was a new match.
func (m *Merger) Add(rec MatchRecord) bool {
	for i := range m.records {
		if SameMatch(m.records[i], rec) {
			fillEmpty(&m.records[i], rec)
			return false
		}
	}
	m.records = append(m.records, rec)
	return true
}

// AddAll merges recs and returns how many new matches were added.
func (m *Merger) AddAll(recs []MatchRecord) int {
	added := 0
	for _, rec := range recs {
		if m.Add(rec) {
			added++
		}
	}
	return added
}

// Len returns the number of distinct matches.
func (m *Merger) Len() int {
	return len(m.records)
}

// Records returns the merged records. The slice is never nil.
func (m *Merger) Records() []MatchRecord {
	out := make([]MatchRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Dedup collapses duplicates within a single slice, keeping first-seen order.
func Dedup(recs []MatchRecord) []MatchRecord {
	m := NewMerger()
	m.AddAll(recs)
	return m.Records()
}

// fillEmpty copies fields from src only where dst has nothing.
func fillEmpty(dst *MatchRecord, src MatchRecord) {
	if dst.ID == "" {
		dst.ID = src.ID
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.MatchType == "" {
		dst.MatchType = src.MatchType
	}
	if dst.Status == "" {
		dst.Status = src.Status
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Date == "" {
		dst.Date = src.Date
	}
	if dst.DateTimeGMT == "" {
		dst.DateTimeGMT = src.DateTimeGMT
	}
	if len(dst.Teams) < 2 && len(src.Teams) >= 2 {
		dst.Teams = src.Teams
	}
	if len(dst.Score) == 0 {
		dst.Score = src.Score
	}
	if dst.Result == "" {
		dst.Result = src.Result
	}
	if dst.MatchTime == "" {
		dst.MatchTime = src.MatchTime
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
}

// Package cricket holds the domain records produced by the scrapers and the
// error taxonomy shared by fetchers, extractors and the orchestrator.
package cricket

import (
	"strings"
	"time"
)

// MatchType is the normalized match format.
type MatchType string

// Supported match formats. ODI is the fallback when nothing better is found.
const (
	Test MatchType = "Test"
	ODI  MatchType = "ODI"
	T20I MatchType = "T20I"
)

// DefaultMatchType is used when the format cannot be inferred from the page.
const DefaultMatchType = ODI

// Status labels assigned by the extractors.
const (
	StatusLive      = "Live"
	StatusToday     = "Today"
	StatusUpcoming  = "Upcoming"
	StatusPreview   = "Preview"
	StatusCompleted = "Completed"
)

// Score is a single innings score line.
type Score struct {
	Runs    int     `json:"r" yaml:"r"`
	Wickets int     `json:"w" yaml:"w"`
	Overs   float64 `json:"o" yaml:"o"`
	Inning  string  `json:"inning" yaml:"inning"`
}

// MatchRecord describes one match as seen by a single source.
type MatchRecord struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	MatchType    MatchType `json:"matchType" yaml:"matchType"`
	Status       string    `json:"status" yaml:"status"`
	Venue        string    `json:"venue" yaml:"venue"`
	Date         string    `json:"date" yaml:"date"`
	DateTimeGMT  string    `json:"dateTimeGMT" yaml:"dateTimeGMT"`
	Teams        []string  `json:"teams" yaml:"teams"`
	Score        []Score   `json:"score,omitempty" yaml:"score,omitempty"`
	MatchStarted bool      `json:"matchStarted" yaml:"matchStarted"`
	MatchEnded   bool      `json:"matchEnded" yaml:"matchEnded"`
	Result       string    `json:"result,omitempty" yaml:"result,omitempty"`
	MatchTime    string    `json:"matchTime,omitempty" yaml:"matchTime,omitempty"`
	Source       string    `json:"source,omitempty" yaml:"source,omitempty"`
}

// StartTime parses DateTimeGMT. The zero time is returned when it is unset or
// not RFC 3339.
func (m MatchRecord) StartTime() time.Time {
	t, err := time.Parse(time.RFC3339, m.DateTimeGMT)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SeriesRecord is a series listing entry.
type SeriesRecord struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	StartDate string `json:"startDate" yaml:"startDate"`
	EndDate   string `json:"endDate" yaml:"endDate"`
	ODI       int    `json:"odi" yaml:"odi"`
	T20       int    `json:"t20" yaml:"t20"`
	Test      int    `json:"test" yaml:"test"`
	Squads    int    `json:"squads" yaml:"squads"`
	Matches   int    `json:"matches" yaml:"matches"`
}

// FormatStats holds career numbers for a single format.
type FormatStats struct {
	Matches        int     `json:"matches" yaml:"matches"`
	Runs           int     `json:"runs" yaml:"runs"`
	Wickets        int     `json:"wickets" yaml:"wickets"`
	BattingAverage float64 `json:"battingAverage" yaml:"battingAverage"`
	BowlingAverage float64 `json:"bowlingAverage" yaml:"bowlingAverage"`
	StrikeRate     float64 `json:"strikeRate" yaml:"strikeRate"`
	Economy        float64 `json:"economy" yaml:"economy"`
	HighestScore   string  `json:"highestScore" yaml:"highestScore"`
	BestBowling    string  `json:"bestBowling" yaml:"bestBowling"`
	Centuries      int     `json:"centuries" yaml:"centuries"`
	HalfCenturies  int     `json:"halfCenturies" yaml:"halfCenturies"`
	FiveWickets    int     `json:"fiveWickets" yaml:"fiveWickets"`
}

// PlayerInfo is a player biography with per-format statistics.
type PlayerInfo struct {
	Name         string                    `json:"name" yaml:"name"`
	FullName     string                    `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Role         string                    `json:"role" yaml:"role"`
	BattingStyle string                    `json:"battingStyle" yaml:"battingStyle"`
	BowlingStyle string                    `json:"bowlingStyle" yaml:"bowlingStyle"`
	DateOfBirth  string                    `json:"dateOfBirth" yaml:"dateOfBirth"`
	PlaceOfBirth string                    `json:"placeOfBirth" yaml:"placeOfBirth"`
	ImageURL     string                    `json:"imageUrl" yaml:"imageUrl"`
	WikipediaURL string                    `json:"wikipediaUrl" yaml:"wikipediaUrl"`
	Stats        map[MatchType]FormatStats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// TeamInfo is a national side and its current squad.
type TeamInfo struct {
	Name         string   `json:"name" yaml:"name"`
	Country      string   `json:"country" yaml:"country"`
	Flag         string   `json:"flag" yaml:"flag"`
	WikipediaURL string   `json:"wikipediaUrl,omitempty" yaml:"wikipediaUrl,omitempty"`
	Players      []string `json:"players" yaml:"players"`
}

// Prediction is a model-generated outcome guess for a match.
type Prediction struct {
	MatchID     string `json:"matchId" yaml:"matchId"`
	Winner      string `json:"winner" yaml:"winner"`
	Probability int    `json:"probability" yaml:"probability"`
	Reasoning   string `json:"reasoning" yaml:"reasoning"`
	Mock        bool   `json:"mock,omitempty" yaml:"mock,omitempty"`
}

// ParseMatchType maps loose format text to a MatchType.
func ParseMatchType(s string) (MatchType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TEST":
		return Test, true
	case "ODI":
		return ODI, true
	case "T20I", "T20":
		return T20I, true
	}
	return "", false
}

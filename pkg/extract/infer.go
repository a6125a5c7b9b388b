package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/urlutils"
)

// exclusionVocabulary marks editorial content that mentions two teams but is
// not a fixture. "prediction" also covers "predictions".
var exclusionVocabulary = []string{
	"prediction",
	"preview article",
	"news",
	"analysis",
	"report",
}

// IsExcluded reports whether text reads like an article rather than a match.
func IsExcluded(text string) bool {
	return containsAny(strings.ToLower(text), exclusionVocabulary...)
}

var (
	formatPattern = regexp.MustCompile(`(?i)(\d+)(?:st|nd|rd|th)?\s*(T20I|ODI|Test)\b`)
	testWord      = regexp.MustCompile(`(?i)\btests?\b`)
	t20Word       = regexp.MustCompile(`(?i)\bt20`)
)

// InferFormat derives the match format from descriptive text, defaulting to ODI.
func InferFormat(text string) cricket.MatchType {
	if m := formatPattern.FindStringSubmatch(text); m != nil {
		if mt, ok := cricket.ParseMatchType(m[2]); ok {
			return mt
		}
	}
	switch {
	case testWord.MatchString(text):
		return cricket.Test
	case t20Word.MatchString(text):
		return cricket.T20I
	}
	return cricket.DefaultMatchType
}

// Schedule labels.
const (
	LabelToday = "Today"
	LabelNext  = "Next"
)

// Schedule is a start time found near a match mention.
type Schedule struct {
	Label     string    // LabelToday or LabelNext
	MatchTime string    // e.g. "Today • 6:30 PM"
	Start     time.Time // UTC
}

var (
	gmtSchedulePattern    = regexp.MustCompile(`(?i)\b(Today|Tomorrow|(?:Mon|Tue|Tues|Wed|Wednes|Thu|Thur|Thurs|Fri|Sat|Satur|Sun)(?:day)?)\b[^"]*?(\d{1,2}):(\d{2})\s*(AM|PM)[^"]*?GMT`)
	bulletSchedulePattern = regexp.MustCompile(`(?i)\b(Today|Tomorrow|Next)\s*[•·]\s*(\d{1,2}):(\d{2})\s*(AM|PM)`)
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseSchedule looks for a "<day> ... h:mm AM/PM ... GMT" or "<day> • h:mm AM/PM"
// pattern in window. Times are read as GMT relative to now.
func ParseSchedule(window string, now time.Time) (Schedule, bool) {
	m := gmtSchedulePattern.FindStringSubmatch(window)
	if m == nil {
		m = bulletSchedulePattern.FindStringSubmatch(window)
	}
	if m == nil {
		return Schedule{}, false
	}

	day := strings.ToLower(m[1])
	hour, _ := strconv.Atoi(m[2])
	minute, _ := strconv.Atoi(m[3])
	ampm := strings.ToUpper(m[4])
	if hour > 12 || minute > 59 {
		return Schedule{}, false
	}
	if ampm == "PM" && hour != 12 {
		hour += 12
	} else if ampm == "AM" && hour == 12 {
		hour = 0
	}

	now = now.UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	label := LabelNext
	switch day {
	case "today":
		label = LabelToday
	case "tomorrow":
		date = date.AddDate(0, 0, 1)
	case "next":
	default:
		if wd, ok := weekdays[day[:3]]; ok {
			ahead := (int(wd) - int(now.Weekday()) + 7) % 7
			date = date.AddDate(0, 0, ahead)
		}
	}

	clock := fmt.Sprintf("%s:%s %s", m[2], m[3], ampm)
	return Schedule{
		Label:     label,
		MatchTime: fmt.Sprintf("%s • %s", titleWord(m[1]), clock),
		Start:     date,
	}, true
}

// StatusFor derives a status label from descriptive text and a schedule label.
func StatusFor(description, label string) string {
	switch {
	case strings.Contains(strings.ToLower(description), "live"):
		return cricket.StatusLive
	case label == LabelToday:
		return cricket.StatusToday
	case label == LabelNext:
		return cricket.StatusUpcoming
	}
	return cricket.StatusPreview
}

// Progress reads started/ended flags from free status text such as
// "India won by 6 wickets" or "Match starts at 09:30 GMT".
func Progress(status string) (started, ended bool) {
	s := strings.ToLower(status)
	ended = containsAny(s, "complete", "finished", "result", "won", "draw", "abandon", "tied")
	if ended {
		return true, true
	}
	notStarted := containsAny(s, "upcoming", "scheduled", "starts at", "preview", "yet to begin", "toss at")
	return !notStarted, false
}

var scorePattern = regexp.MustCompile(`(\d+)[/-](\d+)(?:\s*\((\d+(?:\.\d+)?)(?:\s*ov(?:ers)?)?\))?`)

// ParseScores reads every "runs/wickets (overs)" score in text. inning labels
// the scores; a second score in the same text is numbered.
func ParseScores(inning, text string) []cricket.Score {
	var scores []cricket.Score
	for i, m := range scorePattern.FindAllStringSubmatch(text, -1) {
		runs, _ := strconv.Atoi(m[1])
		wickets, _ := strconv.Atoi(m[2])
		if wickets > 10 {
			continue
		}
		var overs float64
		if m[3] != "" {
			overs, _ = strconv.ParseFloat(m[3], 64)
		}
		label := inning
		if i > 0 {
			label = fmt.Sprintf("%s Inning %d", inning, i+1)
		}
		scores = append(scores, cricket.Score{Runs: runs, Wickets: wickets, Overs: overs, Inning: label})
	}
	return scores
}

var resultPattern = regexp.MustCompile(`(?i)[^.\n]*\b(won by|beat|defeated)\b[^.\n]*?\b\d+\s+(runs?|wickets?|innings)\b[^.\n]*`)

// ParseResult returns the sentence announcing the result, or "".
func ParseResult(text string) string {
	return strings.TrimSpace(resultPattern.FindString(text))
}

var teamSplitPattern = regexp.MustCompile(`(?i)\s+(?:vs\.?|v)\s+`)

// SplitTeams splits "India vs Australia, 2nd ODI" into its two team names.
// Trailing match descriptions after a comma, colon or dash are dropped.
func SplitTeams(title string) []string {
	parts := teamSplitPattern.Split(CleanText(title), 2)
	if len(parts) != 2 {
		return nil
	}
	first := strings.TrimSpace(parts[0])
	second := parts[1]
	if i := strings.IndexAny(second, ",:|("); i >= 0 {
		second = second[:i]
	}
	if i := strings.Index(second, " - "); i >= 0 {
		second = second[:i]
	}
	second = strings.TrimSpace(second)
	if !validTeamName(first) || !validTeamName(second) {
		return nil
	}
	return []string{first, second}
}

func validTeamName(name string) bool {
	return len(name) >= 3 && len(name) <= 60 && !strings.ContainsAny(name, "{}")
}

// GenerateID builds a provider-qualified id from the team pair and the clock.
func GenerateID(prefix string, teams []string, now time.Time) string {
	parts := []string{prefix}
	for _, t := range teams {
		parts = append(parts, urlutils.Slug(t))
	}
	parts = append(parts, strconv.FormatInt(now.UnixMilli(), 10))
	return strings.Join(parts, "-")
}

// VenueFromInfo takes the venue part of "2nd ODI • Sydney, SCG".
func VenueFromInfo(info string) string {
	for _, sep := range []string{"•", "·"} {
		if _, after, ok := strings.Cut(info, sep); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

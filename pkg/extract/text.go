package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// MaxTextMatches caps how many records a free-text rule may produce.
const MaxTextMatches = 20

// scheduleWindow is how far around a mention ParseSchedule looks.
const scheduleWindow = 1000

// leadWindow is how much text before a mention counts as its headline.
const leadWindow = 80

// TextRule is a regular expression over the raw page with named groups
// "team1", "team2" and optionally "desc" (the text after the team pair).
type TextRule struct {
	Name     string
	Pattern  *regexp.Regexp
	IDPrefix string
}

// MatchFixturePattern matches "Bangladesh vs Ireland, 2nd T20I" style
// mentions, including those inside JSON strings.
var MatchFixturePattern = regexp.MustCompile(`(?P<team1>[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+vs\s+(?P<team2>[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s*[,:]\s*(?P<desc>[^"\\<\n]+)`)

// NewTextRule compiles pattern into a rule. It panics when a required group is
// missing, as rule tables are static.
func NewTextRule(name string, pattern *regexp.Regexp, idPrefix string) TextRule {
	for _, group := range []string{"team1", "team2"} {
		if pattern.SubexpIndex(group) < 0 {
			panic(fmt.Sprintf("text rule %s: missing group %q", name, group))
		}
	}
	return TextRule{Name: name, Pattern: pattern, IDPrefix: idPrefix}
}

// Apply scans raw and builds one record per distinct team pair.
func (r TextRule) Apply(raw, source string, now time.Time) []cricket.MatchRecord {
	t1, t2, desc := r.Pattern.SubexpIndex("team1"), r.Pattern.SubexpIndex("team2"), r.Pattern.SubexpIndex("desc")

	seen := make(map[string]bool)
	var records []cricket.MatchRecord
	for _, loc := range r.Pattern.FindAllStringSubmatchIndex(raw, -1) {
		group := func(i int) string {
			if i < 0 || loc[2*i] < 0 {
				return ""
			}
			return strings.TrimSpace(raw[loc[2*i]:loc[2*i+1]])
		}

		team1, team2, description := group(t1), group(t2), group(desc)
		if !validTeamName(team1) || !validTeamName(team2) {
			continue
		}
		span := raw[loc[0]:loc[1]]
		if IsExcluded(description) || IsExcluded(team1) || IsExcluded(team2) ||
			IsExcluded(span) || IsExcluded(leadText(raw, loc[0])) {
			continue
		}

		teams := []string{team1, team2}
		key := cricket.PairKey(teams)
		if seen[key] {
			continue
		}
		seen[key] = true

		start := max(0, loc[1]-scheduleWindow)
		end := min(len(raw), loc[1]+scheduleWindow)
		schedule, hasSchedule := ParseSchedule(raw[start:end], now)

		status := StatusFor(description, schedule.Label)
		rec := cricket.MatchRecord{
			ID:           GenerateID(r.IDPrefix, teams, now),
			Name:         team1 + " vs " + team2,
			MatchType:    InferFormat(description),
			Status:       status,
			Teams:        teams,
			MatchStarted: status == cricket.StatusLive || status == cricket.StatusToday,
			Source:       source,
		}
		if hasSchedule {
			rec.MatchTime = schedule.MatchTime
			rec.DateTimeGMT = schedule.Start.Format(time.RFC3339)
			rec.Date = rec.DateTimeGMT
		}
		records = append(records, rec)

		if len(records) >= MaxTextMatches {
			break
		}
	}
	return records
}

// leadText returns the text just before offset, cut at the nearest string,
// tag or line boundary so neighbouring items do not leak in.
func leadText(raw string, offset int) string {
	lead := raw[max(0, offset-leadWindow):offset]
	if i := strings.LastIndexAny(lead, "\"<>\n"); i >= 0 {
		lead = lead[i+1:]
	}
	return lead
}

// TextMatches runs rules over the raw page and returns the first non-empty result.
func TextMatches(source string, rules []TextRule, now func() time.Time) Strategy[cricket.MatchRecord] {
	return StrategyFunc[cricket.MatchRecord]{
		Label: "free-text",
		Fn: func(doc *Document) ([]cricket.MatchRecord, error) {
			for _, rule := range rules {
				if records := rule.Apply(doc.Raw, source, now()); len(records) > 0 {
					return records, nil
				}
			}
			return nil, nil
		},
	}
}

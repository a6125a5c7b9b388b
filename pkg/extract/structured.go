package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// StructuredMatches reads matches from JSON embedded in the page: schema.org
// SportsEvent blobs in ld+json scripts and Next.js style page data carrying
// matchInfo objects.
func StructuredMatches(source string, now func() time.Time) Strategy[cricket.MatchRecord] {
	return StrategyFunc[cricket.MatchRecord]{
		Label: "structured-data",
		Fn: func(doc *Document) ([]cricket.MatchRecord, error) {
			dom, err := doc.DOM()
			if err != nil {
				return nil, err
			}

			var merger cricket.Merger
			dom.Find(`script[type="application/ld+json"], script#__NEXT_DATA__, script[type="application/json"]`).Each(func(_ int, s *goquery.Selection) {
				var payload any
				if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &payload); err != nil {
					return
				}
				walkJSON(payload, func(obj map[string]any) {
					if rec, ok := sportsEvent(obj, source, now()); ok {
						merger.Add(rec)
					} else if rec, ok := matchInfo(obj, source); ok {
						merger.Add(rec)
					}
				})
			})
			return merger.Records(), nil
		},
	}
}

// walkJSON calls fn for every object in the decoded JSON tree.
func walkJSON(v any, fn func(map[string]any)) {
	switch t := v.(type) {
	case map[string]any:
		fn(t)
		for _, child := range t {
			walkJSON(child, fn)
		}
	case []any:
		for _, child := range t {
			walkJSON(child, fn)
		}
	}
}

func sportsEvent(obj map[string]any, source string, now time.Time) (cricket.MatchRecord, bool) {
	if !strings.Contains(str(obj["@type"]), "SportsEvent") {
		return cricket.MatchRecord{}, false
	}

	name := str(obj["name"])
	if IsExcluded(name) {
		return cricket.MatchRecord{}, false
	}

	var teams []string
	if competitors, ok := obj["competitor"].([]any); ok {
		for _, c := range competitors {
			if cm, ok := c.(map[string]any); ok && str(cm["name"]) != "" {
				teams = append(teams, str(cm["name"]))
			}
		}
	}
	if len(teams) < 2 {
		teams = SplitTeams(name)
	}
	if len(teams) < 2 {
		return cricket.MatchRecord{}, false
	}

	venue := str(obj["location"])
	if loc, ok := obj["location"].(map[string]any); ok {
		venue = str(loc["name"])
	}

	start := normalizeTime(str(obj["startDate"]))
	description := name + " " + str(obj["description"])
	status := eventStatus(str(obj["eventStatus"]))
	if status == "" {
		status = StatusFor(description, "")
	}
	started, ended := Progress(status)
	if status == cricket.StatusLive {
		started = true
	}

	id := str(obj["identifier"])
	if id == "" {
		id = GenerateID(source, teams[:2], now)
	}

	return cricket.MatchRecord{
		ID:           id,
		Name:         teams[0] + " vs " + teams[1],
		MatchType:    InferFormat(description),
		Status:       status,
		Venue:        venue,
		Date:         start,
		DateTimeGMT:  start,
		Teams:        teams[:2],
		MatchStarted: started,
		MatchEnded:   ended,
		Source:       source,
	}, true
}

// eventStatus maps schema.org EventStatusType values to status labels.
func eventStatus(s string) string {
	switch {
	case s == "":
		return ""
	case strings.HasSuffix(s, "EventScheduled"):
		return cricket.StatusUpcoming
	case strings.HasSuffix(s, "EventCompleted"):
		return cricket.StatusCompleted
	case strings.HasSuffix(s, "EventInProgress"), strings.HasSuffix(s, "EventLive"):
		return cricket.StatusLive
	}
	return ""
}

// matchInfo reads the {"matchInfo": {...}} shape used by Cricbuzz page data.
func matchInfo(obj map[string]any, source string) (cricket.MatchRecord, bool) {
	info, ok := obj["matchInfo"].(map[string]any)
	if !ok {
		return cricket.MatchRecord{}, false
	}
	t1, t2 := teamName(info["team1"]), teamName(info["team2"])
	if !validTeamName(t1) || !validTeamName(t2) {
		return cricket.MatchRecord{}, false
	}

	desc := str(info["matchDesc"])
	format := str(info["matchFormat"])
	mt, ok := cricket.ParseMatchType(format)
	if !ok {
		mt = InferFormat(desc + " " + format)
	}

	var venue string
	if v, ok := info["venueInfo"].(map[string]any); ok {
		venue = strings.Trim(strings.Join([]string{str(v["ground"]), str(v["city"])}, ", "), ", ")
	}

	start := normalizeTime(str(info["startDate"]))
	state := str(info["state"])
	status := str(info["status"])
	if status == "" {
		status = state
	}
	started, ended := Progress(state + " " + status)

	id := str(info["matchId"])
	if id == "" {
		return cricket.MatchRecord{}, false
	}

	rec := cricket.MatchRecord{
		ID:           id,
		Name:         t1 + " vs " + t2,
		MatchType:    mt,
		Status:       status,
		Venue:        venue,
		Date:         start,
		DateTimeGMT:  start,
		Teams:        []string{t1, t2},
		MatchStarted: started,
		MatchEnded:   ended,
		Result:       ParseResult(status),
		Source:       source,
	}
	if strings.EqualFold(state, "in progress") || strings.EqualFold(state, "live") {
		rec.MatchStarted = true
	}
	return rec, true
}

func teamName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if n := str(t["teamName"]); n != "" {
			return n
		}
		return str(t["name"])
	}
	return ""
}

// normalizeTime converts unix milliseconds or RFC 3339 text to RFC 3339 UTC.
// Anything else is returned unchanged.
func normalizeTime(s string) string {
	if s == "" {
		return ""
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC().Format(time.RFC3339)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}

// str renders a decoded JSON scalar as text.
func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		if len(t) > 0 {
			return str(t[0])
		}
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

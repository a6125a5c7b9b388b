package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/urlutils"
)

// MarkupRule describes where match fields live in a page. Field selectors are
// evaluated inside each container:
//
//	""          the container itself
//	"child:N"   the container's Nth child element
//	"last:SEL"  the last element matching SEL
//	"SEL"       the first element matching SEL
type MarkupRule struct {
	Name      string `json:"name" yaml:"name"`
	Container string `json:"container" yaml:"container"`
	Link      string `json:"link" yaml:"link"`         // element whose href identifies the match
	Title     string `json:"title" yaml:"title"`       // "Team A vs Team B" text
	Info      string `json:"info" yaml:"info"`         // format and venue line
	Status    string `json:"status" yaml:"status"`     // free status text
	Schedule  string `json:"schedule" yaml:"schedule"` // "Today • 6:30 PM" text
	// Rows selects one element per team. Team and Score are evaluated inside
	// each row; the first Team selector yielding text wins.
	Rows          string   `json:"rows" yaml:"rows"`
	Team          []string `json:"team" yaml:"team"`
	Score         string   `json:"score" yaml:"score"`
	DefaultStatus string   `json:"default_status" yaml:"default_status"`
	IDPrefix      string   `json:"id_prefix" yaml:"id_prefix"`
	Limit         int      `json:"limit" yaml:"limit"`
}

// Apply evaluates the rule against dom. Containers that do not yield two
// teams, or that read like articles, are skipped.
func (r MarkupRule) Apply(dom *goquery.Document, source string, now time.Time) []cricket.MatchRecord {
	var records []cricket.MatchRecord

	dom.Find(r.Container).EachWithBreak(func(index int, el *goquery.Selection) bool {
		if rec, ok := r.build(index, el, source, now); ok {
			records = append(records, rec)
		}
		return r.Limit <= 0 || len(records) < r.Limit
	})
	return records
}

func (r MarkupRule) build(index int, el *goquery.Selection, source string, now time.Time) (cricket.MatchRecord, bool) {
	// Without a title selector a row-based card has no title; a plain card
	// uses its own text.
	var title string
	if r.Title != "" || r.Rows == "" {
		title = textOf(el, r.Title)
	}
	if IsExcluded(title) {
		return cricket.MatchRecord{}, false
	}

	var teams []string
	var scores []cricket.Score
	if r.Rows != "" {
		el.Find(r.Rows).Each(func(_ int, row *goquery.Selection) {
			name := r.rowTeam(row)
			if name == "" {
				return
			}
			teams = append(teams, name)
			if r.Score != "" {
				scores = append(scores, ParseScores(name, textOf(row, r.Score))...)
			}
		})
	}
	if len(teams) < 2 {
		teams = SplitTeams(title)
	}
	if len(teams) < 2 {
		return cricket.MatchRecord{}, false
	}
	teams = teams[:2]

	var info string
	if r.Info != "" {
		info = textOf(el, r.Info)
	}
	description := CleanText(info + " " + title)
	containerText := CleanText(el.Text())

	rec := cricket.MatchRecord{
		Name:      teams[0] + " vs " + teams[1],
		MatchType: InferFormat(description),
		Venue:     VenueFromInfo(info),
		Teams:     teams,
		Score:     scores,
		Source:    source,
	}

	scheduleText := containerText
	if r.Schedule != "" {
		scheduleText = textOf(el, r.Schedule)
	}
	schedule, hasSchedule := ParseSchedule(scheduleText, now)
	if hasSchedule {
		rec.MatchTime = schedule.MatchTime
		rec.DateTimeGMT = schedule.Start.Format(time.RFC3339)
		rec.Date = rec.DateTimeGMT
	}

	status := ""
	if r.Status != "" {
		status = textOf(el, r.Status)
	}
	switch {
	case status != "":
		rec.Status = status
		rec.MatchStarted, rec.MatchEnded = Progress(status)
		rec.Result = ParseResult(status)
	case r.DefaultStatus != "" && !hasSchedule:
		rec.Status = r.DefaultStatus
		rec.MatchStarted, rec.MatchEnded = Progress(r.DefaultStatus)
	default:
		rec.Status = StatusFor(description, schedule.Label)
		rec.MatchStarted = rec.Status == cricket.StatusLive || rec.Status == cricket.StatusToday
	}

	rec.ID = r.matchID(el, index, teams, now)
	return rec, true
}

func (r MarkupRule) rowTeam(row *goquery.Selection) string {
	sels := r.Team
	if len(sels) == 0 {
		sels = []string{"child:0"}
	}
	for _, sel := range sels {
		if name := textOf(row, sel); validTeamName(name) {
			return name
		}
	}
	return ""
}

func (r MarkupRule) matchID(el *goquery.Selection, index int, teams []string, now time.Time) string {
	link := pick(el, r.Link)
	href, _ := link.Attr("href")
	if seg := urlutils.LastPathSegment(href); seg != "" {
		if r.IDPrefix != "" {
			return r.IDPrefix + "-" + seg
		}
		return seg
	}
	if id, ok := el.Attr("data-match-id"); ok && id != "" {
		return id
	}
	prefix := r.IDPrefix
	if prefix == "" {
		prefix = "match-" + strconv.Itoa(index)
	}
	return GenerateID(prefix, teams, now)
}

// pick resolves a field selector relative to el.
func pick(el *goquery.Selection, sel string) *goquery.Selection {
	switch {
	case sel == "":
		return el
	case strings.HasPrefix(sel, "child:"):
		n, err := strconv.Atoi(strings.TrimPrefix(sel, "child:"))
		if err != nil {
			return el.Children().First()
		}
		return el.Children().Eq(n)
	case strings.HasPrefix(sel, "last:"):
		return el.Find(strings.TrimPrefix(sel, "last:")).Last()
	}
	return el.Find(sel).First()
}

func textOf(el *goquery.Selection, sel string) string {
	return CleanText(pick(el, sel).Text())
}

// MarkupMatches runs rules in order and returns the records of the first rule
// that produces any.
func MarkupMatches(source string, rules []MarkupRule, now func() time.Time) Strategy[cricket.MatchRecord] {
	return StrategyFunc[cricket.MatchRecord]{
		Label: "markup",
		Fn: func(doc *Document) ([]cricket.MatchRecord, error) {
			dom, err := doc.DOM()
			if err != nil {
				return nil, err
			}
			for _, rule := range rules {
				if records := rule.Apply(dom, source, now()); len(records) > 0 {
					return cricket.Dedup(records), nil
				}
			}
			return nil, nil
		},
	}
}

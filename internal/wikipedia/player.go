package wikipedia

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
	"github.com/lepinkainen/cricket-forge/pkg/urlutils"
)

// Player looks the name up through Wikipedia search and parses the first
// hit, falling back to the article with the player's name as title.
func (c *Client) Player(ctx context.Context, name string) (*cricket.PlayerInfo, error) {
	searchURL := c.baseURL + "/wiki/Special:Search/" + urlutils.WikiTitle(name)
	articleURL := c.articleURL(urlutils.WikiTitle(name))

	var article *goquery.Document
	search, err := c.page(ctx, searchURL)
	if err == nil {
		if href, ok := search.Find(".mw-search-result-heading a").First().Attr("href"); ok && href != "" {
			if resolved, rerr := urlutils.ResolveURL(c.baseURL+"/", href); rerr == nil {
				articleURL = resolved
			}
		} else if search.Find(".infobox").Length() > 0 {
			// Exact title matches redirect straight to the article.
			article = search
		}
	}

	if article == nil {
		article, err = c.page(ctx, articleURL)
		if err != nil {
			return nil, err
		}
	}

	info := ParsePlayer(article)
	info.Name = name
	info.WikipediaURL = articleURL
	return &info, nil
}

var (
	dobPattern   = regexp.MustCompile(`(\d{1,2})\s+([A-Z][a-z]+)\s+(\d{4})`)
	agePattern   = regexp.MustCompile(`\(\s*(?:aged?\s+\d+|\d{4}-\d{2}-\d{2})\s*\)`)
	parenPattern = regexp.MustCompile(`\(([^)]+)\)`)
)

// ParsePlayer reads the biography fields and career statistics of a player
// article. Name and WikipediaURL are left to the caller.
func ParsePlayer(dom *goquery.Document) cricket.PlayerInfo {
	var info cricket.PlayerInfo
	infobox := dom.Find(".infobox").First()

	fields := make(map[string]string)
	infobox.Find("tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(extract.CleanText(row.Find("th").First().Text()))
		if label == "" {
			return
		}
		if _, dup := fields[label]; !dup {
			fields[label] = extract.CleanText(row.Find("td").First().Text())
		}
	})

	info.FullName = fields["full name"]
	if info.FullName == "" {
		info.FullName = extract.CleanText(infobox.Find(".fn, .nickname").First().Text())
	}
	info.Role = fields["role"]
	info.BattingStyle = fields["batting"]
	info.BowlingStyle = fields["bowling"]

	if src, ok := infobox.Find("img").First().Attr("src"); ok {
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		if urlutils.IsValidURL(src) {
			info.ImageURL = src
		}
	}

	if born := fields["born"]; born != "" {
		// Hidden ISO dates precede the visible one; drop them first.
		visible := agePattern.ReplaceAllString(born, " ")
		info.DateOfBirth, info.PlaceOfBirth = parseBorn(visible)
	}

	info.Stats = ParseCareerStats(dom)
	return info
}

// parseBorn splits "5 November 1988 Delhi, India" into an ISO date and the
// place. A place in parentheses is used when nothing follows the date.
func parseBorn(text string) (dob, place string) {
	text = extract.CleanText(text)
	loc := dobPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		if m := parenPattern.FindStringSubmatch(text); m != nil {
			place = strings.TrimSpace(m[1])
		}
		return "", place
	}

	if t, err := time.Parse("2 January 2006", text[loc[0]:loc[1]]); err == nil {
		dob = t.Format("2006-01-02")
	}

	rest := strings.Trim(text[loc[1]:], " ,;")
	if m := parenPattern.FindStringSubmatch(rest); m != nil && strings.HasPrefix(rest, "(") {
		place = strings.TrimSpace(m[1])
	} else {
		place = rest
	}
	return dob, place
}

// ParseCareerStats reads the first table whose header names formats (Test,
// ODI, T20I), either in the infobox or under a statistics heading. It
// returns nil when no such table exists.
func ParseCareerStats(dom *goquery.Document) map[cricket.MatchType]cricket.FormatStats {
	tables := dom.Find(".infobox table, .infobox").AddSelection(statisticsTables(dom))

	var result map[cricket.MatchType]cricket.FormatStats
	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		result = statsFromTable(table)
		return len(result) == 0
	})
	return result
}

func statisticsTables(dom *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	dom.Find("h2, h3").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(heading.Text()), "statistics") {
			return true
		}
		anchor := heading
		if heading.Parent().HasClass("mw-heading") {
			anchor = heading.Parent()
		}
		found = anchor.NextAllFiltered("table").First()
		return found.Length() == 0
	})
	return found
}

func statsFromTable(table *goquery.Selection) map[cricket.MatchType]cricket.FormatStats {
	columns := make(map[int]cricket.MatchType)
	stats := make(map[cricket.MatchType]cricket.FormatStats)

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Children().Filter("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, extract.CleanText(cell.Text()))
		})
		if len(cells) < 2 {
			return
		}

		if len(columns) == 0 {
			for i, cell := range cells[1:] {
				if format, ok := formatHeader(cell); ok {
					columns[i+1] = format
				}
			}
			return
		}

		label := strings.ToLower(cells[0])
		for i, format := range columns {
			if i >= len(cells) {
				continue
			}
			s := stats[format]
			applyStat(&s, label, cells[i])
			stats[format] = s
		}
	})

	if len(columns) == 0 {
		return nil
	}
	return stats
}

func formatHeader(cell string) (cricket.MatchType, bool) {
	c := strings.ToLower(cell)
	switch {
	case strings.Contains(c, "test"):
		return cricket.Test, true
	case strings.Contains(c, "odi"):
		return cricket.ODI, true
	case strings.Contains(c, "t20"):
		return cricket.T20I, true
	}
	return "", false
}

func applyStat(s *cricket.FormatStats, label, value string) {
	switch {
	case strings.Contains(label, "matches"):
		s.Matches = atoi(value)
	case strings.Contains(label, "100s/50s"):
		if hundreds, fifties, ok := strings.Cut(value, "/"); ok {
			s.Centuries, s.HalfCenturies = atoi(hundreds), atoi(fifties)
		}
	case strings.Contains(label, "100s"), strings.Contains(label, "centuries"):
		s.Centuries = atoi(value)
	case strings.Contains(label, "50s"), strings.Contains(label, "fifties"):
		s.HalfCenturies = atoi(value)
	case strings.Contains(label, "batting average"):
		s.BattingAverage = atof(value)
	case strings.Contains(label, "bowling average"):
		s.BowlingAverage = atof(value)
	case strings.Contains(label, "5 wicket"):
		s.FiveWickets = atoi(value)
	case strings.Contains(label, "10 wicket"):
	case strings.Contains(label, "best bowling"):
		s.BestBowling = value
	case strings.Contains(label, "top score"), strings.Contains(label, "high") && strings.Contains(label, "score"):
		s.HighestScore = value
	case strings.Contains(label, "wickets"):
		s.Wickets = atoi(value)
	case strings.Contains(label, "runs"):
		s.Runs = atoi(value)
	case strings.Contains(label, "strike rate"):
		s.StrikeRate = atof(value)
	case strings.Contains(label, "economy"):
		s.Economy = atof(value)
	}
}

var leadingNumber = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(leadingNumber.FindString(s), ",", ""))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(leadingNumber.FindString(s), ",", ""), 64)
	return f
}

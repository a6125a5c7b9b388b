package wikipedia

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
)

// squadSiblings is how many elements after a squad heading are searched.
const squadSiblings = 20

var nonPlayerFragments = []string{
	"board of control",
	"cricket in",
	"cricket association",
	"cricket board",
	"national cricket",
	"cricket team",
	"cricket council",
	"international cricket",
	"edit",
	"category:",
	"template:",
	"file:",
	"help:",
	"special:",
	"wikipedia:",
	"portal:",
	"talk:",
	"user:",
}

var allDigits = regexp.MustCompile(`^\d+$`)

// IsPlayerName reports whether a link text and target look like a person
// rather than an organization, namespace page or footnote.
func IsPlayerName(name, href string) bool {
	if len(name) <= 2 || len(name) >= 50 {
		return false
	}
	if strings.ContainsAny(name, "[]") || allDigits.MatchString(name) {
		return false
	}
	if len(strings.Fields(name)) > 4 {
		return false
	}
	lowerName, lowerHref := strings.ToLower(name), strings.ToLower(href)
	for _, fragment := range nonPlayerFragments {
		if strings.Contains(lowerName, fragment) || strings.Contains(lowerHref, fragment) {
			return false
		}
	}
	return true
}

// Team fetches a team article and reads its current squad. On failure the
// returned TeamInfo still carries the name, country and flag.
func (c *Client) Team(ctx context.Context, name string) (cricket.TeamInfo, error) {
	pageURL := c.articleURL(TeamArticle(name))
	team := cricket.TeamInfo{
		Name:         name,
		Country:      name,
		Flag:         Flag(name),
		WikipediaURL: pageURL,
		Players:      []string{},
	}

	dom, err := c.page(ctx, pageURL)
	if err != nil {
		return team, err
	}
	team.Players = ParseSquad(dom)
	return team, nil
}

// ParseSquad collects up to MaxSquadSize player names from squad sections,
// the infobox and player tables, in that order.
func ParseSquad(dom *goquery.Document) []string {
	var players []string
	seen := make(map[string]bool)
	add := func(_ int, link *goquery.Selection) bool {
		name := extract.CleanText(link.Text())
		href, _ := link.Attr("href")
		if IsPlayerName(name, href) && !seen[name] {
			seen[name] = true
			players = append(players, name)
		}
		return len(players) < MaxSquadSize
	}

	dom.Find("h2, h3").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		text := strings.ToLower(heading.Text())
		if !strings.Contains(text, "squad") && !strings.Contains(text, "current") && !strings.Contains(text, "players") {
			return true
		}
		// Headings are wrapped in a div on current skins.
		anchor := heading
		if heading.Parent().HasClass("mw-heading") {
			anchor = heading.Parent()
		}
		for el, n := anchor.Next(), 0; el.Length() > 0 && n < squadSiblings; el, n = el.Next(), n+1 {
			el.Find(`a[href*="/wiki/"]`).EachWithBreak(add)
			if len(players) >= MaxSquadSize {
				return false
			}
		}
		return true
	})

	if len(players) < MaxSquadSize {
		dom.Find(`.infobox a[href*="/wiki/"]`).EachWithBreak(add)
	}

	if len(players) < MaxSquadSize {
		dom.Find("table.wikitable").EachWithBreak(func(_ int, table *goquery.Selection) bool {
			text := strings.ToLower(table.Text())
			if strings.Contains(text, "player") || strings.Contains(text, "name") {
				table.Find("td:first-child a, th:first-child a").EachWithBreak(add)
			}
			return len(players) < MaxSquadSize
		})
	}

	if players == nil {
		return []string{}
	}
	return players
}

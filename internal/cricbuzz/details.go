package cricbuzz

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
)

const detailsPath = "/live-cricket-scores/"

// MatchDetails scrapes the scorecard page of one match. The returned record
// keeps the requested id even when the page carries its own.
func (c *Client) MatchDetails(ctx context.Context, id string) (*cricket.MatchRecord, error) {
	pageURL := c.baseURL + detailsPath + url.PathEscape(id)
	raw, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc := extract.NewDocument(pageURL, raw)
	chain := extract.NewChain(LiveSourceName+" match",
		extract.StructuredMatches(LiveSourceName, c.now),
		matchHeader(c.now),
	)
	records, err := chain.Run(doc)
	if err != nil {
		return nil, err
	}

	rec := records[0]
	rec.ID = id
	return &rec, nil
}

// matchHeader reads the scorecard header: title, live status line and venue.
func matchHeader(now func() time.Time) extract.Strategy[cricket.MatchRecord] {
	return extract.StrategyFunc[cricket.MatchRecord]{
		Label: "match-header",
		Fn: func(doc *extract.Document) ([]cricket.MatchRecord, error) {
			dom, err := doc.DOM()
			if err != nil {
				return nil, err
			}

			title := extract.CleanText(dom.Find(".cb-nav-main .cb-nav-hdr").First().Text())
			if title == "" {
				title = extract.CleanText(dom.Find("h1").First().Text())
			}
			if title == "" {
				return nil, nil
			}

			status := extract.CleanText(dom.Find(".cb-text-live, .cb-text-complete, .cb-text-inprogress").First().Text())
			if status == "" {
				status = cricket.StatusLive
			}
			started, ended := extract.Progress(status)
			stamp := now().UTC().Format(time.RFC3339)

			rec := cricket.MatchRecord{
				Name:         title,
				MatchType:    extract.InferFormat(title),
				Status:       status,
				Venue:        extract.CleanText(dom.Find(".cb-venue").First().Text()),
				Date:         stamp,
				DateTimeGMT:  stamp,
				Teams:        extract.SplitTeams(title),
				MatchStarted: started,
				MatchEnded:   ended,
				Result:       extract.ParseResult(status),
				Source:       LiveSourceName,
			}
			if len(rec.Teams) == 2 {
				rec.Name = fmt.Sprintf("%s vs %s", rec.Teams[0], rec.Teams[1])
			} else {
				rec.Teams = []string{}
			}
			return []cricket.MatchRecord{rec}, nil
		},
	}
}

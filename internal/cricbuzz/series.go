package cricbuzz

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
)

const seriesPath = "/cricket-series"

var (
	// "Oct 19 - Nov 05" or "Oct 19, 2026 - Nov 05, 2026"
	seriesRangePattern = regexp.MustCompile(`([A-Z][a-z]{2})\s+(\d{1,2})(?:,\s*(\d{4}))?\s*-\s*([A-Z][a-z]{2})\s+(\d{1,2})(?:,\s*(\d{4}))?`)
	seriesCountPattern = regexp.MustCompile(`(?i)(\d+)\s*(tests?|odis?|t20is?|t20s?)\b`)
	leadingNumber      = regexp.MustCompile(`\d+`)
	seriesIDPattern    = regexp.MustCompile(`/cricket-series/(\d+)`)
)

// Series scrapes the series listing in page order.
func (c *Client) Series(ctx context.Context) ([]cricket.SeriesRecord, error) {
	pageURL := c.baseURL + seriesPath
	raw, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	dom, err := extract.NewDocument(pageURL, raw).DOM()
	if err != nil {
		return nil, err
	}

	now := c.now()
	series := seriesFromWells(dom, now)
	if len(series) == 0 {
		series = seriesFromLinks(dom, now)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%s series: %w", LiveSourceName, cricket.ErrExtractionEmpty)
	}
	return series, nil
}

// seriesFromWells reads the classic .cb-series-matches layout.
func seriesFromWells(dom *goquery.Document, now time.Time) []cricket.SeriesRecord {
	var out []cricket.SeriesRecord
	dom.Find(".cb-series-matches").Each(func(i int, el *goquery.Selection) {
		name := extract.CleanText(el.Find(".cb-series-name").First().Text())
		if name == "" {
			return
		}
		rec := newSeries(fmt.Sprintf("series-%d", i), name, extract.CleanText(el.Text()), now)
		if n, err := strconv.Atoi(leadingNumber.FindString(el.Find(".cb-match-count").Text())); err == nil {
			rec.Matches = n
		}
		if href, ok := el.Find("a").First().Attr("href"); ok {
			if m := seriesIDPattern.FindStringSubmatch(href); m != nil {
				rec.ID = m[1]
			}
		}
		out = append(out, rec)
	})
	return out
}

// seriesFromLinks reads the current layout, where each series is a link to
// /cricket-series/<id>/<slug> followed by its date range.
func seriesFromLinks(dom *goquery.Document, now time.Time) []cricket.SeriesRecord {
	seen := make(map[string]bool)
	var out []cricket.SeriesRecord
	dom.Find(`a[href*="/cricket-series/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := seriesIDPattern.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		name := extract.CleanText(a.AttrOr("title", a.Text()))
		if len(name) < 4 {
			return
		}
		seen[m[1]] = true
		around := extract.CleanText(a.Parent().Text())
		out = append(out, newSeries(m[1], name, around, now))
	})
	return out
}

func newSeries(id, name, around string, now time.Time) cricket.SeriesRecord {
	rec := cricket.SeriesRecord{
		ID:        id,
		Name:      name,
		StartDate: now.UTC().Format(time.RFC3339),
		EndDate:   now.UTC().Format(time.RFC3339),
	}
	if start, end, ok := parseSeriesRange(around, now); ok {
		rec.StartDate = start.Format(time.RFC3339)
		rec.EndDate = end.Format(time.RFC3339)
	}
	for _, m := range seriesCountPattern.FindAllStringSubmatch(around, -1) {
		n, _ := strconv.Atoi(m[1])
		switch kind := strings.ToLower(m[2]); {
		case strings.HasPrefix(kind, "test"):
			rec.Test += n
		case strings.HasPrefix(kind, "odi"):
			rec.ODI += n
		default:
			rec.T20 += n
		}
	}
	if total := rec.Test + rec.ODI + rec.T20; total > rec.Matches {
		rec.Matches = total
	}
	return rec
}

// parseSeriesRange reads a "Mon D - Mon D" range. Missing years take now's
// year; an end month before the start month rolls into the next year.
func parseSeriesRange(text string, now time.Time) (time.Time, time.Time, bool) {
	m := seriesRangePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}
	year := now.UTC().Year()
	startYear, endYear := year, 0
	if m[3] != "" {
		startYear, _ = strconv.Atoi(m[3])
	}
	start, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %s %d", m[1], m[2], startYear))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endYear = start.Year()
	if m[6] != "" {
		endYear, _ = strconv.Atoi(m[6])
	}
	end, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %s %d", m[4], m[5], endYear))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) && m[6] == "" {
		end = end.AddDate(1, 0, 0)
	}
	return start, end, true
}

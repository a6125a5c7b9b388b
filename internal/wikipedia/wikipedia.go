// Package wikipedia reads team squads and player biographies from English
// Wikipedia.
package wikipedia

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/lepinkainen/cricket-forge/pkg/extract"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
	"github.com/lepinkainen/cricket-forge/pkg/urlutils"
)

// DefaultBaseURL is the English Wikipedia origin.
const DefaultBaseURL = "https://en.wikipedia.org"

// SourceName labels fetch errors and log lines.
const SourceName = "wikipedia"

// MaxSquadSize caps the squad list at a playing eleven.
const MaxSquadSize = 11

// DefaultFlag is used for teams without a known flag.
const DefaultFlag = "🏏"

// MajorTeams are the sides scrape-all walks by default.
var MajorTeams = []string{"India", "Australia", "England", "Pakistan", "South Africa"}

var teamArticles = map[string]string{
	"India":        "India_national_cricket_team",
	"Australia":    "Australia_national_cricket_team",
	"England":      "England_cricket_team",
	"Pakistan":     "Pakistan_national_cricket_team",
	"South Africa": "South_Africa_national_cricket_team",
}

var teamFlags = map[string]string{
	"India":        "🇮🇳",
	"Australia":    "🇦🇺",
	"England":      "🏴󠁧󠁢󠁥󠁮󠁧󠁿",
	"Pakistan":     "🇵🇰",
	"South Africa": "🇿🇦",
}

// TeamArticle returns the article title for a team.
func TeamArticle(team string) string {
	if title, ok := teamArticles[team]; ok {
		return title
	}
	return urlutils.WikiTitle(team)
}

// Flag returns the flag emoji for a team.
func Flag(team string) string {
	if flag, ok := teamFlags[team]; ok {
		return flag
	}
	return DefaultFlag
}

// Client fetches and parses Wikipedia pages.
type Client struct {
	fetcher httputil.Fetcher
	baseURL string
}

// NewClient creates a client against baseURL; empty means DefaultBaseURL.
func NewClient(fetcher httputil.Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{fetcher: fetcher, baseURL: baseURL}
}

func (c *Client) articleURL(title string) string {
	return c.baseURL + "/wiki/" + title
}

// page fetches and parses one article. A page that cannot be parsed is an
// error, so callers always get a usable document.
func (c *Client) page(ctx context.Context, pageURL string) (*goquery.Document, error) {
	raw, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	dom, err := extract.NewDocument(pageURL, raw).DOM()
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched Wikipedia page", "url", pageURL)
	return dom, nil
}

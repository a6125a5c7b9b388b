package scraper

import "errors"

var (
	errEmptyName = errors.New("name is required")
	errNoFetcher = errors.New("no fetcher configured")
)

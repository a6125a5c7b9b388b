// Package extract turns fetched pages into match records through ranked,
// declarative strategies: embedded structured data first, then markup rules,
// then free-text patterns.
package extract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Document is a fetched page. The parsed DOM is built on first use and shared
// by every strategy that needs it.
type Document struct {
	URL string
	Raw string

	once sync.Once
	dom  *goquery.Document
	err  error
}

// NewDocument wraps raw page content fetched from url.
func NewDocument(url, raw string) *Document {
	return &Document{URL: url, Raw: raw}
}

// DOM returns the parsed document.
func (d *Document) DOM() (*goquery.Document, error) {
	d.once.Do(func() {
		d.dom, d.err = goquery.NewDocumentFromReader(strings.NewReader(d.Raw))
		if d.err != nil {
			d.err = fmt.Errorf("failed to parse HTML from %s: %w", d.URL, d.err)
		}
	})
	return d.dom, d.err
}

// Text returns the visible text of the page with whitespace collapsed. Script
// and style content is skipped.
func (d *Document) Text() string {
	dom, err := d.DOM()
	if err != nil {
		return CleanText(d.Raw)
	}
	body := dom.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return CleanText(body.Text())
}

// CleanText collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

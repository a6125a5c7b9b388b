package crictracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
)

// DefaultWaitSelector matches the score widgets CricTracker renders client side.
const DefaultWaitSelector = `[class*="match"], [class*="score"], .match-card, .live-match`

// RenderedFetcher loads a page in headless Chrome and returns the DOM after
// scripts have run.
type RenderedFetcher struct {
	Timeout      time.Duration // whole page budget
	WaitSelector string
	WaitTimeout  time.Duration // a missing selector is not an error
	Settle       time.Duration // extra time for late widgets
	ExecPath     string        // empty means look up Chrome on PATH
}

// NewRenderedFetcher returns a fetcher with a 30s page budget, a 10s wait for
// match widgets and a 2s settle delay.
func NewRenderedFetcher(execPath string) *RenderedFetcher {
	return &RenderedFetcher{
		Timeout:      30 * time.Second,
		WaitSelector: DefaultWaitSelector,
		WaitTimeout:  10 * time.Second,
		Settle:       2 * time.Second,
		ExecPath:     execPath,
	}
}

// Fetch implements httputil.Fetcher. A missing or crashing browser is
// reported as *cricket.FetchError so callers fall back to a plain fetch.
func (f *RenderedFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(httputil.BrowserUserAgent),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if f.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	pageCtx, cancelPage := context.WithTimeout(browserCtx, f.Timeout)
	defer cancelPage()

	start := time.Now()
	if err := chromedp.Run(pageCtx, chromedp.Navigate(targetURL)); err != nil {
		return "", renderError(targetURL, fmt.Errorf("failed to load page: %w", err))
	}

	if f.WaitSelector != "" && f.WaitTimeout > 0 {
		waitCtx, cancelWait := context.WithTimeout(pageCtx, f.WaitTimeout)
		if err := chromedp.Run(waitCtx, chromedp.WaitReady(f.WaitSelector, chromedp.ByQuery)); err != nil {
			slog.Debug("Match widgets did not appear, continuing", "url", targetURL, "error", err)
		}
		cancelWait()
	}

	var html string
	if err := chromedp.Run(pageCtx,
		chromedp.Sleep(f.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", renderError(targetURL, fmt.Errorf("failed to read rendered DOM: %w", err))
	}

	slog.Debug("Rendered page", "url", targetURL, "bytes", len(html), "duration", time.Since(start))
	return html, nil
}

func renderError(targetURL string, err error) *cricket.FetchError {
	return &cricket.FetchError{Source: SourceName + " (rendered)", URL: targetURL, Err: err}
}

package cricbuzz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
	"github.com/lepinkainen/cricket-forge/pkg/providers"
)

var fixedNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

const liveHTML = `<html><body>
<a href="/live-cricket-scores/112233/ind-vs-aus-2nd-odi" class="w-full bg-cbWhite flex flex-col p-3 gap-1">
  <div>2nd ODI • Adelaide, Adelaide Oval</div>
  <div class="flex items-center gap-4 justify-between">
    <div><span class="hidden wb:block">India</span><span>IND</span></div>
    <span>245-6 (48.3)</span>
  </div>
  <div class="flex items-center gap-4 justify-between">
    <div><span class="hidden wb:block">Australia</span><span>AUS</span></div>
    <span>120-3 (22)</span>
  </div>
  <div class="text-xs text-cbTxtSec">Australia need 126 runs</div>
</a>
</body></html>`

const homeHTML = `<html><body>
<script id="app-data" type="text/plain">{"title":"Bangladesh vs Ireland, 2nd T20I","time":"Today • 6:30 PM GMT"}</script>
</body></html>`

const seriesHTML = `<html><body>
<div class="cb-series-matches">
  <a href="/cricket-series/9237/india-tour-of-australia-2026"><span class="cb-series-name">India tour of Australia, 2026</span></a>
  <div>Oct 19 - Nov 05</div>
  <div class="cb-match-count">5 Matches</div>
  <div>3 ODIs, 2 T20Is</div>
</div>
<div class="cb-series-matches"><span class="cb-series-name">Ranji Trophy 2026-27</span></div>
<div class="cb-series-matches"><span class="cb-series-name"></span></div>
</body></html>`

const seriesLinksHTML = `<html><body>
<div><a href="/cricket-series/9301/ashes-2026-27" title="The Ashes, 2026-27">The Ashes</a> Nov 21 - Jan 08 5 Tests</div>
<div><a href="/cricket-series/9301/ashes-2026-27/matches">Matches</a></div>
</body></html>`

const detailsHTML = `<html><body>
<div class="cb-nav-main"><h1 class="cb-nav-hdr">India vs Australia, 2nd ODI - Live Cricket Score, Commentary</h1></div>
<div class="cb-text-live">Australia need 126 runs</div>
<a class="cb-venue">Adelaide Oval, Adelaide</a>
</body></html>`

func newTestServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testDeps(t *testing.T, baseURL string) providers.Deps {
	t.Helper()
	rules, err := extract.DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() error = %v", err)
	}
	return providers.Deps{
		Fetcher:  httputil.NewClient(nil),
		Rules:    rules,
		Now:      clock,
		BaseURLs: map[string]string{LiveSourceName: baseURL, HomeSourceName: baseURL},
	}
}

func TestLiveSource_FetchMatches(t *testing.T) {
	ts := newTestServer(t, map[string]string{livePath: liveHTML})

	source, err := NewLiveSource(testDeps(t, ts.URL))
	if err != nil {
		t.Fatal(err)
	}

	records, err := source.FetchMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchMatches() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, expected 1", len(records))
	}
	got := records[0]
	if got.Name != "India vs Australia" || got.Source != LiveSourceName || got.MatchType != cricket.ODI {
		t.Errorf("record = %+v", got)
	}
	if len(got.Score) != 2 {
		t.Errorf("Score = %+v", got.Score)
	}
}

func TestLiveSource_Failures(t *testing.T) {
	tests := []struct {
		name      string
		pages     map[string]string
		wantFetch bool
		wantEmpty bool
	}{
		{name: "page missing", pages: map[string]string{}, wantFetch: true},
		{name: "no matches on page", pages: map[string]string{livePath: "<html><body><p>No live matches</p></body></html>"}, wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.pages)
			source, err := NewLiveSource(testDeps(t, ts.URL))
			if err != nil {
				t.Fatal(err)
			}

			_, err = source.FetchMatches(context.Background())
			if err == nil {
				t.Fatal("FetchMatches() expected error")
			}

			var fe *cricket.FetchError
			if got := errors.As(err, &fe); got != tt.wantFetch {
				t.Errorf("FetchError = %v, want %v (%v)", got, tt.wantFetch, err)
			}
			if tt.wantFetch && fe.StatusCode != http.StatusNotFound {
				t.Errorf("StatusCode = %d", fe.StatusCode)
			}
			if got := errors.Is(err, cricket.ErrExtractionEmpty); got != tt.wantEmpty {
				t.Errorf("ErrExtractionEmpty = %v, want %v", got, tt.wantEmpty)
			}
		})
	}
}

func TestHomeSource_ScheduleFromScriptPayload(t *testing.T) {
	ts := newTestServer(t, map[string]string{homePath: homeHTML})

	source, err := NewHomeSource(testDeps(t, ts.URL))
	if err != nil {
		t.Fatal(err)
	}

	records, err := source.FetchMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchMatches() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, expected 1: %+v", len(records), records)
	}
	got := records[0]
	if got.Name != "Bangladesh vs Ireland" || got.MatchType != cricket.T20I {
		t.Errorf("record = %+v", got)
	}
	if got.Status != cricket.StatusToday || got.MatchTime != "Today • 6:30 PM" {
		t.Errorf("schedule = %q / %q", got.Status, got.MatchTime)
	}
	if !strings.HasPrefix(got.ID, "cricbuzz-bangladesh-ireland-") {
		t.Errorf("ID = %q", got.ID)
	}
}

func TestNewSource_RequiresFetcher(t *testing.T) {
	if _, err := NewLiveSource(providers.Deps{}); err == nil {
		t.Error("NewLiveSource() without fetcher should fail")
	}
	if _, err := NewHomeSource(providers.Deps{}); err == nil {
		t.Error("NewHomeSource() without fetcher should fail")
	}
}

func TestSourcesRegistered(t *testing.T) {
	for _, name := range []string{LiveSourceName, HomeSourceName} {
		if _, err := providers.GetSource(name); err != nil {
			t.Errorf("GetSource(%q) error = %v", name, err)
		}
	}
}

func TestClient_Series(t *testing.T) {
	t.Run("series wells", func(t *testing.T) {
		ts := newTestServer(t, map[string]string{seriesPath: seriesHTML})
		series, err := NewClient(httputil.NewClient(nil), ts.URL, clock).Series(context.Background())
		if err != nil {
			t.Fatalf("Series() error = %v", err)
		}
		if len(series) != 2 {
			t.Fatalf("got %d series, expected 2: %+v", len(series), series)
		}

		first := series[0]
		if first.ID != "9237" || first.Name != "India tour of Australia, 2026" {
			t.Errorf("first = %+v", first)
		}
		if first.Matches != 5 || first.ODI != 3 || first.T20 != 2 || first.Test != 0 {
			t.Errorf("counts = %+v", first)
		}
		if first.StartDate != "2026-10-19T00:00:00Z" || first.EndDate != "2026-11-05T00:00:00Z" {
			t.Errorf("dates = %s .. %s", first.StartDate, first.EndDate)
		}
		if series[1].ID != "series-1" {
			t.Errorf("second ID = %q", series[1].ID)
		}
	})

	t.Run("series links", func(t *testing.T) {
		ts := newTestServer(t, map[string]string{seriesPath: seriesLinksHTML})
		series, err := NewClient(httputil.NewClient(nil), ts.URL, clock).Series(context.Background())
		if err != nil {
			t.Fatalf("Series() error = %v", err)
		}
		if len(series) != 1 {
			t.Fatalf("got %d series, expected 1: %+v", len(series), series)
		}
		got := series[0]
		if got.ID != "9301" || got.Name != "The Ashes, 2026-27" || got.Test != 5 {
			t.Errorf("series = %+v", got)
		}
		if got.EndDate != "2027-01-08T00:00:00Z" {
			t.Errorf("EndDate = %s, expected roll into next year", got.EndDate)
		}
	})

	t.Run("empty listing", func(t *testing.T) {
		ts := newTestServer(t, map[string]string{seriesPath: "<html></html>"})
		_, err := NewClient(httputil.NewClient(nil), ts.URL, clock).Series(context.Background())
		if !errors.Is(err, cricket.ErrExtractionEmpty) {
			t.Errorf("Series() error = %v, want ErrExtractionEmpty", err)
		}
	})
}

func TestClient_MatchDetails(t *testing.T) {
	ts := newTestServer(t, map[string]string{detailsPath + "112233": detailsHTML})
	client := NewClient(httputil.NewClient(nil), ts.URL, clock)

	got, err := client.MatchDetails(context.Background(), "112233")
	if err != nil {
		t.Fatalf("MatchDetails() error = %v", err)
	}
	if got.ID != "112233" || got.Name != "India vs Australia" || got.MatchType != cricket.ODI {
		t.Errorf("record = %+v", got)
	}
	if got.Status != "Australia need 126 runs" || !got.MatchStarted || got.MatchEnded {
		t.Errorf("status = %q started=%v ended=%v", got.Status, got.MatchStarted, got.MatchEnded)
	}
	if got.Venue != "Adelaide Oval, Adelaide" {
		t.Errorf("Venue = %q", got.Venue)
	}

	if _, err := client.MatchDetails(context.Background(), "404"); !cricket.IsFetchError(err) {
		t.Errorf("MatchDetails() for missing page error = %v, want FetchError", err)
	}
}

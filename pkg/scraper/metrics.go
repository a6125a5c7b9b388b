package scraper

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors for the scrape layer. A nil *Metrics
// records nothing.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	cacheWrites    *prometheus.CounterVec
	sourceFetches  *prometheus.CounterVec
	sourceLatency  *prometheus.HistogramVec
	liveMatches    prometheus.Gauge
	scrapeRuns     *prometheus.CounterVec
	scrapeEntities *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by key kind and result (hit, miss, error)",
			},
			[]string{"kind", "result"},
		),
		cacheWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_writes_total",
				Help:      "Cache writes by key kind and status",
			},
			[]string{"kind", "status"},
		),
		sourceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetches_total",
				Help:      "Source fetches by source and outcome (ok, empty, error)",
			},
			[]string{"source", "outcome"},
		),
		sourceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_fetch_duration_seconds",
				Help:      "Source fetch and extraction latency",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"source"},
		),
		liveMatches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_matches",
				Help:      "Number of matches returned by the last live refresh",
			},
		),
		scrapeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrape_all_runs_total",
				Help:      "Completed scrape-all runs by status",
			},
			[]string{"status"},
		),
		scrapeEntities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrape_all_entities_total",
				Help:      "Teams and players processed by scrape-all",
			},
			[]string{"kind", "outcome"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.cacheLookups,
		m.cacheWrites,
		m.sourceFetches,
		m.sourceLatency,
		m.liveMatches,
		m.scrapeRuns,
		m.scrapeEntities,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

func (m *Metrics) recordLookup(key, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(keyKind(key), result).Inc()
}

func (m *Metrics) recordWrite(key string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.cacheWrites.WithLabelValues(keyKind(key), status).Inc()
}

func (m *Metrics) recordFetch(source, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, outcome).Inc()
	m.sourceLatency.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Metrics) setLive(n int) {
	if m == nil {
		return
	}
	m.liveMatches.Set(float64(n))
}

func (m *Metrics) recordRun(status string) {
	if m == nil {
		return
	}
	m.scrapeRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) recordEntity(kind, outcome string) {
	if m == nil {
		return
	}
	m.scrapeEntities.WithLabelValues(kind, outcome).Inc()
}

// keyKind keeps label cardinality bounded: "series_offset_20" -> "series".
func keyKind(key string) string {
	kind, _, _ := strings.Cut(key, "_")
	if key == "live_matches" {
		return "live"
	}
	return kind
}

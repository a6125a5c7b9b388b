package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/lepinkainen/cricket-forge/internal/config"
	"github.com/lepinkainen/cricket-forge/internal/cricbuzz"
	"github.com/lepinkainen/cricket-forge/internal/crictracker"
	"github.com/lepinkainen/cricket-forge/internal/wikipedia"
	"github.com/lepinkainen/cricket-forge/pkg/cache"
	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/database"
	"github.com/lepinkainen/cricket-forge/pkg/extract"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
	"github.com/lepinkainen/cricket-forge/pkg/prediction"
	"github.com/lepinkainen/cricket-forge/pkg/providers"
	"github.com/lepinkainen/cricket-forge/pkg/scraper"
	"github.com/lepinkainen/cricket-forge/pkg/server"

	// Import sources to trigger init() self-registration
	_ "github.com/lepinkainen/cricket-forge/internal/cricketapi"
)

const metricsNamespace = "cricket_forge"

// app holds the wired components for one CLI invocation.
type app struct {
	cfg       *config.Config
	db        *database.Database
	sqlite    *database.Cache // nil with the redis backend
	redis     *redis.Client
	service   *scraper.Service
	predictor *prediction.Predictor
	registry  *prometheus.Registry
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}

	db, err := database.NewDatabase(database.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	roster, err := database.NewRoster(db)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize roster: %w", err)
	}

	rules, err := extract.LoadRulesWithOverride(ctx, cfg.Extract.SelectorsURL, cfg.Extract.SelectorsFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	httpConfig := httputil.DefaultConfig()
	httpConfig.Timeout = cfg.HTTP.Timeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	if cfg.HTTP.UserAgent != "" {
		httpConfig.UserAgent = cfg.HTTP.UserAgent
	}
	client := httputil.NewClient(httpConfig)

	deps := providers.Deps{
		Fetcher:  client,
		JSON:     client,
		Rules:    rules,
		BaseURLs: cfg.Sources.BaseURLs,
	}
	if cfg.HTTP.Headless {
		deps.Rendered = crictracker.NewRenderedFetcher(cfg.HTTP.ChromePath)
	}

	metrics := scraper.NewMetrics(metricsNamespace)
	if err := metrics.Register(a.registry); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cb := cricbuzz.NewClient(client, deps.BaseURL(cricbuzz.LiveSourceName, cricbuzz.DefaultBaseURL), nil)
	wiki := wikipedia.NewClient(client, deps.BaseURL(wikipedia.SourceName, wikipedia.DefaultBaseURL))

	a.service = scraper.New(scraper.Config{
		Live:     providers.ResolveSources(cfg.Sources.Live, deps),
		Fallback: providers.ResolveSources(cfg.Sources.Fallback, deps),
		Series:   cb,
		Details:  cb,
		Players:  wiki,
		Teams:    wiki,
		Store:    store,
		TTL: cache.TTLPolicy{
			Live:    cfg.Cache.LiveTTL,
			Series:  cfg.Cache.SeriesTTL,
			Default: cfg.Cache.DefaultTTL,
		},
		Roster:      roster,
		ScrapeTeams: cfg.Scrape.Teams,
		TeamDelay:   cfg.Scrape.TeamDelay,
		PlayerDelay: cfg.Scrape.PlayerDelay,
		Metrics:     metrics,
	})

	a.predictor = prediction.New(prediction.Config{
		Endpoint: cfg.Prediction.Endpoint,
		Model:    cfg.Prediction.Model,
		Token:    cfg.Prediction.APIToken,
	}, cache.NewLRU[cricket.Prediction](cfg.Prediction.CacheSize, cfg.Prediction.CacheTTL))

	return a, nil
}

// openStore picks the cache backend named in the configuration.
func (a *app) openStore(ctx context.Context) (cache.Store, error) {
	if a.cfg.Cache.Backend == config.BackendRedis {
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.Cache.RedisAddr})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.Cache.RedisAddr, err)
		}
		slog.Debug("Using redis cache", "addr", a.cfg.Cache.RedisAddr)
		return cache.NewRedisStore(a.redis, a.cfg.Cache.RedisPrefix), nil
	}

	c, err := database.NewCache(a.db, "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.sqlite = c
	return c, nil
}

// Close releases the database and redis connections.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}

func (a *app) predict(ctx context.Context, matchID string) error {
	match := a.service.FindMatch(ctx, matchID)
	if match == nil {
		return fmt.Errorf("match %s not found", matchID)
	}

	result, err := a.predictor.Predict(ctx, *match)
	if err != nil {
		return err
	}
	return output(result)
}

var errNoSQLiteCache = errors.New("cache maintenance needs the sqlite backend; redis expires keys itself")

func (a *app) cacheStats(ctx context.Context) error {
	if a.sqlite == nil {
		return errNoSQLiteCache
	}
	stats, err := a.sqlite.Stats(ctx)
	if err != nil {
		return err
	}
	info, err := a.db.GetInfo(ctx)
	if err != nil {
		return err
	}
	return output(struct {
		Entries  database.CacheStats `json:"entries" yaml:"entries"`
		Database database.Info       `json:"database" yaml:"database"`
		Path     string              `json:"path" yaml:"path"`
	}{stats, info, a.db.Path()})
}

func (a *app) cacheCleanup(ctx context.Context) error {
	if a.sqlite == nil {
		return errNoSQLiteCache
	}
	removed, err := a.sqlite.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	return output(map[string]int64{"removed": removed})
}

func (a *app) cacheClear(ctx context.Context) error {
	if a.sqlite == nil {
		return errNoSQLiteCache
	}
	if err := a.sqlite.Clear(ctx); err != nil {
		return err
	}
	if err := a.db.Vacuum(ctx); err != nil {
		slog.Warn("Failed to vacuum database", "error", err)
	}
	fmt.Println("Cache cleared")
	return nil
}

func (a *app) serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv, err := server.New(server.Config{
		Addr:            addr,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		Registry:        a.registry,
	}, a.service, a.predictor)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

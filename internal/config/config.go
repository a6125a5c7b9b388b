package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/cricket-forge/internal/wikipedia"
	"github.com/lepinkainen/cricket-forge/pkg/filesystem"
)

// Cache backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds the central application configuration
type Config struct {
	Database struct {
		Path string `mapstructure:"path"` // SQLite file for the cache and roster tables
	} `mapstructure:"database"`

	Cache struct {
		Backend     string        `mapstructure:"backend"` // sqlite or redis
		RedisAddr   string        `mapstructure:"redis_addr"`
		RedisPrefix string        `mapstructure:"redis_prefix"`
		DefaultTTL  time.Duration `mapstructure:"default_ttl"`
		LiveTTL     time.Duration `mapstructure:"live_ttl"`
		SeriesTTL   time.Duration `mapstructure:"series_ttl"`
	} `mapstructure:"cache"`

	HTTP struct {
		Timeout      time.Duration `mapstructure:"timeout"`
		UserAgent    string        `mapstructure:"user_agent"`
		MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
		Headless     bool          `mapstructure:"headless"`    // enable the headless browser fetch
		ChromePath   string        `mapstructure:"chrome_path"` // empty = look up Chrome on PATH
	} `mapstructure:"http"`

	Sources struct {
		Live     []string          `mapstructure:"live"`      // merged in order
		Fallback []string          `mapstructure:"fallback"`  // tried in order when live yields nothing
		BaseURLs map[string]string `mapstructure:"base_urls"` // per-source base URL overrides
	} `mapstructure:"sources"`

	Scrape struct {
		TeamDelay   time.Duration `mapstructure:"team_delay"`
		PlayerDelay time.Duration `mapstructure:"player_delay"`
		Teams       []string      `mapstructure:"teams"`
	} `mapstructure:"scrape"`

	Prediction struct {
		APIToken  string        `mapstructure:"api_token"`
		Endpoint  string        `mapstructure:"endpoint"`
		Model     string        `mapstructure:"model"`
		CacheSize int           `mapstructure:"cache_size"`
		CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"prediction"`

	Extract struct {
		SelectorsFile string `mapstructure:"selectors_file"` // local rule overrides
		SelectorsURL  string `mapstructure:"selectors_url"`  // remote rule overrides, tried first
	} `mapstructure:"extract"`

	Server struct {
		Addr            string        `mapstructure:"addr"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "cricket.db")

	v.SetDefault("cache.backend", BackendSQLite)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_prefix", "cricket:")
	v.SetDefault("cache.default_ttl", 15*time.Minute)
	v.SetDefault("cache.live_ttl", 60*time.Second)
	v.SetDefault("cache.series_ttl", 7*24*time.Hour)

	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.max_body_bytes", 5<<20)
	v.SetDefault("http.headless", true)
	v.SetDefault("http.chrome_path", "")

	v.SetDefault("sources.live", []string{"cricbuzz-live", "cricbuzz-home"})
	v.SetDefault("sources.fallback", []string{"crictracker", "cricket-api"})
	v.SetDefault("sources.base_urls", map[string]string{})

	v.SetDefault("scrape.team_delay", time.Second)
	v.SetDefault("scrape.player_delay", 2*time.Second)
	v.SetDefault("scrape.teams", wikipedia.MajorTeams)

	v.SetDefault("prediction.api_token", "")
	v.SetDefault("prediction.endpoint", "https://api-inference.huggingface.co/models")
	v.SetDefault("prediction.model", "HuggingFaceH4/zephyr-7b-beta")
	v.SetDefault("prediction.cache_size", 256)
	v.SetDefault("prediction.cache_ttl", time.Hour)

	v.SetDefault("extract.selectors_file", "")
	v.SetDefault("extract.selectors_url", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// resolvePath looks for a relative path in the working directory, then next
// to the executable, then under ~/.cricket-forge.
func resolvePath(path string) string {
	if path == "" {
		path = "config.yaml"
	}
	return filesystem.ResolvePath(path, filesystem.SearchDirs()...)
}

// LoadConfig loads the configuration from a file. A missing file yields the
// defaults. Environment variables prefixed CRICKET_FORGE_ override file values
// (CRICKET_FORGE_CACHE_BACKEND), and HUGGINGFACE_API_KEY supplies the
// prediction token.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(resolvePath(path))
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("CRICKET_FORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("prediction.api_token", "CRICKET_FORGE_PREDICTION_API_TOKEN", "HUGGINGFACE_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("invalid cache.backend %q (expected %s or %s)", c.Cache.Backend, BackendSQLite, BackendRedis)
	}
	if c.Cache.LiveTTL <= 0 || c.Cache.SeriesTTL <= 0 || c.Cache.DefaultTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	if c.Scrape.TeamDelay < 0 || c.Scrape.PlayerDelay < 0 {
		return errors.New("scrape delays cannot be negative")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	return nil
}

// SaveConfig writes the configuration to path, creating its directory.
func SaveConfig(config *Config, path string) error {
	path = filesystem.ExpandHome(path)
	if err := filesystem.EnsureDirectoryExists(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database.path", config.Database.Path)

	v.Set("cache.backend", config.Cache.Backend)
	v.Set("cache.redis_addr", config.Cache.RedisAddr)
	v.Set("cache.redis_prefix", config.Cache.RedisPrefix)
	v.Set("cache.default_ttl", config.Cache.DefaultTTL.String())
	v.Set("cache.live_ttl", config.Cache.LiveTTL.String())
	v.Set("cache.series_ttl", config.Cache.SeriesTTL.String())

	v.Set("http.timeout", config.HTTP.Timeout.String())
	v.Set("http.user_agent", config.HTTP.UserAgent)
	v.Set("http.max_body_bytes", config.HTTP.MaxBodyBytes)
	v.Set("http.headless", config.HTTP.Headless)
	v.Set("http.chrome_path", config.HTTP.ChromePath)

	v.Set("sources.live", config.Sources.Live)
	v.Set("sources.fallback", config.Sources.Fallback)
	v.Set("sources.base_urls", config.Sources.BaseURLs)

	v.Set("scrape.team_delay", config.Scrape.TeamDelay.String())
	v.Set("scrape.player_delay", config.Scrape.PlayerDelay.String())
	v.Set("scrape.teams", config.Scrape.Teams)

	// prediction.api_token is never written; set it through the environment.
	v.Set("prediction.endpoint", config.Prediction.Endpoint)
	v.Set("prediction.model", config.Prediction.Model)
	v.Set("prediction.cache_size", config.Prediction.CacheSize)
	v.Set("prediction.cache_ttl", config.Prediction.CacheTTL.String())

	v.Set("extract.selectors_file", config.Extract.SelectorsFile)
	v.Set("extract.selectors_url", config.Extract.SelectorsURL)

	v.Set("server.addr", config.Server.Addr)
	v.Set("server.shutdown_timeout", config.Server.ShutdownTimeout.String())

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

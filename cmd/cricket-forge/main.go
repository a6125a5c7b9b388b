// Package main provides the CLI entry point for cricket-forge.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/lepinkainen/cricket-forge/internal/config"
	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/preview"
	"github.com/lepinkainen/cricket-forge/pkg/render"
)

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:"config.yaml"`
	Debug  bool   `help:"Enable debug logging" default:"false"`
	Format string `help:"Output format (json or yaml)" short:"f" enum:"json,yaml" default:"json"`

	Live struct {
		Force bool `help:"Bypass the cache and query the sources"`
	} `cmd:"live" help:"List live and upcoming matches."`

	Series struct {
		Offset int `help:"Page offset into the series listing" default:"0"`
	} `cmd:"series" help:"List current series."`

	Match struct {
		ID string `arg:"" help:"Match id"`
	} `cmd:"match" help:"Show details for one match."`

	Player struct {
		Name string `arg:"" help:"Player name, e.g. 'Virat Kohli'"`
	} `cmd:"player" help:"Show a player biography and career statistics."`

	Team struct {
		Name string `arg:"" help:"Team name, e.g. India"`
	} `cmd:"team" help:"Show a team and its playing 11."`

	ScrapeAll struct{} `cmd:"scrape-all" help:"Scrape every configured team and its players into the roster database."`

	Predict struct {
		MatchID string `arg:"" name:"match-id" help:"Match id from 'live' or 'match'"`
	} `cmd:"predict" help:"Predict the outcome of a match."`

	Preview struct{} `cmd:"preview" help:"Browse live matches interactively."`

	Cache struct {
		Stats   struct{} `cmd:"stats" help:"Show cache entry counts."`
		Cleanup struct{} `cmd:"cleanup" help:"Delete expired cache entries."`
		Clear   struct{} `cmd:"clear" help:"Delete every cache entry."`
	} `cmd:"cache" help:"Inspect and maintain the SQLite cache."`

	Serve struct {
		Addr string `help:"Listen address (overrides server.addr)"`
	} `cmd:"serve" help:"Serve the HTTP API."`

	ConfigInit struct {
		Output string `help:"Where to write the configuration" short:"o" default:"config.yaml"`
	} `cmd:"config-init" help:"Write the effective configuration to a file."`
}

func main() {
	// Parse CLI with Kong YAML configuration file loading
	kctx := kong.Parse(&CLI,
		kong.Name("cricket-forge"),
		kong.Configuration(kongyaml.Loader, "config.yaml", "~/.cricket-forge/config.yaml"),
	)

	// Configure logging level based on debug flag
	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "path", CLI.Config, "error", err)
		os.Exit(1)
	}

	if kctx.Command() == "config-init" {
		if err := config.SaveConfig(cfg, CLI.ConfigInit.Output); err != nil {
			slog.Error("Failed to write configuration", "error", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", CLI.ConfigInit.Output)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	a, err := newApp(ctx, cfg)
	if err != nil {
		stop()
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	err = run(ctx, a, kctx.Command())
	a.Close()
	stop()
	if err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app, command string) error {
	switch command {
	case "live":
		return output(a.service.GetLiveMatches(ctx, CLI.Live.Force))

	case "series":
		return output(a.service.GetSeries(ctx, CLI.Series.Offset))

	case "match <id>":
		match := a.service.GetMatchDetails(ctx, CLI.Match.ID)
		if match == nil {
			return fmt.Errorf("match %s not found", CLI.Match.ID)
		}
		return output(match)

	case "player <name>":
		player := a.service.GetPlayerInfo(ctx, CLI.Player.Name)
		if player == nil {
			return fmt.Errorf("player %s not found", CLI.Player.Name)
		}
		return output(player)

	case "team <name>":
		return output(a.service.GetTeamInfo(ctx, CLI.Team.Name))

	case "scrape-all":
		return output(a.service.RunScrapeAll(ctx))

	case "predict <match-id>":
		return a.predict(ctx, CLI.Predict.MatchID)

	case "preview":
		refresh := func() []cricket.MatchRecord { return a.service.GetLiveMatches(ctx, true) }
		return preview.Run(a.service.GetLiveMatches(ctx, false), CLI.Format, refresh)

	case "cache stats":
		return a.cacheStats(ctx)

	case "cache cleanup":
		return a.cacheCleanup(ctx)

	case "cache clear":
		return a.cacheClear(ctx)

	case "serve":
		return a.serve(ctx, CLI.Serve.Addr)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func output(value any) error {
	return render.Write(os.Stdout, CLI.Format, value)
}

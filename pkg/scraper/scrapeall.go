package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lepinkainen/cricket-forge/pkg/api"
	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// Pacing used by the CLI and server when the configuration leaves it unset.
const (
	DefaultTeamDelay   = 1 * time.Second
	DefaultPlayerDelay = 2 * time.Second
)

// ScrapeReport summarizes one scrape-all run.
type ScrapeReport struct {
	RunID      string    `json:"runId" yaml:"runId"`
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`
	Teams      int       `json:"teams" yaml:"teams"`
	Players    int       `json:"players" yaml:"players"`
	Failures   []string  `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// StartScrapeAll launches RunScrapeAll in the background and returns its run
// id at once. The run outlives ctx and cannot be cancelled.
func (s *Service) StartScrapeAll(ctx context.Context) string {
	runID := uuid.NewString()
	detached := context.WithoutCancel(ctx)

	go func() {
		report := s.runScrapeAll(detached, runID)
		slog.Info("Background scrape finished", "run", report.RunID, "teams", report.Teams, "players", report.Players, "failures", len(report.Failures))
	}()

	slog.Info("Scrape started in background", "run", runID)
	return runID
}

// RunScrapeAll walks every configured team and its squad, persisting what it
// finds. A failing team or player is logged and skipped.
func (s *Service) RunScrapeAll(ctx context.Context) ScrapeReport {
	return s.runScrapeAll(ctx, uuid.NewString())
}

func (s *Service) runScrapeAll(ctx context.Context, runID string) ScrapeReport {
	report := ScrapeReport{RunID: runID, StartedAt: time.Now()}
	log := slog.With("run", runID)

	if s.cfg.Roster == nil {
		report.Failures = append(report.Failures, "no roster configured")
		report.FinishedAt = time.Now()
		s.cfg.Metrics.recordRun("error")
		log.Error("Scrape-all has nowhere to store results")
		return report
	}

	teamPace := api.NewPacer(s.cfg.TeamDelay)
	playerPace := api.NewPacer(s.cfg.PlayerDelay)

	for _, name := range s.cfg.ScrapeTeams {
		if err := teamPace.Wait(ctx); err != nil {
			report.Failures = append(report.Failures, "stopped: "+err.Error())
			break
		}

		log.Info("Scraping team", "team", name)
		team, err := s.teamInfo(ctx, name)
		if err != nil && !errors.Is(err, cricket.ErrExtractionEmpty) {
			log.Warn("Team page unavailable, storing name only", "team", name, "error", err)
		}

		teamID, err := s.cfg.Roster.UpsertTeam(ctx, team)
		if err != nil {
			s.cfg.Metrics.recordEntity("team", "error")
			report.Failures = append(report.Failures, "team "+name+": "+err.Error())
			log.Warn("Failed to store team", "team", name, "error", err)
			continue
		}
		s.cfg.Metrics.recordEntity("team", "ok")
		report.Teams++

		if len(team.Players) == 0 {
			log.Warn("No playing 11 found", "team", name)
			continue
		}

		for _, playerName := range team.Players {
			if err := playerPace.Wait(ctx); err != nil {
				report.Failures = append(report.Failures, "stopped: "+err.Error())
				break
			}
			if err := s.scrapePlayer(ctx, teamID, playerName); err != nil {
				s.cfg.Metrics.recordEntity("player", "error")
				report.Failures = append(report.Failures, "player "+playerName+": "+err.Error())
				log.Warn("Failed to scrape player", "player", playerName, "team", name, "error", err)
				continue
			}
			s.cfg.Metrics.recordEntity("player", "ok")
			report.Players++
		}
	}

	report.FinishedAt = time.Now()
	status := "ok"
	if len(report.Failures) > 0 {
		status = "partial"
	}
	s.cfg.Metrics.recordRun(status)

	log.Info("Scrape-all complete",
		"teams", report.Teams,
		"players", report.Players,
		"failures", len(report.Failures),
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report
}

func (s *Service) scrapePlayer(ctx context.Context, teamID int64, name string) error {
	player, err := s.playerInfo(ctx, name)
	if err != nil {
		return err
	}
	if player.Name == "" {
		player.Name = name
	}
	_, err = s.cfg.Roster.UpsertPlayer(ctx, teamID, *player, true)
	return err
}

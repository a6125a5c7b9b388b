// Package server exposes the scrape layer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/prediction"
)

// Scraper is the query surface served by the API.
type Scraper interface {
	GetLiveMatches(ctx context.Context, forceRefresh bool) []cricket.MatchRecord
	GetSeries(ctx context.Context, offset int) []cricket.SeriesRecord
	GetMatchDetails(ctx context.Context, id string) *cricket.MatchRecord
	FindMatch(ctx context.Context, id string) *cricket.MatchRecord
	GetPlayerInfo(ctx context.Context, name string) *cricket.PlayerInfo
	GetTeamInfo(ctx context.Context, name string) cricket.TeamInfo
	StartScrapeAll(ctx context.Context) string
}

// Predictor produces match outcome predictions.
type Predictor interface {
	Predict(ctx context.Context, match cricket.MatchRecord) (cricket.Prediction, error)
}

// Config configures the HTTP server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	// Registry is served on /metrics and receives the HTTP collectors. Nil
	// disables both.
	Registry *prometheus.Registry
}

// Server is the HTTP API.
type Server struct {
	config    Config
	scraper   Scraper
	predictor Predictor
	router    *mux.Router
}

// New creates a Server and registers its routes.
func New(config Config, scraper Scraper, predictor Predictor) (*Server, error) {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{config: config, scraper: scraper, predictor: predictor, router: mux.NewRouter()}

	if config.Registry != nil {
		metrics := newHTTPMetrics()
		if err := metrics.register(config.Registry); err != nil {
			return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
		}
		s.router.Use(metrics.middleware)
		s.router.Handle("/metrics", promhttp.HandlerFor(config.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	// Registered on the root router so a wrong method answers 405.
	s.router.HandleFunc("/api/live-scores", s.liveScores).Methods(http.MethodGet)
	s.router.HandleFunc("/api/series", s.series).Methods(http.MethodGet)
	s.router.HandleFunc("/api/matches/{id}", s.matchDetails).Methods(http.MethodGet)
	s.router.HandleFunc("/api/players/{name}", s.player).Methods(http.MethodGet)
	s.router.HandleFunc("/api/teams/{name}", s.team).Methods(http.MethodGet)
	s.router.HandleFunc("/api/scrape/all", s.scrapeAll).Methods(http.MethodPost)
	s.router.HandleFunc("/api/predictions", s.predict).Methods(http.MethodPost)

	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) liveScores(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		force, _ = strconv.ParseBool(v)
	}
	writeJSON(w, http.StatusOK, nonNil(s.scraper.GetLiveMatches(r.Context(), force)))
}

func (s *Server) series(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		offset = n
	}
	writeJSON(w, http.StatusOK, nonNil(s.scraper.GetSeries(r.Context(), offset)))
}

func (s *Server) matchDetails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	match := s.scraper.GetMatchDetails(r.Context(), id)
	if match == nil {
		writeError(w, http.StatusNotFound, "match not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) player(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	player := s.scraper.GetPlayerInfo(r.Context(), name)
	if player == nil {
		writeError(w, http.StatusNotFound, "player not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *Server) team(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scraper.GetTeamInfo(r.Context(), mux.Vars(r)["name"]))
}

type scrapeAllResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RunID   string `json:"runId"`
}

func (s *Server) scrapeAll(w http.ResponseWriter, r *http.Request) {
	runID := s.scraper.StartScrapeAll(r.Context())
	writeJSON(w, http.StatusAccepted, scrapeAllResponse{
		Success: true,
		Message: "Scraping started in background",
		RunID:   runID,
	})
}

type predictionRequest struct {
	Match   *cricket.MatchRecord `json:"match"`
	MatchID string               `json:"matchId"`
}

// predict accepts either a full match or a match id to look up.
func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	if s.predictor == nil {
		writeError(w, http.StatusServiceUnavailable, "predictions are not configured")
		return
	}

	var req predictionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var match cricket.MatchRecord
	switch {
	case req.Match != nil:
		match = *req.Match
	case req.MatchID != "":
		found := s.scraper.FindMatch(r.Context(), req.MatchID)
		if found == nil {
			writeError(w, http.StatusNotFound, "match not found: "+req.MatchID)
			return
		}
		match = *found
	}

	result, err := s.predictor.Predict(r.Context(), match)
	switch {
	case errors.Is(err, prediction.ErrInvalidMatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		slog.Error("Prediction failed", "match", match.ID, "error", err)
		writeError(w, http.StatusBadGateway, "prediction failed")
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Package server exposes the bot's HTTP surface: playlist downloads, the
// OAuth callback completing a clan owner's link, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/config"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/metrics"
	"beatleader-bot/internal/middleware"
	"beatleader-bot/internal/repository"
	"beatleader-bot/internal/service"
)

type Server struct {
	cfg       *config.Config
	blClient  *api.Client
	players   *repository.PlayerRepository
	guilds    *repository.GuildSettingsRepository
	tokens    *repository.PlayerOAuthTokenRepository
	playlists *repository.PlaylistRepository
	playlist  *service.PlaylistService
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	http *http.Server
}

func New(
	cfg *config.Config,
	blClient *api.Client,
	players *repository.PlayerRepository,
	guilds *repository.GuildSettingsRepository,
	tokens *repository.PlayerOAuthTokenRepository,
	playlists *repository.PlaylistRepository,
	playlist *service.PlaylistService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		cfg:       cfg,
		blClient:  blClient,
		players:   players,
		guilds:    guilds,
		tokens:    tokens,
		playlists: playlists,
		playlist:  playlist,
		metrics:   m,
		logger:    logger.With().Str("component", "server").Logger(),
	}

	timeout := time.Duration(cfg.Server.Timeout) * time.Second

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port),
		Handler:      s.router(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(s.logger))
	r.Use(cors.AllowAll().Handler)

	playlistLimiter := middleware.NewRateLimiter(
		playlistUserKey,
		constants.PlaylistRateBurst,
		constants.PlaylistRatePeriod,
	)

	r.Get("/health_check", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.With(playlistLimiter.Handler).Get("/playlist/{user}/{id}", s.handlePlaylist)

	r.Get("/bl-oauth", s.handleOAuthCallback)
	r.Get("/bl-oauth/", s.handleOAuthCallback)
	r.Get("/bl-oauth/start", s.handleOAuthStart)

	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "not_found", "No such endpoint")
		})
	})

	return r
}

// playlistUserKey rate-limits playlist downloads per requested user, not
// per client address, matching the sync url layout.
func playlistUserKey(r *http.Request) string {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) > 2 {
		return parts[2]
	}
	return "playlist"
}

// Start begins serving in the background; listen errors are logged since
// they occur after startup has returned.
func (s *Server) Start() {
	s.logger.Info().Str("addr", s.http.Addr).Msg("web server starting")

	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("web server failed")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("web server shutting down")
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

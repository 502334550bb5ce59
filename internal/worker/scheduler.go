package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/config"
	"beatleader-bot/internal/metrics"
	"beatleader-bot/internal/service"
)

// Scheduler drives the refresh loop. One tick runs the workers serially:
// OAuth tokens, clan peak, player stats, roles, contribution, clan wars.
// Ticks never overlap; cancellation is honored between workers and between
// per-entity iterations inside them.
type Scheduler struct {
	oauth        *OAuthWorker
	peak         *PeakWorker
	stats        *service.PlayerStatsService
	roles        *RolesWorker
	contribution *ContributionWorker
	clanWars     *ClanWarsWorker
	metrics      *metrics.Metrics

	interval     time.Duration
	peakInterval time.Duration
	lastPeakRun  time.Time

	logger zerolog.Logger
}

func NewScheduler(
	oauth *OAuthWorker,
	peak *PeakWorker,
	stats *service.PlayerStatsService,
	roles *RolesWorker,
	contribution *ContributionWorker,
	clanWars *ClanWarsWorker,
	m *metrics.Metrics,
	cfg *config.Config,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		oauth:        oauth,
		peak:         peak,
		stats:        stats,
		roles:        roles,
		contribution: contribution,
		clanWars:     clanWars,
		metrics:      m,
		interval:     time.Duration(cfg.RefreshInterval) * time.Second,
		peakInterval: time.Duration(cfg.ClanPeakInterval) * time.Minute,
		logger:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("refresh loop started")

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh loop stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	started := time.Now()
	defer func() {
		s.metrics.TickDuration.Observe(time.Since(started).Seconds())
	}()

	s.logger.Debug().Msg("tick started")

	if err := s.oauth.Run(ctx); err != nil {
		s.workerFailed(ctx, "oauth", err)
		return
	}

	if time.Since(s.lastPeakRun) >= s.peakInterval {
		s.lastPeakRun = time.Now()
		if err := s.peak.Run(ctx); err != nil {
			s.workerFailed(ctx, "clan_peak", err)
			return
		}
	}

	players, err := s.stats.UpdateAllPlayersStats(ctx, false)
	if err != nil {
		s.workerFailed(ctx, "player_stats", err)
		return
	}

	if err := s.roles.Run(ctx, players); err != nil {
		s.workerFailed(ctx, "roles", err)
		return
	}

	if err := s.contribution.Run(ctx); err != nil {
		s.workerFailed(ctx, "contribution", err)
		return
	}

	if err := s.clanWars.Run(ctx); err != nil {
		s.workerFailed(ctx, "clan_wars", err)
		return
	}

	s.logger.Info().Dur("took", time.Since(started)).Msg("tick finished")
}

func (s *Scheduler) workerFailed(ctx context.Context, worker string, err error) {
	if ctx.Err() != nil {
		s.logger.Warn().Str("worker", worker).Msg("tick cancelled")
		return
	}

	s.metrics.WorkerErrors.WithLabelValues(worker).Inc()
	s.logger.Error().Err(err).Str("worker", worker).Msg("worker failed")
}

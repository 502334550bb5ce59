package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/pp"
	"beatleader-bot/internal/repository"
)

// PlayerStatsService refreshes linked players against the upstream and
// derives the score aggregates the role and clan workers consume.
type PlayerStatsService struct {
	blClient *api.Client
	players  *repository.PlayerRepository
	scores   *repository.PlayerScoresRepository
	logger   zerolog.Logger

	group singleflight.Group
}

func NewPlayerStatsService(blClient *api.Client, players *repository.PlayerRepository, scores *repository.PlayerScoresRepository, logger zerolog.Logger) *PlayerStatsService {
	return &PlayerStatsService{
		blClient: blClient,
		players:  players,
		scores:   scores,
		logger:   logger,
	}
}

// scoresStats are the aggregates derived from a fresh score list.
type scoresStats struct {
	lastScoresFetch    time.Time
	topStars           float64
	plusOnePp          float64
	lastRankedPausedAt *time.Time
}

// UpdateAllPlayersStats refreshes every player linked to at least one
// guild. Concurrent callers share one in-flight run. The returned list
// contains only the players actually refreshed.
func (s *PlayerStatsService) UpdateAllPlayersStats(ctx context.Context, force bool) ([]domain.Player, error) {
	result, err, _ := s.group.Do("update-all", func() (interface{}, error) {
		updated := make([]domain.Player, 0, s.players.Len())

		for _, player := range s.players.All() {
			if len(player.LinkedGuilds) == 0 {
				continue
			}

			if err := ctx.Err(); err != nil {
				return updated, err
			}

			refreshed, err := s.UpdatePlayerStats(ctx, &player, force)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("player_id", string(player.ID)).
					Msg("player stats refresh failed")
				continue
			}

			updated = append(updated, refreshed)
		}

		s.logger.Debug().Int("count", len(updated)).Msg("all players stats updated")

		return updated, nil
	})

	players, _ := result.([]domain.Player)
	return players, err
}

// UpdatePlayerStats refetches one player's profile and ranked scores,
// derives the aggregates and persists the merged record.
func (s *PlayerStatsService) UpdatePlayerStats(ctx context.Context, player *domain.Player, force bool) (domain.Player, error) {
	if len(player.LinkedGuilds) == 0 {
		return *player, nil
	}

	upstream, err := s.blClient.GetPlayer(ctx, string(player.ID))
	if err != nil {
		return domain.Player{}, err
	}

	stats, err := s.rankedScoresStats(ctx, player, force)
	if err != nil {
		return domain.Player{}, err
	}

	updated := domain.PlayerFromUpstream(player.UserID, player.LinkedGuilds, upstream, player)
	if stats != nil {
		updated.LastScoresFetch = &stats.lastScoresFetch
		updated.TopStars = stats.topStars
		updated.PlusOnePp = stats.plusOnePp
		updated.LastRankedPausedAt = stats.lastRankedPausedAt
	}

	saved, err := s.players.Save(updated)
	if err != nil {
		return domain.Player{}, err
	}

	s.logger.Debug().
		Str("player_id", string(saved.ID)).
		Str("name", saved.Name).
		Msg("player stats updated")

	return saved, nil
}

// rankedScoresStats refreshes the stored score list and folds it into the
// derived aggregates. nil means the refresh was skipped.
func (s *PlayerStatsService) rankedScoresStats(ctx context.Context, player *domain.Player, force bool) (*scoresStats, error) {
	playerScores, err := s.scores.UpdatePlayerScores(ctx, player, force)
	if err != nil {
		return nil, err
	}
	if playerScores == nil {
		return nil, nil
	}

	stats := scoresStats{lastScoresFetch: time.Now().UTC()}

	for i := range playerScores.Scores {
		score := &playerScores.Scores[i]

		if stars := score.AppliedRating.Stars; stars > stats.topStars {
			stats.topStars = stars
		}

		if score.Pauses > 0 {
			if stats.lastRankedPausedAt == nil || stats.lastRankedPausedAt.Before(score.Timepost) {
				timepost := score.Timepost
				stats.lastRankedPausedAt = &timepost
			}
		}
	}

	stats.plusOnePp = pp.Boundary(pp.PlayerWeightCoefficient, playerScores.RankedPps(), 1.0)

	return &stats, nil
}

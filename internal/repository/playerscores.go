package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

// PlayerScoresRepository holds the ranked score lists of one difficulty
// context, one entry per upstream player.
type PlayerScoresRepository struct {
	storage   *storage.CachedStorage[domain.PlayerID, domain.PlayerScores]
	blClient  *api.Client
	blContext api.Context
	logger    zerolog.Logger
}

func NewPlayerScoresRepository(persist *storage.PersistInstance, blClient *api.Client, blContext api.Context, logger zerolog.Logger) (*PlayerScoresRepository, error) {
	name := fmt.Sprintf("player-scores-%s", blContext)

	cached, err := storage.NewCachedStorage(storage.NewStorage[domain.PlayerID, domain.PlayerScores](name, persist, logger))
	if err != nil {
		return nil, err
	}

	return &PlayerScoresRepository{
		storage:   cached,
		blClient:  blClient,
		blContext: blContext,
		logger:    logger.With().Str("bl_context", string(blContext)).Logger(),
	}, nil
}

func (r *PlayerScoresRepository) Context() api.Context {
	return r.blContext
}

func (r *PlayerScoresRepository) All() []domain.PlayerScores {
	return r.storage.Values()
}

func (r *PlayerScoresRepository) Len() int {
	return r.storage.Len()
}

func (r *PlayerScoresRepository) Get(playerID domain.PlayerID) (domain.PlayerScores, bool) {
	return r.storage.Get(playerID)
}

// UpdatePlayerScores refetches the player's ranked scores and overwrites
// the stored list. It returns nil without error when fetching was skipped
// because no new ranked scores are possible since the last fetch.
func (r *PlayerScoresRepository) UpdatePlayerScores(ctx context.Context, player *domain.Player, force bool) (*domain.PlayerScores, error) {
	if len(player.LinkedGuilds) == 0 {
		return nil, nil
	}

	if !force {
		if _, ok := r.storage.Get(player.ID); !ok {
			force = true
		}
	}

	scores, err := r.fetchRankedScores(ctx, player, force)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		return nil, nil
	}

	playerScores := domain.PlayerScores{
		PlayerID: player.ID,
		Context:  string(r.blContext),
		Scores:   scores,
		Updated:  time.Now().UTC(),
	}

	if _, err := r.storage.Set(player.ID, playerScores); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("player_id", string(player.ID)).
		Int("count", len(scores)).
		Msg("player scores updated")

	return &playerScores, nil
}

func (r *PlayerScoresRepository) Remove(playerID domain.PlayerID) (bool, error) {
	return r.storage.Remove(playerID)
}

func (r *PlayerScoresRepository) Restore(values []domain.PlayerScores) error {
	return r.storage.Restore(values)
}

// fetchRankedScores downloads every ranked score of the player, dropping
// scores set with disqualifying modifiers. A nil slice with nil error
// means the fetch was skipped.
func (r *PlayerScoresRepository) fetchRankedScores(ctx context.Context, player *domain.Player, force bool) ([]domain.Score, error) {
	if !force && player.LastScoresFetch != nil {
		fresh := time.Now().Before(player.LastScoresFetch.Add(constants.ScoresRefreshInterval))
		noNewScores := player.LastRankedScoreTime == nil || player.LastScoresFetch.After(*player.LastRankedScoreTime)

		if fresh && noNewScores {
			r.logger.Debug().
				Str("player_id", string(player.ID)).
				Time("last_scores_fetch", *player.LastScoresFetch).
				Msg("no new ranked scores since last fetch, skipping")

			return nil, nil
		}
	}

	r.logger.Info().Str("player_id", string(player.ID)).Msg("fetching all ranked scores")

	upstream, err := r.blClient.GetPlayerScores(
		ctx,
		string(player.ID),
		constants.PlayerScoresPageSize,
		api.Context(r.blContext),
		api.WithMapType(api.MapTypeRanked),
	)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.Score, 0, len(upstream))
	for _, score := range upstream {
		converted := domain.ScoreFromUpstream(score)
		if converted.HasSkippedModifiers() {
			continue
		}
		scores = append(scores, converted)
	}

	return scores, nil
}

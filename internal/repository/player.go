package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

// playerUserIdx maps an upstream player id back to the chat user that
// linked it.
type playerUserIdx struct {
	PlayerID domain.PlayerID `json:"playerId"`
	UserID   domain.UserID   `json:"userId"`
}

func (i playerUserIdx) StorageKey() domain.PlayerID {
	return i.PlayerID
}

func (i playerUserIdx) Clone() playerUserIdx {
	return i
}

type PlayerRepository struct {
	storage   *storage.CachedStorage[domain.UserID, domain.Player]
	playerIdx *storage.CachedStorage[domain.PlayerID, playerUserIdx]
	blClient  *api.Client
	logger    zerolog.Logger
}

func NewPlayerRepository(persist *storage.PersistInstance, blClient *api.Client, logger zerolog.Logger) (*PlayerRepository, error) {
	players, err := storage.NewCachedStorage(storage.NewStorage[domain.UserID, domain.Player]("players", persist, logger))
	if err != nil {
		return nil, err
	}

	playerIdx, err := storage.NewCachedStorage(storage.NewStorage[domain.PlayerID, playerUserIdx]("player-user-idx", persist, logger))
	if err != nil {
		return nil, err
	}

	r := &PlayerRepository{
		storage:   players,
		playerIdx: playerIdx,
		blClient:  blClient,
		logger:    logger,
	}

	// rebuild the reverse index if it drifted from the player collection
	if players.Len() != playerIdx.Len() {
		refreshed := 0
		for _, userID := range players.Keys() {
			player, ok := players.Get(userID)
			if !ok {
				continue
			}
			if _, found := playerIdx.Get(player.ID); found {
				continue
			}
			if _, err := playerIdx.Set(player.ID, playerUserIdx{PlayerID: player.ID, UserID: userID}); err != nil {
				return nil, err
			}
			refreshed++
		}

		logger.Debug().Int("count", refreshed).Msg("player-user index refreshed")
	}

	return r, nil
}

func (r *PlayerRepository) All() []domain.Player {
	return r.storage.Values()
}

func (r *PlayerRepository) Len() int {
	return r.storage.Len()
}

func (r *PlayerRepository) Get(userID domain.UserID) (domain.Player, bool) {
	return r.storage.Get(userID)
}

func (r *PlayerRepository) GetByPlayerID(playerID domain.PlayerID) (domain.Player, bool) {
	idx, ok := r.playerIdx.Get(playerID)
	if !ok {
		return domain.Player{}, false
	}
	return r.storage.Get(idx.UserID)
}

// LinkedTo returns every player linked to the given guild.
func (r *PlayerRepository) LinkedTo(guildID domain.GuildID) []domain.Player {
	return r.storage.Filtered(func(p domain.Player) bool {
		return p.IsLinkedTo(guildID)
	})
}

// Link fetches the upstream profile and binds it to the chat user,
// appending the guild to the user's linked guild list.
func (r *PlayerRepository) Link(ctx context.Context, guildID domain.GuildID, userID domain.UserID, playerID domain.PlayerID, requiresVerification bool) (domain.Player, error) {
	r.logger.Debug().
		Str("user_id", string(userID)).
		Str("player_id", string(playerID)).
		Msg("linking user with upstream player")

	upstream, err := r.blClient.GetPlayer(ctx, string(playerID))
	if err != nil {
		return domain.Player{}, err
	}

	return r.LinkPlayer(guildID, userID, upstream, requiresVerification)
}

func (r *PlayerRepository) LinkPlayer(guildID domain.GuildID, userID domain.UserID, upstream *api.Player, requiresVerification bool) (domain.Player, error) {
	if requiresVerification && !domain.HasVerifiedProfile(upstream, userID) {
		return domain.Player{}, ErrProfileNotVerified
	}

	player, err := r.storage.GetAndModifyOrInsert(
		userID,
		func(player *domain.Player) {
			guilds := appendGuild(player.LinkedGuilds, guildID)

			var previous *domain.Player
			if player.ID == domain.PlayerID(upstream.ID) {
				previous = player
			}

			*player = domain.PlayerFromUpstream(userID, guilds, upstream, previous)
		},
		func() (domain.Player, bool) {
			return domain.PlayerFromUpstream(userID, []domain.GuildID{guildID}, upstream, nil), true
		},
	)
	if err != nil {
		return domain.Player{}, err
	}

	if _, err := r.playerIdx.Set(player.ID, playerUserIdx{PlayerID: player.ID, UserID: userID}); err != nil {
		return domain.Player{}, err
	}

	r.logger.Debug().
		Str("user_id", string(userID)).
		Str("player_id", string(player.ID)).
		Msg("user linked with upstream player")

	return player, nil
}

// LinkGuild adds one more guild to an already linked user.
func (r *PlayerRepository) LinkGuild(userID domain.UserID, guildID domain.GuildID) error {
	_, err := r.storage.GetAndModifyOrInsert(
		userID,
		func(player *domain.Player) {
			player.LinkedGuilds = appendGuild(player.LinkedGuilds, guildID)
		},
		func() (domain.Player, bool) {
			return domain.Player{}, false
		},
	)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotLinked
	}
	return err
}

// Unlink removes the guild from the user's linked list. The player record
// is deleted once no guild links remain.
func (r *PlayerRepository) Unlink(guildID domain.GuildID, userID domain.UserID) error {
	removed := false

	player, err := r.storage.GetAndModifyOrInsert(
		userID,
		func(player *domain.Player) {
			before := len(player.LinkedGuilds)
			player.LinkedGuilds = removeGuilds(player.LinkedGuilds, []domain.GuildID{guildID})
			removed = len(player.LinkedGuilds) < before
		},
		func() (domain.Player, bool) {
			return domain.Player{}, false
		},
	)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotLinked
	}
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotLinked
	}

	if len(player.LinkedGuilds) == 0 {
		return r.dropPlayer(userID, player.ID)
	}

	return nil
}

// UnlinkGuilds removes multiple guild links at once, deleting the player
// when none remain. Used when the chat gateway reports an unknown member.
func (r *PlayerRepository) UnlinkGuilds(userID domain.UserID, guildIDs []domain.GuildID) error {
	if len(guildIDs) == 0 {
		return nil
	}

	removed := false

	player, err := r.storage.GetAndModifyOrInsert(
		userID,
		func(player *domain.Player) {
			before := len(player.LinkedGuilds)
			player.LinkedGuilds = removeGuilds(player.LinkedGuilds, guildIDs)
			removed = len(player.LinkedGuilds) < before
		},
		func() (domain.Player, bool) {
			return domain.Player{}, false
		},
	)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotLinked
	}
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotLinked
	}

	if len(player.LinkedGuilds) == 0 {
		return r.dropPlayer(userID, player.ID)
	}

	return nil
}

// Save overwrites the player record. Used by the stats refresh after it
// derived the aggregate fields.
func (r *PlayerRepository) Save(player domain.Player) (domain.Player, error) {
	return r.storage.Set(player.UserID, player)
}

func (r *PlayerRepository) Restore(players []domain.Player) error {
	return r.storage.Restore(players)
}

func (r *PlayerRepository) dropPlayer(userID domain.UserID, playerID domain.PlayerID) error {
	if _, err := r.storage.Remove(userID); err != nil {
		return err
	}
	if _, err := r.playerIdx.Remove(playerID); err != nil {
		return err
	}

	r.logger.Debug().Str("user_id", string(userID)).Msg("player removed, no guild links left")

	return nil
}

func appendGuild(guilds []domain.GuildID, guildID domain.GuildID) []domain.GuildID {
	guilds = removeGuilds(guilds, []domain.GuildID{guildID})
	return append(guilds, guildID)
}

// removeGuilds always allocates; compacting in place would scribble on
// the backing array of previously returned player snapshots.
func removeGuilds(guilds []domain.GuildID, toRemove []domain.GuildID) []domain.GuildID {
	kept := make([]domain.GuildID, 0, len(guilds))
	for _, g := range guilds {
		drop := false
		for _, rm := range toRemove {
			if g == rm {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, g)
		}
	}
	return kept
}

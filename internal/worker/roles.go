package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/discord"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/repository"
)

// RolesWorker reconciles each refreshed player's guild roles against the
// guild's role groups. A member no longer present in a guild gets that
// guild link dropped.
type RolesWorker struct {
	players *repository.PlayerRepository
	guilds  *repository.GuildSettingsRepository
	gateway discord.Gateway
	logger  zerolog.Logger
}

func NewRolesWorker(players *repository.PlayerRepository, guilds *repository.GuildSettingsRepository, gateway discord.Gateway, logger zerolog.Logger) *RolesWorker {
	return &RolesWorker{
		players: players,
		guilds:  guilds,
		gateway: gateway,
		logger:  logger.With().Str("worker", "roles").Logger(),
	}
}

// Run reconciles roles for the given players, typically the list the stats
// refresh just touched.
func (w *RolesWorker) Run(ctx context.Context, players []domain.Player) error {
	for i := range players {
		player := &players[i]

		var guildsToUnlink []domain.GuildID

		for _, guildID := range player.LinkedGuilds {
			if err := ctx.Err(); err != nil {
				return err
			}

			currentRoles, err := w.gateway.GetMemberRoles(ctx, guildID, player.UserID)
			if err != nil {
				if errors.Is(err, discord.ErrUnknownMember) {
					guildsToUnlink = append(guildsToUnlink, guildID)
					continue
				}
				w.logger.Warn().Err(err).
					Str("guild_id", string(guildID)).
					Str("user_id", string(player.UserID)).
					Msg("member roles fetch failed")
				continue
			}

			settings, err := w.guilds.Get(guildID)
			if err != nil {
				continue
			}

			updates := settings.RoleUpdates(player, currentRoles)
			if !updates.IsChanged() {
				continue
			}

			if err := w.apply(ctx, &updates); err != nil {
				w.logger.Error().Err(err).
					Str("guild_id", string(guildID)).
					Str("user_id", string(player.UserID)).
					Msg("role update failed")
				continue
			}

			w.logChanges(ctx, &settings, &updates)
		}

		if len(guildsToUnlink) > 0 {
			w.logger.Info().
				Str("user_id", string(player.UserID)).
				Str("name", player.Name).
				Int("guilds", len(guildsToUnlink)).
				Msg("unlinking guilds for unknown member")

			if err := w.players.UnlinkGuilds(player.UserID, guildsToUnlink); err != nil {
				w.logger.Error().Err(err).
					Str("user_id", string(player.UserID)).
					Msg("guild unlink failed")
			}
		}
	}

	return nil
}

func (w *RolesWorker) apply(ctx context.Context, updates *domain.RoleUpdates) error {
	for _, roleID := range updates.ToAdd {
		if err := w.gateway.AddMemberRole(ctx, updates.GuildID, updates.UserID, roleID); err != nil {
			return err
		}
	}
	for _, roleID := range updates.ToRemove {
		if err := w.gateway.RemoveMemberRole(ctx, updates.GuildID, updates.UserID, roleID); err != nil {
			return err
		}
	}
	return nil
}

// logChanges posts the applied diff to the guild's log channel when one is
// configured. Failures here are not worth failing the reconciliation.
func (w *RolesWorker) logChanges(ctx context.Context, settings *domain.GuildSettings, updates *domain.RoleUpdates) {
	if settings.BotChannelID == nil {
		return
	}

	var parts []string
	if len(updates.ToAdd) > 0 {
		parts = append(parts, "added "+roleMentions(updates.ToAdd))
	}
	if len(updates.ToRemove) > 0 {
		parts = append(parts, "removed "+roleMentions(updates.ToRemove))
	}

	content := fmt.Sprintf("Roles updated for **%s**: %s", updates.PlayerName, strings.Join(parts, ", "))

	if _, err := w.gateway.SendMessage(ctx, *settings.BotChannelID, discord.Message{
		Content:         content,
		AllowedMentions: &discord.AllowedMentions{Parse: []string{}},
	}); err != nil {
		w.logger.Warn().Err(err).
			Str("channel_id", string(*settings.BotChannelID)).
			Msg("role change log post failed")
	}
}

func roleMentions(roles []domain.RoleID) string {
	mentions := make([]string, len(roles))
	for i, roleID := range roles {
		mentions[i] = fmt.Sprintf("<@&%s>", roleID)
	}
	return strings.Join(mentions, " ")
}

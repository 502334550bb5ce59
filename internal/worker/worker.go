// Package worker holds the periodic jobs driven by the refresh scheduler:
// OAuth token refresh, clan peak tracking, player stats refresh, role
// reconciliation, contribution reports, clan wars postings and commander
// orders cleanup.
package worker

import (
	"context"
	"strings"

	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/discord"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/repository"

	"github.com/rs/zerolog"
)

// clanSoldiers resolves the guild's enlisted user list to linked players
// whose primary clan matches the guild's clan. Unlinked soldiers and
// members of other clans are skipped.
func clanSoldiers(clan *domain.ClanSettings, players *repository.PlayerRepository, logger zerolog.Logger) map[domain.PlayerID]domain.Player {
	soldiers := make(map[domain.PlayerID]domain.Player, len(clan.Soldiers))

	for _, userID := range clan.Soldiers {
		player, ok := players.Get(userID)
		if !ok {
			logger.Warn().
				Str("user_id", string(userID)).
				Str("clan_tag", clan.ClanTag).
				Msg("enlisted soldier is not linked")
			continue
		}
		if len(player.Clans) == 0 || player.Clans[0] != clan.ClanTag {
			continue
		}
		soldiers[player.ID] = player
	}

	return soldiers
}

// postInParts sends the given lines as few messages as possible while
// keeping each message under the platform limit. Mentions are suppressed.
func postInParts(ctx context.Context, gateway discord.Gateway, channelID domain.ChannelID, lines []string) error {
	var sb strings.Builder

	flush := func() error {
		if sb.Len() == 0 {
			return nil
		}
		_, err := gateway.SendMessage(ctx, channelID, discord.Message{
			Content:         sb.String(),
			AllowedMentions: &discord.AllowedMentions{Parse: []string{}},
		})
		sb.Reset()
		return err
	}

	for _, line := range lines {
		if sb.Len()+len(line) > constants.MaxDiscordMessageLength {
			if err := flush(); err != nil {
				return err
			}
		}
		sb.WriteString(line)
	}

	return flush()
}

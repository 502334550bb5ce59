package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/discord"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/repository"
)

// PeakWorker tracks each clan's best captured-map count. The peak is
// monotone; an announcement is posted only when the stored peak is
// actually beaten.
type PeakWorker struct {
	guilds   *repository.GuildSettingsRepository
	peaks    *repository.ClanPeakRepository
	blClient *api.Client
	gateway  discord.Gateway
	logger   zerolog.Logger
}

func NewPeakWorker(guilds *repository.GuildSettingsRepository, peaks *repository.ClanPeakRepository, blClient *api.Client, gateway discord.Gateway, logger zerolog.Logger) *PeakWorker {
	return &PeakWorker{
		guilds:   guilds,
		peaks:    peaks,
		blClient: blClient,
		gateway:  gateway,
		logger:   logger.With().Str("worker", "clan_peak").Logger(),
	}
}

func (w *PeakWorker) Run(ctx context.Context) error {
	for _, guild := range w.guilds.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		clan := guild.Clan
		if clan == nil || guild.ContributionChannelID == nil {
			continue
		}

		upstream, err := w.blClient.GetClan(ctx, clan.ClanTag)
		if err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Msg("clan info fetch failed")
			continue
		}

		if upstream.CaptureLeaderboardsCount <= 0 {
			continue
		}

		peak := domain.ClanPeak{
			ClanID:            clan.ClanID,
			ClanTag:           clan.ClanTag,
			Peak:              upstream.CaptureLeaderboardsCount,
			RankedPoolPercent: upstream.RankedPoolPercentCaptured,
			ClanRank:          upstream.Rank,
			ClanPp:            upstream.Pp,
		}

		accepted, err := w.peaks.Set(peak)
		if err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Msg("clan peak update failed")
			continue
		}
		if !accepted {
			w.logger.Debug().
				Str("clan_tag", clan.ClanTag).
				Int("maps", upstream.CaptureLeaderboardsCount).
				Msg("clan peak unchanged")
			continue
		}

		content := fmt.Sprintf("# %s new peak: %d maps 🥳", clan.ClanTag, peak.Peak)
		if _, err := w.gateway.SendMessage(ctx, *guild.ContributionChannelID, discord.Message{
			Content:         content,
			AllowedMentions: &discord.AllowedMentions{Parse: []string{}},
		}); err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Str("channel_id", string(*guild.ContributionChannelID)).
				Msg("clan peak announcement failed")
			continue
		}

		w.logger.Info().
			Str("clan_tag", clan.ClanTag).
			Int("peak", peak.Peak).
			Msg("clan peak posted")
	}

	return nil
}

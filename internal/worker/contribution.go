package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/config"
	"beatleader-bot/internal/discord"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/repository"
	"beatleader-bot/internal/service"
)

// ContributionWorker posts the per-soldier contribution report to each
// clan guild's contribution channel at most once per configured interval.
// The posted-at stamp is written before the posting work so a crash cannot
// re-flood the channel on the next tick.
type ContributionWorker struct {
	guilds       *repository.GuildSettingsRepository
	players      *repository.PlayerRepository
	contribution *service.ContributionService
	gateway      discord.Gateway
	interval     time.Duration
	logger       zerolog.Logger
}

func NewContributionWorker(guilds *repository.GuildSettingsRepository, players *repository.PlayerRepository, contribution *service.ContributionService, gateway discord.Gateway, cfg *config.Config, logger zerolog.Logger) *ContributionWorker {
	return &ContributionWorker{
		guilds:       guilds,
		players:      players,
		contribution: contribution,
		gateway:      gateway,
		interval:     time.Duration(cfg.ClanWarsContributionInterval) * time.Minute,
		logger:       logger.With().Str("worker", "contribution").Logger(),
	}
}

func (w *ContributionWorker) Run(ctx context.Context) error {
	now := time.Now().UTC()

	for _, guild := range w.guilds.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		clan := guild.Clan
		if clan == nil || guild.ContributionChannelID == nil {
			continue
		}

		if clan.ContributionPostedAt != nil && now.Before(clan.ContributionPostedAt.Add(w.interval)) {
			continue
		}

		if _, err := w.guilds.SetContributionPostedAt(guild.GuildID, now); err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Msg("contribution posted time set failed")
			continue
		}

		if err := w.post(ctx, clan.ClanTag, *guild.ContributionChannelID, clan); err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Msg("contribution post failed")
		}
	}

	return nil
}

func (w *ContributionWorker) post(ctx context.Context, clanTag string, channelID domain.ChannelID, clan *domain.ClanSettings) error {
	soldiers := clanSoldiers(clan, w.players, w.logger)
	if len(soldiers) == 0 {
		w.logger.Info().Str("clan_tag", clanTag).Msg("no enlisted soldiers, skipping contribution")
		return nil
	}

	stats, bonusMapsCount, err := w.contribution.CapturedWithBonus(ctx, clanTag, soldiers)
	if err != nil {
		return err
	}
	if stats.MapsCount == 0 {
		w.logger.Info().Str("clan_tag", clanTag).Msg("no captured maps, skipping contribution")
		return nil
	}

	table := service.RenderTable(stats, bonusMapsCount)

	threadID, err := w.gateway.CreateThread(ctx, channelID, fmt.Sprintf("%s clan wars contribution", clanTag))
	if err != nil {
		w.logger.Warn().Err(err).
			Str("clan_tag", clanTag).
			Msg("contribution thread creation failed, posting to channel")
		threadID = channelID
	}

	if _, err := w.gateway.SendMessage(ctx, threadID, discord.Message{
		Content:         fmt.Sprintf("Current player contributions to maps captured by the %s clan", clanTag),
		AllowedMentions: &discord.AllowedMentions{Parse: []string{}},
		Files: []discord.File{{
			Name:        "contribution.txt",
			ContentType: "text/plain",
			Body:        []byte(table),
		}},
	}); err != nil {
		return err
	}

	if err := postInParts(ctx, w.gateway, threadID, service.RankingLines(stats)); err != nil {
		return err
	}

	w.logger.Info().
		Str("clan_tag", clanTag).
		Int("soldiers", len(stats.Soldiers)).
		Int("maps", stats.MapsCount).
		Msg("contribution posted")

	return nil
}

package worker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/config"
	"beatleader-bot/internal/discord"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/repository"
	"beatleader-bot/internal/service"
)

// ClanWarsWorker posts the clan's easiest maps to conquer into a fresh
// thread under the configured channel, at most once per interval per
// guild. Commander-ordered maps go first and get pinned.
type ClanWarsWorker struct {
	guilds    *repository.GuildSettingsRepository
	players   *repository.PlayerRepository
	maps      *repository.BsMapsRepository
	clanWars  *service.ClanWarsService
	gateway   discord.Gateway
	interval  time.Duration
	mapsCount int
	logger    zerolog.Logger
}

func NewClanWarsWorker(guilds *repository.GuildSettingsRepository, players *repository.PlayerRepository, maps *repository.BsMapsRepository, clanWars *service.ClanWarsService, gateway discord.Gateway, cfg *config.Config, logger zerolog.Logger) *ClanWarsWorker {
	return &ClanWarsWorker{
		guilds:    guilds,
		players:   players,
		maps:      maps,
		clanWars:  clanWars,
		gateway:   gateway,
		interval:  time.Duration(cfg.ClanWarsInterval) * time.Minute,
		mapsCount: cfg.ClanWarsMapsCount,
		logger:    logger.With().Str("worker", "clan_wars").Logger(),
	}
}

func (w *ClanWarsWorker) Run(ctx context.Context) error {
	now := time.Now().UTC()

	for _, guild := range w.guilds.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		clan := guild.Clan
		if clan == nil || guild.ClanWarsMapsChannelID == nil {
			continue
		}

		if clan.ClanWarsPostedAt != nil && now.Before(clan.ClanWarsPostedAt.Add(w.interval)) {
			continue
		}

		if _, err := w.guilds.SetClanWarsPostedAt(guild.GuildID, now); err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Msg("clan wars posted time set failed")
			continue
		}

		if err := w.post(ctx, clan, *guild.ClanWarsMapsChannelID); err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Msg("clan wars post failed")
		}
	}

	return nil
}

func (w *ClanWarsWorker) post(ctx context.Context, clan *domain.ClanSettings, channelID domain.ChannelID) error {
	var skipLeaderboardIDs []string
	for _, ban := range w.maps.MapListBans(clan.ClanTag) {
		skipLeaderboardIDs = append(skipLeaderboardIDs, ban.LeaderboardID)
	}

	wars, err := w.clanWars.Fetch(ctx, clan.ClanTag, api.SortToConquer, w.mapsCount, false, skipLeaderboardIDs)
	if err != nil {
		return err
	}
	if len(wars.Maps) == 0 {
		w.logger.Info().Str("clan_tag", clan.ClanTag).Msg("no contested maps to post")
		return nil
	}

	wars.SortByPpBoundary()

	// commander orders go to the front so they end up pinned on top
	orders := make(map[string]bool)
	for _, order := range w.maps.CommanderOrders(clan.ClanTag) {
		orders[order.LeaderboardID] = true
	}
	sort.SliceStable(wars.Maps, func(i, j int) bool {
		return orders[wars.Maps[i].Map.Leaderboard.ID] && !orders[wars.Maps[j].Map.Leaderboard.ID]
	})

	soldiers := clanSoldiers(clan, w.players, w.logger)

	threadID, err := w.gateway.CreateThread(ctx, channelID, fmt.Sprintf("%s clan wars maps", clan.ClanTag))
	if err != nil {
		w.logger.Warn().Err(err).
			Str("clan_tag", clan.ClanTag).
			Msg("clan wars thread creation failed, posting to channel")
		threadID = channelID
	}

	for i := range wars.Maps {
		if err := ctx.Err(); err != nil {
			return err
		}

		contested := &wars.Maps[i]

		content, mentioned := mapMessage(contested, soldiers)

		messageID, err := w.gateway.SendMessage(ctx, threadID, discord.Message{
			Content:         content,
			AllowedMentions: &discord.AllowedMentions{Parse: []string{}, Users: mentioned},
		})
		if err != nil {
			w.logger.Warn().Err(err).
				Str("leaderboard_id", contested.Map.Leaderboard.ID).
				Msg("clan wars map post failed")
			continue
		}

		if orders[contested.Map.Leaderboard.ID] {
			if err := w.gateway.PinMessage(ctx, threadID, messageID); err != nil {
				w.logger.Warn().Err(err).
					Str("leaderboard_id", contested.Map.Leaderboard.ID).
					Msg("commander order pin failed")
			}
		}
	}

	w.logger.Info().
		Str("clan_tag", clan.ClanTag).
		Int("maps", len(wars.Maps)).
		Msg("clan wars maps posted")

	return nil
}

// mapMessage renders one contested map and returns the players to mention
// because they have no score on it yet.
func mapMessage(contested *service.ClanMapWithScores, soldiers map[domain.PlayerID]domain.Player) (string, []domain.UserID) {
	m := &contested.Map
	page := (m.Rank-1)/10 + 1

	plural := ""
	if len(contested.Scores) != 1 {
		plural = "s"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### **#%d [%s / %s](https://www.beatleader.xyz/leaderboard/clanranking/%s/%d)**\n",
		m.Rank, m.Leaderboard.Song.Name, m.Leaderboard.Difficulty.DifficultyName, m.Leaderboard.ID, page)
	fmt.Fprintf(&sb, "%d score%s / %.2fpp / **%.2f raw pp**\n", len(contested.Scores), plural, m.Pp, contested.PpBoundary)
	fmt.Fprintf(&sb, " %s / %s SS / %s FS / %s SF\n",
		accText(contested.AccBoundary.None),
		accText(contested.AccBoundary.SS),
		accText(contested.AccBoundary.FS),
		accText(contested.AccBoundary.SF))

	var mentioned []domain.UserID
	playerIDs := make([]string, 0, len(soldiers))
	for playerID := range soldiers {
		playerIDs = append(playerIDs, string(playerID))
	}
	sort.Strings(playerIDs)

	for _, playerID := range playerIDs {
		if contested.HasScoreBy(playerID) {
			continue
		}
		mentioned = append(mentioned, soldiers[domain.PlayerID(playerID)].UserID)
	}

	if len(mentioned) > 0 {
		mentions := make([]string, len(mentioned))
		for i, userID := range mentioned {
			mentions[i] = fmt.Sprintf("<@%s>", userID)
		}
		fmt.Fprintf(&sb, "\nMissing a score: %s\n", strings.Join(mentions, " "))
	}

	return sb.String(), mentioned
}

func accText(acc *float64) string {
	if acc == nil {
		return "Not possible"
	}
	return fmt.Sprintf("%.2f%%", *acc*100.0)
}

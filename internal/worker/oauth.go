package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/config"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/repository"
)

// OAuthWorker keeps each clan owner's token fresh so the invite flow never
// hits an expired token mid-tick. Guilds without a completed OAuth link
// are skipped.
type OAuthWorker struct {
	guilds      *repository.GuildSettingsRepository
	tokens      *repository.PlayerOAuthTokenRepository
	blClient    *api.Client
	credentials *config.OAuthConfig
	interval    time.Duration
	logger      zerolog.Logger
}

func NewOAuthWorker(guilds *repository.GuildSettingsRepository, tokens *repository.PlayerOAuthTokenRepository, blClient *api.Client, cfg *config.Config, logger zerolog.Logger) *OAuthWorker {
	return &OAuthWorker{
		guilds:      guilds,
		tokens:      tokens,
		blClient:    blClient,
		credentials: cfg.OAuth,
		interval:    time.Duration(cfg.RefreshInterval) * time.Second,
		logger:      logger.With().Str("worker", "oauth").Logger(),
	}
}

func (w *OAuthWorker) Run(ctx context.Context) error {
	if w.credentials == nil {
		w.logger.Debug().Msg("no oauth credentials, skipping")
		return nil
	}

	margin := w.interval + constants.OAuthRefreshMargin

	for _, guild := range w.guilds.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		clan := guild.Clan
		if clan == nil || !clan.OAuthConfigured {
			continue
		}

		stored, ok := w.tokens.Get(clan.OwnerPlayerID)
		if !ok {
			w.logger.Warn().
				Str("clan_tag", clan.ClanTag).
				Str("owner", string(clan.OwnerPlayerID)).
				Msg("oauth is configured but no token stored")
			continue
		}

		if stored.Token.IsValidFor(margin) {
			continue
		}

		oauthClient := w.blClient.WithOAuth(api.OAuthCredentials{
			ClientID:     w.credentials.ClientID,
			ClientSecret: w.credentials.ClientSecret,
			RedirectURI:  w.credentials.RedirectURI,
		}, w.tokens.TokenStoreFor(clan.OwnerPlayerID))

		token, err := oauthClient.RefreshTokenIfNeeded(ctx, margin)
		if err != nil {
			w.logger.Error().Err(err).
				Str("clan_tag", clan.ClanTag).
				Msg("oauth token refresh failed")
			continue
		}

		w.logger.Info().
			Str("clan_tag", clan.ClanTag).
			Time("expiration", token.Expiration).
			Msg("oauth token refreshed")
	}

	return nil
}

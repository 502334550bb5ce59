package fx

import (
	"beatleader-bot/internal/api"
	"beatleader-bot/internal/config"
	"beatleader-bot/internal/discord"
	"beatleader-bot/internal/logger"
	"beatleader-bot/internal/metrics"
	"beatleader-bot/internal/repository"
	"beatleader-bot/internal/server"
	"beatleader-bot/internal/service"
	"beatleader-bot/internal/storage"
	"beatleader-bot/internal/worker"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvidePersist(cfg *config.Config) (*storage.PersistInstance, error) {
	return storage.NewPersistInstance(cfg.StoragePath)
}

func ProvideGateway(cfg *config.Config, logger zerolog.Logger) discord.Gateway {
	return discord.NewRestClient(cfg.DiscordToken, logger)
}

func ProvidePlayerScoresRepository(persist *storage.PersistInstance, blClient *api.Client, logger zerolog.Logger) (*repository.PlayerScoresRepository, error) {
	return repository.NewPlayerScoresRepository(persist, blClient, api.ContextGeneral, logger)
}

func ProvidePlaylistService(blClient *api.Client, scores *repository.PlayerScoresRepository, maps *repository.BsMapsRepository, playlists *repository.PlaylistRepository, cfg *config.Config, logger zerolog.Logger) *service.PlaylistService {
	return service.NewPlaylistService(blClient, scores, maps, playlists, cfg.Server.URL, logger)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Decorate(func(cfg *config.Config, base zerolog.Logger) zerolog.Logger {
		if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			return base.Level(level)
		}
		return base
	}),
	fx.Provide(metrics.New),
	fx.Provide(ProvidePersist),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(ProvidePlayerScoresRepository),
	fx.Provide(repository.NewGuildSettingsRepository),
	fx.Provide(repository.NewPlayerOAuthTokenRepository),
	fx.Provide(repository.NewClanPeakRepository),
	fx.Provide(repository.NewBsMapsRepository),
	fx.Provide(repository.NewPlaylistRepository),
	// upstream + chat clients
	fx.Provide(api.NewClient),
	fx.Provide(ProvideGateway),
	// svc
	fx.Provide(service.NewPlayerStatsService),
	fx.Provide(service.NewClanWarsService),
	fx.Provide(service.NewContributionService),
	fx.Provide(ProvidePlaylistService),
	// workers
	fx.Provide(worker.NewOAuthWorker),
	fx.Provide(worker.NewPeakWorker),
	fx.Provide(worker.NewRolesWorker),
	fx.Provide(worker.NewContributionWorker),
	fx.Provide(worker.NewClanWarsWorker),
	fx.Provide(worker.NewOrdersWorker),
	fx.Provide(worker.NewScheduler),
	// server
	fx.Provide(server.New),
)

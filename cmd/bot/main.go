package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"beatleader-bot/internal/constants"
	fxmodules "beatleader-bot/internal/fx"
	"beatleader-bot/internal/server"
	"beatleader-bot/internal/worker"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runBot),
	).Run()
}

func runBot(
	lc fx.Lifecycle,
	scheduler *worker.Scheduler,
	orders *worker.OrdersWorker,
	srv *server.Server,
	logger zerolog.Logger,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv.Start()

			go func() {
				defer close(done)
				scheduler.Run(runCtx)
			}()
			go orders.Run(runCtx)

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancelShutdown()

			select {
			case <-done:
			case <-shutdownCtx.Done():
				logger.Warn().Msg("refresh loop did not stop in time")
			}

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			logger.Info().Msg("stopped gracefully")
			return nil
		},
	})
}

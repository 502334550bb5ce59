package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/config"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/repository"
)

// OrdersWorker drops commander orders past the retention window so stale
// orders stop getting pinned. Runs on its own hourly loop, independent of
// the refresh ticks.
type OrdersWorker struct {
	maps      *repository.BsMapsRepository
	retention time.Duration
	logger    zerolog.Logger
}

func NewOrdersWorker(maps *repository.BsMapsRepository, cfg *config.Config, logger zerolog.Logger) *OrdersWorker {
	return &OrdersWorker{
		maps:      maps,
		retention: time.Duration(cfg.CommanderOrdersRetention) * 24 * time.Hour,
		logger:    logger.With().Str("worker", "orders").Logger(),
	}
}

// Run blocks until the context is cancelled.
func (w *OrdersWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.OrdersCleanupInterval)
	defer ticker.Stop()

	w.cleanup()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *OrdersWorker) cleanup() {
	cutoff := time.Now().UTC().Add(-w.retention)

	removed := 0
	for _, order := range w.maps.AllCommanderOrders() {
		if order.CreatedAt == nil || order.CreatedAt.After(cutoff) {
			continue
		}

		if _, err := w.maps.Remove(order.StorageKey()); err != nil {
			w.logger.Error().Err(err).
				Str("map_id", order.StorageKey()).
				Msg("commander order removal failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		w.logger.Info().Int("removed", removed).Msg("expired commander orders cleaned up")
	}
}

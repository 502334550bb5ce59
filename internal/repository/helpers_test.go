package repository

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/config"
	"beatleader-bot/internal/metrics"
	"beatleader-bot/internal/storage"
)

func newTestPersist(t *testing.T) *storage.PersistInstance {
	t.Helper()

	persist, err := storage.NewPersistInstance(t.TempDir())
	require.NoError(t, err)

	return persist
}

func newTestPlayerRepository(t *testing.T, persist *storage.PersistInstance) *PlayerRepository {
	t.Helper()

	blClient := api.NewClient(&config.Config{}, metrics.New(), zerolog.Nop())

	repo, err := NewPlayerRepository(persist, blClient, zerolog.Nop())
	require.NoError(t, err)

	return repo
}

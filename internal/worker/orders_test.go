package worker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/config"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/repository"
)

func commanderOrder(mapID, clanTag string, createdAt time.Time) domain.BsMap {
	return domain.BsMap{
		MapID:         mapID,
		LeaderboardID: "lb-" + mapID,
		MapType:       domain.BsMapTypeCommanderOrder,
		ClanTag:       clanTag,
		CreatedAt:     &createdAt,
	}
}

func TestOrdersWorkerCleanup(t *testing.T) {
	repos := newTestRepos(t)

	maps, err := repository.NewBsMapsRepository(repos.persist, zerolog.Nop())
	require.NoError(t, err)

	now := time.Now().UTC()

	_, err = maps.Save(commanderOrder("stale", "BSFR", now.Add(-8*24*time.Hour)))
	require.NoError(t, err)
	_, err = maps.Save(commanderOrder("fresh", "BSFR", now.Add(-time.Hour)))
	require.NoError(t, err)

	// personal maps are outside the retention sweep
	longAgo := now.Add(-30 * 24 * time.Hour)
	_, err = maps.Save(domain.BsMap{
		MapID:     "personal",
		MapType:   domain.BsMapTypePersonal,
		CreatedAt: &longAgo,
	})
	require.NoError(t, err)

	worker := NewOrdersWorker(maps, &config.Config{CommanderOrdersRetention: 7}, zerolog.Nop())
	worker.cleanup()

	_, ok := maps.Get("stale")
	assert.False(t, ok)
	_, ok = maps.Get("fresh")
	assert.True(t, ok)
	_, ok = maps.Get("personal")
	assert.True(t, ok)
}

package repository

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/domain"
)

func testBsMap(leaderboardID string, mapType domain.BsMapType, clanTag string) domain.BsMap {
	m := domain.BsMap{
		MapID:         domain.GeneratePlaylistID(),
		LeaderboardID: leaderboardID,
		SongName:      "song " + leaderboardID,
		MapType:       mapType,
		ClanTag:       clanTag,
	}
	return m
}

func TestBsMapsRepositoryFilters(t *testing.T) {
	repo, err := NewBsMapsRepository(newTestPersist(t), zerolog.Nop())
	require.NoError(t, err)

	for _, m := range []domain.BsMap{
		testBsMap("lb-1", domain.BsMapTypeCommanderOrder, "BSFR"),
		testBsMap("lb-2", domain.BsMapTypeCommanderOrder, "OTHER"),
		testBsMap("lb-3", domain.BsMapTypeMapListSkip, "BSFR"),
		testBsMap("lb-4", domain.BsMapTypePersonal, ""),
	} {
		_, err := repo.Save(m)
		require.NoError(t, err)
	}

	orders := repo.CommanderOrders("BSFR")
	require.Len(t, orders, 1)
	assert.Equal(t, "lb-1", orders[0].LeaderboardID)

	assert.Len(t, repo.AllCommanderOrders(), 2)

	bans := repo.MapListBans("BSFR")
	require.Len(t, bans, 1)
	assert.Equal(t, "lb-3", bans[0].LeaderboardID)

	_, ok := repo.CommanderOrder("lb-2", "BSFR")
	assert.False(t, ok)
	order, ok := repo.CommanderOrder("lb-1", "BSFR")
	require.True(t, ok)
	assert.Equal(t, "lb-1", order.LeaderboardID)
}

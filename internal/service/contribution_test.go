package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/pp"
)

func capturedWars(maps ...ClanMapWithScores) *ClanWars {
	return &ClanWars{ClanID: 7, ClanTag: "BSFR", Sort: api.SortToHold, Maps: maps}
}

func soldierPool(names ...string) map[domain.PlayerID]domain.Player {
	pool := make(map[domain.PlayerID]domain.Player, len(names))
	for _, name := range names {
		pool[domain.PlayerID(name)] = domain.Player{
			ID:   domain.PlayerID(name),
			Name: name,
		}
	}
	return pool
}

func TestFoldStatsSingleMap(t *testing.T) {
	wars := capturedWars(contestedMap(500,
		api.ClanRankingScore{PlayerID: "alice", Pp: 400},
		api.ClanRankingScore{PlayerID: "bob", Pp: 300},
	))

	stats := foldStats(wars, "BSFR", soldierPool("alice", "bob"))

	assert.Equal(t, "BSFR", stats.ClanTag)
	assert.Equal(t, 1, stats.MapsCount)
	assert.InDelta(t, 400+0.8*300, stats.TotalPp, 1e-9)

	require.Len(t, stats.Soldiers, 2)

	alice := stats.Soldiers[0]
	assert.Equal(t, "alice", alice.Name)
	assert.Equal(t, 1, alice.MapsCount)
	assert.InDelta(t, 400, alice.TotalPp, 1e-9)
	assert.InDelta(t, 400, alice.TotalWeightedPp, 1e-9)
	assert.InDelta(t, 100, alice.Efficiency, 1e-9)
	assert.InDelta(t, 1.0, alice.MapPercentages, 1e-9)
	assert.InDelta(t, pp.CurveAt(0.95), alice.Points, 1e-9)

	bob := stats.Soldiers[1]
	assert.InDelta(t, 0.8*300, bob.TotalWeightedPp, 1e-9)
	assert.InDelta(t, 80, bob.Efficiency, 1e-9)
	assert.InDelta(t, 0.75, bob.MapPercentages, 1e-9)
}

func TestFoldStatsDropsNonSoldiers(t *testing.T) {
	wars := capturedWars(contestedMap(500,
		api.ClanRankingScore{PlayerID: "alice", Pp: 400},
		api.ClanRankingScore{PlayerID: "stranger", Pp: 500},
	))

	stats := foldStats(wars, "BSFR", soldierPool("alice"))

	// the stranger still weighs on the clan total and on alice's rank
	assert.InDelta(t, 500+0.8*400, stats.TotalPp, 1e-9)

	require.Len(t, stats.Soldiers, 1)
	alice := stats.Soldiers[0]
	assert.Equal(t, "alice", alice.Name)
	assert.InDelta(t, 0.8*400, alice.TotalWeightedPp, 1e-9)
	assert.InDelta(t, 400.0/500.0, alice.MapPercentages, 1e-9)
}

func TestFoldStatsPartialCoverage(t *testing.T) {
	wars := capturedWars(
		contestedMap(500,
			api.ClanRankingScore{PlayerID: "alice", Pp: 400},
			api.ClanRankingScore{PlayerID: "bob", Pp: 200},
		),
		contestedMap(300,
			api.ClanRankingScore{PlayerID: "alice", Pp: 250},
		),
	)

	stats := foldStats(wars, "BSFR", soldierPool("alice", "bob"))

	assert.Equal(t, 2, stats.MapsCount)

	require.Len(t, stats.Soldiers, 2)
	alice, bob := stats.Soldiers[0], stats.Soldiers[1]

	assert.Equal(t, 2, alice.MapsCount)
	assert.InDelta(t, pp.CurveAt(0.95)*alice.MapPercentages, alice.Points, 1e-9)

	assert.Equal(t, 1, bob.MapsCount)
	assert.InDelta(t, pp.CurveAt(0.45)*bob.MapPercentages, bob.Points, 1e-9)
	assert.Greater(t, alice.Points, bob.Points)
}

func TestFoldStatsCoverageFloor(t *testing.T) {
	maps := make([]ClanMapWithScores, 25)
	for i := range maps {
		playerID := "crowd"
		if i == 0 {
			playerID = "alice"
		}
		maps[i] = contestedMap(100, api.ClanRankingScore{PlayerID: playerID, Pp: 100})
	}

	stats := foldStats(capturedWars(maps...), "BSFR", soldierPool("alice"))

	require.Len(t, stats.Soldiers, 1)
	alice := stats.Soldiers[0]

	// 1/25 coverage lands below the 5% grace, the curve floor applies
	assert.InDelta(t, pp.CurveAt(0.01)*alice.MapPercentages, alice.Points, 1e-9)
}

func TestFoldStatsEmptyWars(t *testing.T) {
	stats := foldStats(capturedWars(), "BSFR", soldierPool("alice"))

	assert.Equal(t, 0, stats.MapsCount)
	assert.Empty(t, stats.Soldiers)
	assert.Zero(t, stats.TotalPp)
}

func TestRenderTable(t *testing.T) {
	wars := capturedWars(contestedMap(500,
		api.ClanRankingScore{PlayerID: "alice", Pp: 400},
		api.ClanRankingScore{PlayerID: "bob", Pp: 300},
	))
	stats := foldStats(wars, "BSFR", soldierPool("alice", "bob"))

	table := RenderTable(stats, 20)

	assert.Contains(t, table, "// BSFR //")
	assert.Contains(t, table, "Captured maps: 1")
	assert.Contains(t, table, "Bonus (to conquer) maps: 20")
	assert.Contains(t, table, "Soldier")
	assert.Contains(t, table, "Efficiency")
	assert.Contains(t, table, "alice")
	assert.Contains(t, table, "bob")

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "bob"))
}

func TestRankingLines(t *testing.T) {
	soldiers := make([]ClanSoldierStats, 12)
	for i := range soldiers {
		soldiers[i] = ClanSoldierStats{
			Name:        "soldier",
			TotalPoints: float64(100 - i),
		}
	}
	stats := &ClanStats{Soldiers: soldiers}

	lines := RankingLines(stats)

	require.Len(t, lines, 12)
	assert.Equal(t, "01. soldier **100.00 points**\n", lines[0])
	assert.Equal(t, "12. soldier **89.00 points**\n", lines[11])
}

func TestSortByTotalPoints(t *testing.T) {
	soldiers := []ClanSoldierStats{
		{Name: "low", TotalPoints: 10},
		{Name: "high", TotalPoints: 30},
		{Name: "tie-more-captured", TotalPoints: 20, Points: 20},
		{Name: "tie-more-bonus", TotalPoints: 20, Points: 10},
	}

	sortByTotalPoints(soldiers)

	names := make([]string, 0, len(soldiers))
	for _, soldier := range soldiers {
		names = append(names, soldier.Name)
	}
	assert.Equal(t, []string{"high", "tie-more-captured", "tie-more-bonus", "low"}, names)
}

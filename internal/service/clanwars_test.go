package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/pp"
)

func contestedMap(mapPp float64, scores ...api.ClanRankingScore) ClanMapWithScores {
	return ClanMapWithScores{
		Map: api.ClanMap{
			Pp: mapPp,
			Leaderboard: api.Leaderboard{
				Difficulty: api.Difficulty{
					ModeName:   "Standard",
					PassRating: 8,
					AccRating:  6,
					TechRating: 4,
				},
			},
		},
		Scores: scores,
	}
}

func TestCalcPpBoundary(t *testing.T) {
	contested := contestedMap(-150,
		api.ClanRankingScore{PlayerID: "p1", Pp: 400},
		api.ClanRankingScore{PlayerID: "p2", Pp: 300},
	)

	contested.CalcPpBoundary("")

	want := pp.Boundary(pp.ClanWeightCoefficient, []float64{400, 300}, 150)
	assert.InDelta(t, want, contested.PpBoundary, 1e-9)
	assert.Greater(t, contested.PpBoundary, 0.0)

	require.NotNil(t, contested.AccBoundary.None)
	assert.Greater(t, *contested.AccBoundary.None, 0.0)

	// no modifier ratings published, so the variants stay unreachable
	assert.Nil(t, contested.AccBoundary.SS)
	assert.Nil(t, contested.AccBoundary.FS)
	assert.Nil(t, contested.AccBoundary.SF)
}

func TestCalcPpBoundaryWithoutPlayer(t *testing.T) {
	scores := []api.ClanRankingScore{
		{PlayerID: "p1", Pp: 400},
		{PlayerID: "p2", Pp: 300},
	}

	all := contestedMap(-150, scores...)
	all.CalcPpBoundary("")

	without := contestedMap(-150, scores...)
	without.CalcPpBoundary("p1")

	want := pp.Boundary(pp.ClanWeightCoefficient, []float64{300}, 150)
	assert.InDelta(t, want, without.PpBoundary, 1e-9)
	assert.Greater(t, without.PpBoundary, all.PpBoundary)
}

func TestCalcPpBoundaryCapturedMap(t *testing.T) {
	contested := contestedMap(250, api.ClanRankingScore{PlayerID: "p1", Pp: 400})

	contested.CalcPpBoundary("")

	// held with margin, the boundary reports how much slack remains
	assert.Negative(t, contested.PpBoundary)
	assert.Nil(t, contested.AccBoundary.None)
	assert.Nil(t, contested.AccBoundary.SS)
}

func TestCalcPpBoundaryModifierVariants(t *testing.T) {
	contested := contestedMap(-150, api.ClanRankingScore{PlayerID: "p1", Pp: 400})
	contested.Map.Leaderboard.Difficulty.ModifiersRating = &api.ModifiersRating{
		SsPassRating: 7, SsAccRating: 5.5, SsTechRating: 3.5,
		FsPassRating: 9, FsAccRating: 6.5, FsTechRating: 4.5,
		SfPassRating: 10, SfAccRating: 7, SfTechRating: 5,
	}

	contested.CalcPpBoundary("")

	require.NotNil(t, contested.AccBoundary.None)
	require.NotNil(t, contested.AccBoundary.SS)
	require.NotNil(t, contested.AccBoundary.FS)
	require.NotNil(t, contested.AccBoundary.SF)

	// harder ratings reach the same boundary at lower accuracy
	assert.Greater(t, *contested.AccBoundary.SS, *contested.AccBoundary.None)
	assert.Greater(t, *contested.AccBoundary.None, *contested.AccBoundary.FS)
	assert.Greater(t, *contested.AccBoundary.FS, *contested.AccBoundary.SF)
}

func TestHasScoreBy(t *testing.T) {
	contested := contestedMap(-10, api.ClanRankingScore{PlayerID: "p1", Pp: 100})

	assert.True(t, contested.HasScoreBy("p1"))
	assert.False(t, contested.HasScoreBy("p2"))
}

func TestSortByPpBoundary(t *testing.T) {
	wars := ClanWars{
		Maps: []ClanMapWithScores{
			{PpBoundary: 300},
			{PpBoundary: 50},
			{PpBoundary: 120},
		},
	}

	wars.SortByPpBoundary()

	assert.Equal(t, []float64{50, 120, 300}, []float64{
		wars.Maps[0].PpBoundary,
		wars.Maps[1].PpBoundary,
		wars.Maps[2].PpBoundary,
	})
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/api"
)

func TestHasSkippedModifiers(t *testing.T) {
	tests := []struct {
		modifiers string
		want      bool
	}{
		{"", false},
		{"GN", false},
		{"NF", true},
		{"SS,NB", true},
		{"FS, NO", true},
		{"NA", true},
		{"OP", true},
		{"SF,GN", false},
	}

	for _, tt := range tests {
		t.Run("modifiers "+tt.modifiers, func(t *testing.T) {
			score := Score{Modifiers: tt.modifiers}
			assert.Equal(t, tt.want, score.HasSkippedModifiers())
		})
	}
}

func upstreamScore(modifiers string, ratings *api.ModifiersRating) api.Score {
	return api.Score{
		ID:            42,
		LeaderboardID: "lb-1",
		Pp:            321.5,
		Modifiers:     modifiers,
		MissedNotes:   2,
		BadCuts:       1,
		BombCuts:      1,
		WallsHit:      3,
		Timepost:      1700000000,
		Leaderboard: api.Leaderboard{
			ID: "lb-1",
			Song: api.Song{
				Name:   "song",
				Author: "author",
				Hash:   "hash",
			},
			Difficulty: api.Difficulty{
				DifficultyName:  "ExpertPlus",
				ModeName:        "Standard",
				Stars:           10,
				PassRating:      8,
				AccRating:       6,
				TechRating:      4,
				ModifiersRating: ratings,
			},
		},
	}
}

func TestScoreFromUpstreamAppliedRating(t *testing.T) {
	ratings := &api.ModifiersRating{
		SsStars: 9, SsPassRating: 7, SsAccRating: 5.5, SsTechRating: 3.5,
		FsStars: 11, FsPassRating: 9, FsAccRating: 6.5, FsTechRating: 4.5,
		SfStars: 12, SfPassRating: 10, SfAccRating: 7, SfTechRating: 5,
	}

	tests := []struct {
		name      string
		modifiers string
		wantStars float64
	}{
		{"no modifiers keeps base", "", 10},
		{"unrelated modifier keeps base", "GN", 10},
		{"slower song", "SS", 9},
		{"faster song", "FS", 11},
		{"super fast song", "SF", 12},
		{"super fast wins over faster", "FS,SF", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreFromUpstream(upstreamScore(tt.modifiers, ratings))

			assert.Equal(t, tt.wantStars, score.AppliedRating.Stars)
			assert.Equal(t, 10.0, score.OriginalRating.Stars)
		})
	}
}

func TestScoreFromUpstreamWithoutModifierRatings(t *testing.T) {
	score := ScoreFromUpstream(upstreamScore("SF", nil))

	assert.Equal(t, score.OriginalRating, score.AppliedRating)
}

func TestScoreFromUpstreamDerivedFields(t *testing.T) {
	score := ScoreFromUpstream(upstreamScore("", nil))

	assert.Equal(t, 7, score.Mistakes)
	assert.Equal(t, int64(1700000000), score.Timepost.Unix())
	assert.Equal(t, "song", score.SongName)
	assert.Equal(t, "lb-1", score.LeaderboardID)
}

func TestRankedPps(t *testing.T) {
	scores := PlayerScores{
		Scores: []Score{
			{Pp: 400},
			{Pp: 0},
			{Pp: 250.5},
		},
	}

	pps := scores.RankedPps()

	require.Len(t, pps, 2)
	assert.Equal(t, []float64{400, 250.5}, pps)
}

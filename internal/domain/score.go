package domain

import (
	"slices"
	"strings"
	"time"

	"beatleader-bot/internal/api"
)

// Modifiers that disqualify a score from ranked aggregates.
var skippedModifiers = []string{"NF", "NB", "NO", "NA", "OP"}

// MapRating is one variant of a map's difficulty rating.
type MapRating struct {
	Stars      float64 `json:"stars"`
	PassRating float64 `json:"passRating"`
	AccRating  float64 `json:"accRating"`
	TechRating float64 `json:"techRating"`
}

func (r MapRating) StarRating() StarRatingTriple {
	return StarRatingTriple{Pass: r.PassRating, Tech: r.TechRating, Acc: r.AccRating}
}

// StarRatingTriple mirrors the PP engine's input without importing it.
type StarRatingTriple struct {
	Pass float64
	Tech float64
	Acc  float64
}

// Score is one attempt on a leaderboard. OriginalRating reflects the base
// difficulty, AppliedRating the modifiers actually played.
type Score struct {
	ID            int64  `json:"id"`
	LeaderboardID string `json:"leaderboardId"`

	SongName    string `json:"songName"`
	SongSubName string `json:"songSubName"`
	SongAuthor  string `json:"songAuthor"`
	SongMapper  string `json:"songMapper"`
	SongHash    string `json:"songHash"`

	DifficultyName string `json:"difficultyName"`
	ModeName       string `json:"modeName"`
	Status         int    `json:"status"`

	BaseScore     int     `json:"baseScore"`
	ModifiedScore int     `json:"modifiedScore"`
	Accuracy      float64 `json:"accuracy"`
	Pp            float64 `json:"pp"`
	AccPp         float64 `json:"accPp"`
	TechPp        float64 `json:"techPp"`
	PassPp        float64 `json:"passPp"`
	Rank          int     `json:"rank"`

	Modifiers string `json:"modifiers"`
	FullCombo bool   `json:"fullCombo"`
	Mistakes  int    `json:"mistakes"`
	Pauses    int    `json:"pauses"`
	MaxCombo  int    `json:"maxCombo"`

	OriginalRating MapRating `json:"originalRating"`
	AppliedRating  MapRating `json:"appliedRating"`

	Timepost time.Time `json:"timepost"`
}

// HasSkippedModifiers reports whether the score is excluded from ranked
// aggregates.
func (s *Score) HasSkippedModifiers() bool {
	for _, modifier := range strings.Split(s.Modifiers, ",") {
		modifier = strings.TrimSpace(modifier)
		for _, skipped := range skippedModifiers {
			if modifier == skipped {
				return true
			}
		}
	}
	return false
}

// ScoreFromUpstream maps the upstream DTO, resolving the rating the played
// modifiers select.
func ScoreFromUpstream(score api.Score) Score {
	difficulty := score.Leaderboard.Difficulty

	original := MapRating{
		Stars:      difficulty.Stars,
		PassRating: difficulty.PassRating,
		AccRating:  difficulty.AccRating,
		TechRating: difficulty.TechRating,
	}

	return Score{
		ID:             score.ID,
		LeaderboardID:  score.LeaderboardID,
		SongName:       score.Leaderboard.Song.Name,
		SongSubName:    score.Leaderboard.Song.SubName,
		SongAuthor:     score.Leaderboard.Song.Author,
		SongMapper:     score.Leaderboard.Song.Mapper,
		SongHash:       score.Leaderboard.Song.Hash,
		DifficultyName: difficulty.DifficultyName,
		ModeName:       difficulty.ModeName,
		Status:         difficulty.Status,
		BaseScore:      score.BaseScore,
		ModifiedScore:  score.ModifiedScore,
		Accuracy:       score.Accuracy,
		Pp:             score.Pp,
		AccPp:          score.AccPp,
		TechPp:         score.TechPp,
		PassPp:         score.PassPp,
		Rank:           score.Rank,
		Modifiers:      score.Modifiers,
		FullCombo:      score.FullCombo,
		Mistakes:       score.MissedNotes + score.BadCuts + score.BombCuts + score.WallsHit,
		Pauses:         score.Pauses,
		MaxCombo:       score.MaxCombo,
		OriginalRating: original,
		AppliedRating:  appliedRating(original, difficulty.ModifiersRating, score.Modifiers),
		Timepost:       time.Unix(score.Timepost, 0).UTC(),
	}
}

func appliedRating(original MapRating, modifiers *api.ModifiersRating, played string) MapRating {
	if modifiers == nil {
		return original
	}

	switch {
	case strings.Contains(played, "SF"):
		return MapRating{
			Stars:      modifiers.SfStars,
			PassRating: modifiers.SfPassRating,
			AccRating:  modifiers.SfAccRating,
			TechRating: modifiers.SfTechRating,
		}
	case strings.Contains(played, "FS"):
		return MapRating{
			Stars:      modifiers.FsStars,
			PassRating: modifiers.FsPassRating,
			AccRating:  modifiers.FsAccRating,
			TechRating: modifiers.FsTechRating,
		}
	case strings.Contains(played, "SS"):
		return MapRating{
			Stars:      modifiers.SsStars,
			PassRating: modifiers.SsPassRating,
			AccRating:  modifiers.SsAccRating,
			TechRating: modifiers.SsTechRating,
		}
	default:
		return original
	}
}

// PlayerScores is the persisted score list of one player in one
// difficulty context, overwritten atomically on each successful refresh.
type PlayerScores struct {
	PlayerID PlayerID  `json:"playerId"`
	Context  string    `json:"context"`
	Scores   []Score   `json:"scores"`
	Updated  time.Time `json:"updated"`
}

func (s PlayerScores) StorageKey() PlayerID {
	return s.PlayerID
}

func (s PlayerScores) Clone() PlayerScores {
	s.Scores = slices.Clone(s.Scores)
	return s
}

// RankedPps collects the PP values usable for weighted aggregates.
func (s *PlayerScores) RankedPps() []float64 {
	pps := make([]float64, 0, len(s.Scores))
	for i := range s.Scores {
		if s.Scores[i].Pp > 0 {
			pps = append(pps, s.Scores[i].Pp)
		}
	}
	return pps
}

package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/pp"
)

// AccBoundary is the accuracy needed to reach the PP boundary per
// modifier variant. nil means unreachable or no rating published.
type AccBoundary struct {
	None *float64 `json:"none"`
	SS   *float64 `json:"ss"`
	FS   *float64 `json:"fs"`
	SF   *float64 `json:"sf"`
}

// ClanMapWithScores is one contested map, the clan's scores on it and the
// derived capture boundaries.
type ClanMapWithScores struct {
	Map         api.ClanMap            `json:"map"`
	Scores      []api.ClanRankingScore `json:"scores"`
	PpBoundary  float64                `json:"ppBoundary"`
	AccBoundary AccBoundary            `json:"accBoundary"`
}

// CalcPpBoundary derives the raw PP a new score must exceed to flip the
// map's capture state. A negative map PP diff means a deficit to recover.
// withoutPlayer excludes that player's existing score, simulating their
// improvement.
func (m *ClanMapWithScores) CalcPpBoundary(withoutPlayer string) {
	pps := make([]float64, 0, len(m.Scores))
	for i := range m.Scores {
		if withoutPlayer != "" && m.Scores[i].PlayerID == withoutPlayer {
			continue
		}
		pps = append(pps, m.Scores[i].Pp)
	}

	m.PpBoundary = pp.Boundary(pp.ClanWeightCoefficient, pps, -m.Map.Pp)

	m.calcAccBoundary()
}

func (m *ClanMapWithScores) calcAccBoundary() {
	m.AccBoundary = AccBoundary{}

	if m.PpBoundary <= 0 {
		return
	}

	difficulty := m.Map.Leaderboard.Difficulty

	m.AccBoundary.None = accFromPp(m.PpBoundary, pp.StarRating{
		Pass: difficulty.PassRating,
		Tech: difficulty.TechRating,
		Acc:  difficulty.AccRating,
	}, difficulty.ModeName)

	ratings := difficulty.ModifiersRating
	if ratings == nil {
		return
	}

	m.AccBoundary.SS = accFromPp(m.PpBoundary, pp.StarRating{
		Pass: ratings.SsPassRating,
		Tech: ratings.SsTechRating,
		Acc:  ratings.SsAccRating,
	}, difficulty.ModeName)
	m.AccBoundary.FS = accFromPp(m.PpBoundary, pp.StarRating{
		Pass: ratings.FsPassRating,
		Tech: ratings.FsTechRating,
		Acc:  ratings.FsAccRating,
	}, difficulty.ModeName)
	m.AccBoundary.SF = accFromPp(m.PpBoundary, pp.StarRating{
		Pass: ratings.SfPassRating,
		Tech: ratings.SfTechRating,
		Acc:  ratings.SfAccRating,
	}, difficulty.ModeName)
}

// HasScoreBy reports whether the given player already scored on the map.
func (m *ClanMapWithScores) HasScoreBy(playerID string) bool {
	for i := range m.Scores {
		if m.Scores[i].PlayerID == playerID {
			return true
		}
	}
	return false
}

func accFromPp(targetPp float64, rating pp.StarRating, modeName string) *float64 {
	acc, ok := pp.AccFromPp(targetPp, rating, modeName)
	if !ok {
		return nil
	}
	return &acc
}

// ClanWars is the ephemeral snapshot of one clan's contested maps in one
// sort mode. It is recomputed on every use, never persisted.
type ClanWars struct {
	ClanID  int64
	ClanTag string
	Sort    api.ClanMapsSort
	Maps    []ClanMapWithScores
}

// SortByPpBoundary orders maps easiest to close first.
func (w *ClanWars) SortByPpBoundary() {
	sort.Slice(w.Maps, func(i, j int) bool {
		return w.Maps[i].PpBoundary < w.Maps[j].PpBoundary
	})
}

type ClanWarsService struct {
	blClient *api.Client
	logger   zerolog.Logger
}

func NewClanWarsService(blClient *api.Client, logger zerolog.Logger) *ClanWarsService {
	return &ClanWarsService{
		blClient: blClient,
		logger:   logger,
	}
}

// Fetch collects up to mapsCount contested maps for the clan and, unless
// withoutScores is set, each map's clan scores plus the derived
// boundaries. skipLeaderboardIDs drops banned maps before any score work.
func (s *ClanWarsService) Fetch(ctx context.Context, clanTag string, sortMode api.ClanMapsSort, mapsCount int, withoutScores bool, skipLeaderboardIDs []string) (*ClanWars, error) {
	s.logger.Debug().
		Str("clan_tag", clanTag).
		Str("sort", string(sortMode)).
		Int("maps_count", mapsCount).
		Msg("fetching clan wars maps")

	clan, err := s.blClient.GetClan(ctx, clanTag)
	if err != nil {
		return nil, err
	}

	clanMaps, _, err := s.blClient.GetClanMaps(ctx, clanTag, sortMode, constants.ClanMapsPageSize, mapsCount)
	if err != nil {
		return nil, err
	}

	skipped := make(map[string]bool, len(skipLeaderboardIDs))
	for _, id := range skipLeaderboardIDs {
		skipped[id] = true
	}

	wars := &ClanWars{
		ClanID:  clan.ID,
		ClanTag: clanTag,
		Sort:    sortMode,
		Maps:    make([]ClanMapWithScores, 0, len(clanMaps)),
	}

	for _, clanMap := range clanMaps {
		if skipped[clanMap.Leaderboard.ID] {
			continue
		}

		mapWithScores := ClanMapWithScores{Map: clanMap}

		if !withoutScores {
			scores, err := s.blClient.GetClanRankingScores(ctx, clanMap.Leaderboard.ID, clanMap.ID, constants.ClanWarsScoresPageSize)
			if err != nil {
				return nil, err
			}

			// the ranking payload carries fresher difficulty ratings
			if len(scores) > 0 {
				mapWithScores.Map.Leaderboard.Difficulty = scores[0].Leaderboard.Difficulty
			}

			mapWithScores.Scores = scores
		}

		mapWithScores.CalcPpBoundary("")

		wars.Maps = append(wars.Maps, mapWithScores)
	}

	s.logger.Debug().
		Str("clan_tag", clanTag).
		Int("maps", len(wars.Maps)).
		Msg("clan wars maps fetched")

	return wars, nil
}

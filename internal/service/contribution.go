package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/pp"
	"beatleader-bot/internal/repository"
)

// ClanSoldierStats is one enlisted player's contribution to the clan's
// captured maps, plus bonus points from maps still to conquer.
type ClanSoldierStats struct {
	PlayerID domain.PlayerID `json:"playerId"`
	Name     string          `json:"name"`

	MapsCount       int     `json:"mapsCount"`
	TotalPp         float64 `json:"totalPp"`
	TotalWeightedPp float64 `json:"totalWeightedPp"`
	Efficiency      float64 `json:"efficiency"`
	MapPercentages  float64 `json:"mapPercentages"`
	Points          float64 `json:"points"`

	BonusMapsCount int     `json:"bonusMapsCount"`
	BonusPoints    float64 `json:"bonusPoints"`
	TotalPoints    float64 `json:"totalPoints"`
}

type ClanStats struct {
	ClanTag   string             `json:"clanTag"`
	MapsCount int                `json:"mapsCount"`
	TotalPp   float64            `json:"totalPp"`
	Soldiers  []ClanSoldierStats `json:"soldiers"`
}

// ContributionService scores each enlisted soldier's share of the clan's
// captured map pool.
type ContributionService struct {
	clanWars *ClanWarsService
	scores   *repository.PlayerScoresRepository
	logger   zerolog.Logger
}

func NewContributionService(clanWars *ClanWarsService, scores *repository.PlayerScoresRepository, logger zerolog.Logger) *ContributionService {
	return &ContributionService{
		clanWars: clanWars,
		scores:   scores,
		logger:   logger,
	}
}

// CapturedWithBonus builds the full contribution report: captured-map
// stats plus a bonus pass over the to-conquer list. The bonus map count is
// the captured count clamped to [MinBonusMaps, MaxBonusMaps]; bonus points
// flow into the total with the clan weight coefficient.
func (s *ContributionService) CapturedWithBonus(ctx context.Context, clanTag string, soldiers map[domain.PlayerID]domain.Player) (*ClanStats, int, error) {
	captured, err := s.Stats(ctx, clanTag, api.SortToHold, 0, soldiers)
	if err != nil {
		return nil, 0, err
	}

	bonusMapsCount := captured.MapsCount
	if bonusMapsCount < constants.ContributionBonusMapsMin {
		bonusMapsCount = constants.ContributionBonusMapsMin
	}
	if bonusMapsCount > constants.ContributionBonusMapsMax {
		bonusMapsCount = constants.ContributionBonusMapsMax
	}

	conquer, err := s.Stats(ctx, clanTag, api.SortToConquer, bonusMapsCount, soldiers)
	if err != nil {
		s.logger.Warn().Err(err).Str("clan_tag", clanTag).Msg("bonus stats fetch failed, reporting captured maps only")

		for i := range captured.Soldiers {
			captured.Soldiers[i].TotalPoints = captured.Soldiers[i].Points
		}
		sortByTotalPoints(captured.Soldiers)

		return captured, 0, nil
	}

	bonus := make(map[domain.PlayerID]ClanSoldierStats, len(conquer.Soldiers))
	for _, soldier := range conquer.Soldiers {
		bonus[soldier.PlayerID] = soldier
	}

	for i := range captured.Soldiers {
		soldier := &captured.Soldiers[i]
		soldier.TotalPoints = soldier.Points

		if b, ok := bonus[soldier.PlayerID]; ok {
			soldier.BonusMapsCount = b.MapsCount
			soldier.BonusPoints = b.Points
			soldier.TotalPoints += constants.ContributionBonusWeight * b.Points
			delete(bonus, soldier.PlayerID)
		}
	}

	// soldiers with bonus-only contribution still make the list
	for _, b := range bonus {
		captured.Soldiers = append(captured.Soldiers, ClanSoldierStats{
			PlayerID:       b.PlayerID,
			Name:           b.Name,
			BonusMapsCount: b.MapsCount,
			BonusPoints:    b.Points,
			TotalPoints:    constants.ContributionBonusWeight * b.Points,
		})
	}

	sortByTotalPoints(captured.Soldiers)

	return captured, conquer.MapsCount, nil
}

// Stats fetches the clan's map list in the given sort (without upstream
// scores), merges in the soldiers' locally stored scores and folds them
// into per-soldier contribution stats. mapsCount 0 means all maps.
func (s *ContributionService) Stats(ctx context.Context, clanTag string, sortMode api.ClanMapsSort, mapsCount int, soldiers map[domain.PlayerID]domain.Player) (*ClanStats, error) {
	wars, err := s.clanWars.Fetch(ctx, clanTag, sortMode, mapsCount, true, nil)
	if err != nil {
		return nil, err
	}

	mapIdx := make(map[string]int, len(wars.Maps))
	for i := range wars.Maps {
		mapIdx[wars.Maps[i].Map.Leaderboard.ID] = i
	}

	for playerID := range soldiers {
		playerScores, ok := s.scores.Get(playerID)
		if !ok {
			continue
		}

		for i := range playerScores.Scores {
			score := &playerScores.Scores[i]

			idx, relevant := mapIdx[score.LeaderboardID]
			if !relevant {
				continue
			}

			wars.Maps[idx].Scores = append(wars.Maps[idx].Scores, api.ClanRankingScore{
				PlayerID:      string(playerID),
				LeaderboardID: score.LeaderboardID,
				Accuracy:      score.Accuracy,
				Pp:            score.Pp,
				Rank:          score.Rank,
				Modifiers:     score.Modifiers,
				FullCombo:     score.FullCombo,
				Timepost:      score.Timepost.Unix(),
			})
		}
	}

	return foldStats(wars, clanTag, soldiers), nil
}

// foldStats turns merged clan-wars maps into per-soldier contribution
// stats. Only enlisted soldiers survive into the result.
func foldStats(wars *ClanWars, clanTag string, soldiers map[domain.PlayerID]domain.Player) *ClanStats {
	stats := &ClanStats{ClanTag: clanTag}
	perPlayer := make(map[domain.PlayerID]*ClanSoldierStats)

	for i := range wars.Maps {
		clanMap := &wars.Maps[i]
		stats.MapsCount++

		sort.SliceStable(clanMap.Scores, func(a, b int) bool {
			return clanMap.Scores[a].Pp > clanMap.Scores[b].Pp
		})

		var maxMapPp float64
		if len(clanMap.Scores) > 0 {
			maxMapPp = clanMap.Scores[0].Pp
		}

		for rank, score := range clanMap.Scores {
			weighted := score.Pp * math.Pow(pp.ClanWeightCoefficient, float64(rank))
			stats.TotalPp += weighted

			playerID := domain.PlayerID(score.PlayerID)
			soldier, ok := perPlayer[playerID]
			if !ok {
				soldier = &ClanSoldierStats{PlayerID: playerID}
				perPlayer[playerID] = soldier
			}

			soldier.MapsCount++
			soldier.TotalPp += score.Pp
			soldier.TotalWeightedPp += weighted
			if maxMapPp > 0 {
				soldier.MapPercentages += score.Pp / maxMapPp
			}
		}
	}

	stats.Soldiers = make([]ClanSoldierStats, 0, len(perPlayer))
	for playerID, soldier := range perPlayer {
		player, enlisted := soldiers[playerID]
		if !enlisted {
			continue
		}
		soldier.Name = player.Name

		if soldier.TotalPp > 0 {
			soldier.Efficiency = soldier.TotalWeightedPp / soldier.TotalPp * 100.0
		}

		if stats.MapsCount > 0 {
			ratio := float64(soldier.MapsCount) / float64(stats.MapsCount)
			soldier.Points = soldier.MapPercentages * pp.CurveAt(math.Max(0.01, ratio-0.05))
		}

		stats.Soldiers = append(stats.Soldiers, *soldier)
	}

	sortByTotalPoints(stats.Soldiers)

	return stats
}

// RenderTable formats the contribution report as a monospace table for a
// file attachment.
func RenderTable(stats *ClanStats, bonusMapsCount int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "// %s //\n\nCaptured maps: %d\nBonus (to conquer) maps: %d\n\n", stats.ClanTag, stats.MapsCount, bonusMapsCount)

	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Soldier\tCap. points\tBonus points\tTotal points\tCap. maps\tBonus maps\tTotal pp\tContrib. pp\tEfficiency\tContrib. %")
	for _, soldier := range stats.Soldiers {
		contribPercent := 0.0
		if stats.TotalPp > 0 {
			contribPercent = soldier.TotalWeightedPp / stats.TotalPp * 100.0
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%d/%d\t%d/%d\t%.2f\t%.2f\t%.2f%%\t%.2f%%\n",
			soldier.Name,
			soldier.Points,
			soldier.BonusPoints*constants.ContributionBonusWeight,
			soldier.TotalPoints,
			soldier.MapsCount, stats.MapsCount,
			soldier.BonusMapsCount, bonusMapsCount,
			soldier.TotalPp,
			soldier.TotalWeightedPp,
			soldier.Efficiency,
			contribPercent,
		)
	}
	w.Flush()

	return sb.String()
}

// RankingLines renders the numbered contribution ranking, one soldier per
// line, for chat posting.
func RankingLines(stats *ClanStats) []string {
	pad := len(fmt.Sprintf("%d", len(stats.Soldiers)))
	if pad < 1 {
		pad = 1
	}

	lines := make([]string, 0, len(stats.Soldiers))
	for idx, soldier := range stats.Soldiers {
		lines = append(lines, fmt.Sprintf("%0*d. %s **%.2f points**\n", pad, idx+1, soldier.Name, soldier.TotalPoints))
	}
	return lines
}

func sortByTotalPoints(soldiers []ClanSoldierStats) {
	sort.SliceStable(soldiers, func(i, j int) bool {
		if soldiers[i].TotalPoints != soldiers[j].TotalPoints {
			return soldiers[i].TotalPoints > soldiers[j].TotalPoints
		}
		return soldiers[i].Points > soldiers[j].Points
	})
}

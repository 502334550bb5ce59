package api

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"
)

type Clan struct {
	ID                        int64   `json:"id"`
	Tag                       string  `json:"tag"`
	Name                      string  `json:"name"`
	Color                     string  `json:"color"`
	Icon                      string  `json:"icon"`
	LeaderID                  string  `json:"leaderID"`
	Pp                        float64 `json:"pp"`
	Rank                      int     `json:"rank"`
	AverageAccuracy           float64 `json:"averageAccuracy"`
	AverageRank               float64 `json:"averageRank"`
	PlayersCount              int     `json:"playersCount"`
	CaptureLeaderboardsCount  int     `json:"captureLeaderboardsCount"`
	RankedPoolPercentCaptured float64 `json:"rankedPoolPercentCaptured"`
}

// ClanPlayersPage is what /clan/{tag} returns: the clan itself rides along
// in the container field next to the player page.
type ClanPlayersPage struct {
	Metadata  Metadata `json:"metadata"`
	Data      []Player `json:"data"`
	Container Clan     `json:"container"`
}

type ClanMap struct {
	ID              int64       `json:"id"`
	Leaderboard     Leaderboard `json:"leaderboard"`
	Pp              float64     `json:"pp"`
	Rank            int         `json:"rank"`
	AverageRank     float64     `json:"averageRank"`
	AverageAccuracy float64     `json:"averageAccuracy"`
	TotalScore      float64     `json:"totalScore"`
}

type ClanRankingScore struct {
	ID            int64       `json:"id"`
	PlayerID      string      `json:"playerId"`
	Player        *Player     `json:"player"`
	LeaderboardID string      `json:"leaderboardId"`
	Leaderboard   Leaderboard `json:"leaderboard"`
	Accuracy      float64     `json:"accuracy"`
	Pp            float64     `json:"pp"`
	Rank          int         `json:"rank"`
	Modifiers     string      `json:"modifiers"`
	FullCombo     bool        `json:"fullCombo"`
	Timepost      int64       `json:"timepost"`
}

func (c *Client) GetClansPage(ctx context.Context, params ...QueryParam) (*Paged[Clan], error) {
	url := fmt.Sprintf("%s/clans", c.baseURL)
	return doRequest[Paged[Clan]](ctx, c, fasthttp.MethodGet, url, params, nil, "", "")
}

// GetClan resolves one clan by tag.
func (c *Client) GetClan(ctx context.Context, tag string) (*Clan, error) {
	url := fmt.Sprintf("%s/clan/%s", c.baseURL, tag)
	page, err := doRequest[ClanPlayersPage](ctx, c, fasthttp.MethodGet, url, []QueryParam{WithPage(1), WithCount(1)}, nil, "", "")
	if err != nil {
		return nil, err
	}
	return &page.Container, nil
}

func (c *Client) GetClanMapsPage(ctx context.Context, tag string, params ...QueryParam) (*Paged[ClanMap], error) {
	url := fmt.Sprintf("%s/clan/%s/maps", c.baseURL, tag)
	return doRequest[Paged[ClanMap]](ctx, c, fasthttp.MethodGet, url, params, nil, "", "")
}

// GetClanMaps fetches up to maxTotal maps in the given sort, paged.
func (c *Client) GetClanMaps(ctx context.Context, tag string, sort ClanMapsSort, itemsPerPage, maxTotal int) ([]ClanMap, int, error) {
	return FetchAllPages(ctx, itemsPerPage, maxTotal, func(ctx context.Context, page, count int) (*Paged[ClanMap], error) {
		return c.GetClanMapsPage(ctx, tag, WithPage(page), WithCount(count), WithSort(sort), WithOrder(OrderDescending), WithContext(ContextGeneral))
	})
}

func (c *Client) GetClanRankingPage(ctx context.Context, leaderboardID string, clanRankingID int64, params ...QueryParam) (*Paged[ClanRankingScore], error) {
	url := fmt.Sprintf("%s/leaderboard/clanRankings/%s/%d", c.baseURL, leaderboardID, clanRankingID)
	return doRequest[Paged[ClanRankingScore]](ctx, c, fasthttp.MethodGet, url, params, nil, "", "")
}

// GetClanRankingScores drains the clan's scores on one captured leaderboard
// in rank order.
func (c *Client) GetClanRankingScores(ctx context.Context, leaderboardID string, clanRankingID int64, itemsPerPage int) ([]ClanRankingScore, error) {
	scores, _, err := FetchAllPages(ctx, itemsPerPage, 0, func(ctx context.Context, page, count int) (*Paged[ClanRankingScore], error) {
		return c.GetClanRankingPage(ctx, leaderboardID, clanRankingID, WithPage(page), WithCount(count))
	})
	return scores, err
}

// InviteToClan issues an OAuth-authorized clan invitation on the token
// owner's behalf.
func (c *Client) InviteToClan(ctx context.Context, accessToken string, playerID string) error {
	url := fmt.Sprintf("%s/clan/invite?player=%s", c.baseURL, playerID)
	_, err := doRequest[struct{}](ctx, c, fasthttp.MethodPost, url, nil, nil, "", accessToken)
	return err
}

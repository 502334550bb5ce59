package api

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"
)

type PlayerSocial struct {
	Service string `json:"service"`
	Link    string `json:"link"`
	User    string `json:"user"`
	UserID  string `json:"userId"`
}

type PlayerClan struct {
	ID    int64  `json:"id"`
	Tag   string `json:"tag"`
	Color string `json:"color"`
}

type ProfileSettings struct {
	ProfileCover      string  `json:"profileCover"`
	EffectName        string  `json:"effectName"`
	ProfileAppearance string  `json:"profileAppearance"`
	Hue               int     `json:"hue"`
	Saturation        float64 `json:"saturation"`
}

type ScoreStats struct {
	TotalPlayCount          int     `json:"totalPlayCount"`
	RankedPlayCount         int     `json:"rankedPlayCount"`
	TotalScore              int64   `json:"totalScore"`
	AverageRankedAccuracy   float64 `json:"averageRankedAccuracy"`
	AverageAccuracy         float64 `json:"averageAccuracy"`
	TopAccuracy             float64 `json:"topAccuracy"`
	TopPp                   float64 `json:"topPp"`
	TopAccPp                float64 `json:"topAccPP"`
	TopTechPp               float64 `json:"topTechPP"`
	TopPassPp               float64 `json:"topPassPP"`
	PeakRank                float64 `json:"peakRank"`
	MaxStreak               int     `json:"maxStreak"`
	LastScoreTime           int64   `json:"lastScoreTime"`
	LastUnrankedScoreTime   int64   `json:"lastUnrankedScoreTime"`
	LastRankedScoreTime     int64   `json:"lastRankedScoreTime"`
	AnonymousReplayWatched  int     `json:"anonimusReplayWatched"`
	AuthorizedReplayWatched int     `json:"authorizedReplayWatched"`
	WatchedReplays          int     `json:"watchedReplays"`
}

type Player struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Country         string          `json:"country"`
	Avatar          string          `json:"avatar"`
	Rank            int             `json:"rank"`
	CountryRank     int             `json:"countryRank"`
	Pp              float64         `json:"pp"`
	AccPp           float64         `json:"accPp"`
	TechPp          float64         `json:"techPp"`
	PassPp          float64         `json:"passPp"`
	Banned          bool            `json:"banned"`
	Inactive        bool            `json:"inactive"`
	ScoreStats      *ScoreStats     `json:"scoreStats"`
	Socials         []PlayerSocial  `json:"socials"`
	Clans           []PlayerClan    `json:"clans"`
	ProfileSettings ProfileSettings `json:"profileSettings"`
}

type Song struct {
	ID      string `json:"id"`
	Hash    string `json:"hash"`
	Name    string `json:"name"`
	SubName string `json:"subName"`
	Author  string `json:"author"`
	Mapper  string `json:"mapper"`
}

type ModifiersRating struct {
	SsPassRating float64 `json:"ssPassRating"`
	SsAccRating  float64 `json:"ssAccRating"`
	SsTechRating float64 `json:"ssTechRating"`
	SsStars      float64 `json:"ssStars"`
	FsPassRating float64 `json:"fsPassRating"`
	FsAccRating  float64 `json:"fsAccRating"`
	FsTechRating float64 `json:"fsTechRating"`
	FsStars      float64 `json:"fsStars"`
	SfPassRating float64 `json:"sfPassRating"`
	SfAccRating  float64 `json:"sfAccRating"`
	SfTechRating float64 `json:"sfTechRating"`
	SfStars      float64 `json:"sfStars"`
}

type Difficulty struct {
	ID              int64            `json:"id"`
	Value           int              `json:"value"`
	Mode            int              `json:"mode"`
	DifficultyName  string           `json:"difficultyName"`
	ModeName        string           `json:"modeName"`
	Status          int              `json:"status"`
	Stars           float64          `json:"stars"`
	PassRating      float64          `json:"passRating"`
	AccRating       float64          `json:"accRating"`
	TechRating      float64          `json:"techRating"`
	MaxScore        int              `json:"maxScore"`
	ModifiersRating *ModifiersRating `json:"modifiersRating"`
}

type Leaderboard struct {
	ID         string     `json:"id"`
	Song       Song       `json:"song"`
	Difficulty Difficulty `json:"difficulty"`
}

type Score struct {
	ID               int64       `json:"id"`
	PlayerID         string      `json:"playerId"`
	LeaderboardID    string      `json:"leaderboardId"`
	Leaderboard      Leaderboard `json:"leaderboard"`
	BaseScore        int         `json:"baseScore"`
	ModifiedScore    int         `json:"modifiedScore"`
	Accuracy         float64     `json:"accuracy"`
	Pp               float64     `json:"pp"`
	AccPp            float64     `json:"accPP"`
	TechPp           float64     `json:"techPP"`
	PassPp           float64     `json:"passPP"`
	Rank             int         `json:"rank"`
	Modifiers        string      `json:"modifiers"`
	FullCombo        bool        `json:"fullCombo"`
	MissedNotes      int         `json:"missedNotes"`
	BadCuts          int         `json:"badCuts"`
	BombCuts         int         `json:"bombCuts"`
	WallsHit         int         `json:"wallsHit"`
	Pauses           int         `json:"pauses"`
	MaxCombo         int         `json:"maxCombo"`
	Timeset          string      `json:"timeset"`
	Timepost         int64       `json:"timepost"`
	ReplaysWatched   int         `json:"replaysWatched"`
}

// GetPlayer fetches a single profile including its score stats.
func (c *Client) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	url := fmt.Sprintf("%s/player/%s", c.baseURL, playerID)
	return doRequest[Player](ctx, c, fasthttp.MethodGet, url, nil, nil, "", "")
}

func (c *Client) GetPlayerScoresPage(ctx context.Context, playerID string, params ...QueryParam) (*Paged[Score], error) {
	url := fmt.Sprintf("%s/player/%s/scores", c.baseURL, playerID)
	return doRequest[Paged[Score]](ctx, c, fasthttp.MethodGet, url, params, nil, "", "")
}

// GetPlayerScores drains every score page for the player, newest first.
func (c *Client) GetPlayerScores(ctx context.Context, playerID string, itemsPerPage int, blContext Context, extra ...QueryParam) ([]Score, error) {
	scores, _, err := FetchAllPages(ctx, itemsPerPage, 0, func(ctx context.Context, page, count int) (*Paged[Score], error) {
		params := []QueryParam{
			WithPage(page),
			WithCount(count),
			WithScoresSort("date"),
			WithOrder(OrderDescending),
			WithContext(blContext),
		}
		params = append(params, extra...)
		return c.GetPlayerScoresPage(ctx, playerID, params...)
	})
	return scores, err
}

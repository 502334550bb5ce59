package domain

import (
	"slices"
	"time"

	"beatleader-bot/internal/api"
)

type (
	UserID    string
	GuildID   string
	ChannelID string
	RoleID    string
	PlayerID  string
)

// Player is a linked chat user tracked against their upstream profile.
// Created on link, mutated only by the stats refresh, destroyed on unlink.
type Player struct {
	ID     PlayerID `json:"id"`
	UserID UserID   `json:"userId"`

	LinkedGuilds []GuildID `json:"linkedGuilds"`

	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Country    string `json:"country"`
	CoverImage string `json:"coverImage"`

	Rank        int     `json:"rank"`
	CountryRank int     `json:"countryRank"`
	PeakRank    float64 `json:"peakRank"`

	Pp     float64 `json:"pp"`
	AccPp  float64 `json:"accPp"`
	TechPp float64 `json:"techPp"`
	PassPp float64 `json:"passPp"`

	MaxStreak             int     `json:"maxStreak"`
	RankedPlayCount       int     `json:"rankedPlayCount"`
	AverageRankedAccuracy float64 `json:"averageRankedAccuracy"`
	TopAccuracy           float64 `json:"topAccuracy"`

	TopPp     float64 `json:"topPp"`
	TopStars  float64 `json:"topStars"`
	PlusOnePp float64 `json:"plusOnePp"`

	AnonymousReplayWatched  int `json:"anonimusReplayWatched"`
	AuthorizedReplayWatched int `json:"authorizedReplayWatched"`
	TotalReplayWatched      int `json:"totalReplayWatched"`

	// ordered, first is the primary clan
	Clans []string `json:"clans"`

	IsVerified bool `json:"isVerified"`

	LastFetch           *time.Time `json:"lastFetch"`
	LastScoresFetch     *time.Time `json:"lastScoresFetch"`
	LastRankedScoreTime *time.Time `json:"lastRankedScoreTime"`
	LastRankedPausedAt  *time.Time `json:"lastRankedPausedAt"`
}

func (p Player) StorageKey() UserID {
	return p.UserID
}

func (p Player) Clone() Player {
	p.LinkedGuilds = slices.Clone(p.LinkedGuilds)
	p.Clans = slices.Clone(p.Clans)
	p.LastFetch = clonePtr(p.LastFetch)
	p.LastScoresFetch = clonePtr(p.LastScoresFetch)
	p.LastRankedScoreTime = clonePtr(p.LastRankedScoreTime)
	p.LastRankedPausedAt = clonePtr(p.LastRankedPausedAt)
	return p
}

// PlayerFromUpstream maps an upstream profile onto a linked player.
// Locally derived fields survive from the previous snapshot; everything
// else is replaced by upstream data.
func PlayerFromUpstream(userID UserID, linkedGuilds []GuildID, upstream *api.Player, previous *Player) Player {
	now := time.Now().UTC()

	player := Player{
		ID:           PlayerID(upstream.ID),
		UserID:       userID,
		LinkedGuilds: linkedGuilds,
		Name:         upstream.Name,
		Avatar:       upstream.Avatar,
		Country:      upstream.Country,
		CoverImage:   upstream.ProfileSettings.ProfileCover,
		Rank:         upstream.Rank,
		CountryRank:  upstream.CountryRank,
		Pp:           upstream.Pp,
		AccPp:        upstream.AccPp,
		TechPp:       upstream.TechPp,
		PassPp:       upstream.PassPp,
		IsVerified:   HasVerifiedProfile(upstream, userID),
		LastFetch:    &now,
	}

	player.Clans = make([]string, 0, len(upstream.Clans))
	for _, clan := range upstream.Clans {
		player.Clans = append(player.Clans, clan.Tag)
	}

	if stats := upstream.ScoreStats; stats != nil {
		player.MaxStreak = stats.MaxStreak
		player.RankedPlayCount = stats.RankedPlayCount
		player.AverageRankedAccuracy = stats.AverageRankedAccuracy * 100.0
		player.TopAccuracy = stats.TopAccuracy * 100.0
		player.TopPp = stats.TopPp
		player.PeakRank = stats.PeakRank
		player.AnonymousReplayWatched = stats.AnonymousReplayWatched
		player.AuthorizedReplayWatched = stats.AuthorizedReplayWatched
		player.TotalReplayWatched = stats.AnonymousReplayWatched + stats.AuthorizedReplayWatched

		if stats.LastRankedScoreTime > 0 {
			t := time.Unix(stats.LastRankedScoreTime, 0).UTC()
			player.LastRankedScoreTime = &t
		}
	}

	if previous != nil {
		player.TopStars = previous.TopStars
		player.PlusOnePp = previous.PlusOnePp
		player.LastScoresFetch = previous.LastScoresFetch
		player.LastRankedPausedAt = previous.LastRankedPausedAt
	}

	return player
}

// HasVerifiedProfile reports whether the upstream profile carries a
// Discord social entry matching the given user.
func HasVerifiedProfile(upstream *api.Player, userID UserID) bool {
	for _, social := range upstream.Socials {
		if social.Service == "Discord" && social.UserID == string(userID) {
			return true
		}
	}
	return false
}

func (p *Player) IsLinkedTo(guildID GuildID) bool {
	for _, linked := range p.LinkedGuilds {
		if linked == guildID {
			return true
		}
	}
	return false
}

// MetricValue extracts the named statistic for role rule evaluation.
func (p *Player) MetricValue(metric PlayerMetric) float64 {
	switch metric {
	case MetricTopPp:
		return p.TopPp
	case MetricTopAcc:
		return p.TopAccuracy
	case MetricTotalPp:
		return p.Pp
	case MetricRank:
		return float64(p.Rank)
	case MetricCountryRank:
		return float64(p.CountryRank)
	case MetricMaxStreak:
		return float64(p.MaxStreak)
	default:
		return 0
	}
}

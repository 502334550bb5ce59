package constants

import "time"

const (
	UpstreamRequestsPerSecond = 10
	UpstreamRateJitterMax     = 100 * time.Millisecond
	UpstreamTimeout           = 30 * time.Second
	UpstreamBaseURL           = "https://api.beatleader.xyz"
	UpstreamStagingBaseURL    = "https://stage.api.beatleader.net"
)

const (
	PlayerScoresPageSize   = 100
	ClanMapsPageSize       = 100
	ClanWarsScoresPageSize = 50
)

const (
	ScoresRefreshInterval = 24 * time.Hour
	OAuthRefreshMargin    = 30 * time.Second
	OrdersCleanupInterval = 1 * time.Hour
)

const (
	MaxDiscordMessageLength = 2000
	ThreadAutoArchive       = 60 * time.Minute
	DiscordAPITimeout       = 15 * time.Second
)

const (
	ContributionBonusMapsMin = 20
	ContributionBonusMapsMax = 50
	ContributionBonusWeight  = 0.8
)

const (
	PlaylistRateBurst  = 3
	PlaylistRatePeriod = 180 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/repository"
)

const playlistMapsFetchLimit = 200

// PlaylistFilters narrows the maps that make it into a generated playlist.
// Zero values fall back to the player's own ceiling (top stars / top pp).
type PlaylistFilters struct {
	Sort                api.ClanMapsSort
	LastPlayed          domain.PlayDate
	Count               int
	MaxStars            *float64
	MaxClanPpDiff       *float64
	FcStatus            *bool
	SkipCommanderOrders *bool
	Name                string
}

// PlaylistService builds per-player clan-wars playlists and persists them
// under fresh immutable ids.
type PlaylistService struct {
	blClient  *api.Client
	scores    *repository.PlayerScoresRepository
	maps      *repository.BsMapsRepository
	playlists *repository.PlaylistRepository
	serverURL string
	logger    zerolog.Logger
}

func NewPlaylistService(blClient *api.Client, scores *repository.PlayerScoresRepository, maps *repository.BsMapsRepository, playlists *repository.PlaylistRepository, serverURL string, logger zerolog.Logger) *PlaylistService {
	return &PlaylistService{
		blClient:  blClient,
		scores:    scores,
		maps:      maps,
		playlists: playlists,
		serverURL: serverURL,
		logger:    logger,
	}
}

type playedScore struct {
	timepost  time.Time
	fullCombo bool
}

// ForClanPlayer assembles a playlist of the clan's contested maps the
// player should play, honoring the filters. Nothing is persisted; use
// Generate or Refresh for that.
func (s *PlaylistService) ForClanPlayer(ctx context.Context, clanTag string, player domain.Player, filters PlaylistFilters, withNewestScores bool) (domain.Playlist, error) {
	clanMaps, _, err := s.blClient.GetClanMaps(ctx, clanTag, filters.Sort, constants.ClanMapsPageSize, playlistMapsFetchLimit)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("map list download: %w", err)
	}

	played := s.playedScores(ctx, player.ID, withNewestScores)

	cutoff := filters.LastPlayed.Cutoff(time.Now().UTC())
	noMatter := filters.LastPlayed == domain.PlayDateNoMatter

	maxStars := player.TopStars
	if filters.MaxStars != nil {
		maxStars = *filters.MaxStars
	}
	if maxStars < 0 {
		maxStars = 0
	}

	maxPpDiff := player.TopPp
	if filters.MaxClanPpDiff != nil {
		maxPpDiff = *filters.MaxClanPpDiff
	}
	if maxPpDiff < 0 {
		maxPpDiff = 0
	}

	keepMap := func(leaderboardID string, stars, ppDiff float64) bool {
		score, wasPlayed := played[strings.ToLower(leaderboardID)]

		if wasPlayed && !noMatter {
			if cutoff == nil || !cutoff.After(score.timepost) {
				return false
			}
		}
		if maxStars > 0 && stars > maxStars {
			return false
		}
		if maxPpDiff > 0 && ppDiff > maxPpDiff {
			return false
		}
		if wasPlayed && filters.FcStatus != nil && score.fullCombo != *filters.FcStatus {
			return false
		}
		return true
	}

	var songs []domain.PlaylistItem
	inPlaylist := map[string]bool{}

	// commander orders lead the to-conquer playlists
	if filters.Sort == api.SortToConquer && (filters.SkipCommanderOrders == nil || !*filters.SkipCommanderOrders) {
		for _, order := range s.maps.CommanderOrders(clanTag) {
			leaderboardID := strings.ToLower(order.LeaderboardID)
			if inPlaylist[leaderboardID] || !keepMap(order.LeaderboardID, order.Stars, 0) {
				continue
			}
			songs = append(songs, domain.PlaylistItemFromMap(order))
			inPlaylist[leaderboardID] = true
		}
	}

	for _, clanMap := range clanMaps {
		leaderboardID := strings.ToLower(clanMap.Leaderboard.ID)
		if inPlaylist[leaderboardID] {
			continue
		}
		if !keepMap(clanMap.Leaderboard.ID, clanMap.Leaderboard.Difficulty.Stars, abs(clanMap.Pp)) {
			continue
		}

		songs = append(songs, domain.PlaylistItem{
			SongName:        clanMap.Leaderboard.Song.Name,
			LevelAuthorName: clanMap.Leaderboard.Song.Mapper,
			Hash:            clanMap.Leaderboard.Song.Hash,
			Difficulties: []domain.PlaylistDifficulty{{
				Characteristic: clanMap.Leaderboard.Difficulty.ModeName,
				Name:           clanMap.Leaderboard.Difficulty.DifficultyName,
			}},
		})
		inPlaylist[leaderboardID] = true
	}

	if filters.Count > 0 && len(songs) > filters.Count {
		songs = songs[:filters.Count]
	}

	id := domain.GeneratePlaylistID()
	now := time.Now().UTC()

	playlist := domain.Playlist{
		ID:             id,
		PlaylistTitle:  s.playlistTitle(clanTag, filters),
		PlaylistAuthor: clanTag + " clan",
		Songs:          songs,
		CustomData: &domain.PlaylistCustomData{
			SyncURL:             fmt.Sprintf("%s/playlist/%s/%s", s.serverURL, player.ID, id),
			Owner:               fmt.Sprintf("%s/%s", clanTag, player.ID),
			Hash:                fmt.Sprintf("%s-%d", id, now.Unix()),
			ClanTag:             clanTag,
			PlayerID:            player.ID,
			PlaylistType:        filters.Sort,
			LastPlayed:          filters.LastPlayed,
			Count:               filters.Count,
			MaxStars:            filters.MaxStars,
			MaxClanPpDiff:       filters.MaxClanPpDiff,
			FcStatus:            filters.FcStatus,
			SkipCommanderOrders: filters.SkipCommanderOrders,
		},
	}

	s.logger.Debug().
		Str("playlist_id", playlist.ID).
		Str("player_id", string(player.ID)).
		Int("songs", len(playlist.Songs)).
		Msg("playlist generated")

	return playlist, nil
}

// Generate builds and persists a new playlist for the player.
func (s *PlaylistService) Generate(ctx context.Context, clanTag string, player domain.Player, filters PlaylistFilters) (domain.Playlist, error) {
	playlist, err := s.ForClanPlayer(ctx, clanTag, player, filters, true)
	if err != nil {
		return domain.Playlist{}, err
	}
	return s.playlists.Save(playlist)
}

// Refresh regenerates a stored playlist under its original id, using the
// filters captured in its custom data, and persists the result. The id is
// kept so the sync url stays stable across downloads.
func (s *PlaylistService) Refresh(ctx context.Context, stored domain.Playlist, player domain.Player) (domain.Playlist, error) {
	data := stored.CustomData

	refreshed, err := s.ForClanPlayer(ctx, data.ClanTag, player, PlaylistFilters{
		Sort:                data.PlaylistType,
		LastPlayed:          data.LastPlayed,
		Count:               data.Count,
		MaxStars:            data.MaxStars,
		MaxClanPpDiff:       data.MaxClanPpDiff,
		FcStatus:            data.FcStatus,
		SkipCommanderOrders: data.SkipCommanderOrders,
	}, true)
	if err != nil {
		return domain.Playlist{}, err
	}

	freshID := refreshed.ID
	refreshed.ID = stored.ID
	if refreshed.CustomData != nil {
		custom := *refreshed.CustomData
		custom.Hash = strings.ReplaceAll(custom.Hash, freshID, stored.ID)
		custom.SyncURL = strings.ReplaceAll(custom.SyncURL, freshID, stored.ID)
		refreshed.CustomData = &custom
	}

	return s.playlists.Save(refreshed)
}

// playedScores merges the freshest upstream scores over the locally stored
// list, keyed by lowercase leaderboard id.
func (s *PlaylistService) playedScores(ctx context.Context, playerID domain.PlayerID, withNewestScores bool) map[string]playedScore {
	played := map[string]playedScore{}

	if stored, ok := s.scores.Get(playerID); ok {
		for i := range stored.Scores {
			score := &stored.Scores[i]
			played[strings.ToLower(score.LeaderboardID)] = playedScore{
				timepost:  score.Timepost,
				fullCombo: score.FullCombo,
			}
		}
	}

	if !withNewestScores {
		return played
	}

	page, err := s.blClient.GetPlayerScoresPage(ctx, string(playerID),
		api.WithPage(1),
		api.WithCount(10),
		api.WithScoresSort("date"),
		api.WithOrder(api.OrderDescending),
		api.WithMapType(api.MapTypeRanked),
		api.WithContext(api.ContextGeneral),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("player_id", string(playerID)).Msg("newest scores fetch failed, using stored scores only")
		return played
	}

	for _, score := range page.Data {
		played[strings.ToLower(score.LeaderboardID)] = playedScore{
			timepost:  time.Unix(score.Timepost, 0).UTC(),
			fullCombo: score.FullCombo,
		}
	}

	return played
}

func (s *PlaylistService) playlistTitle(clanTag string, filters PlaylistFilters) string {
	if filters.Name != "" {
		return filters.Name
	}

	title := fmt.Sprintf("%s-clan wars-%s-%s", clanTag, filters.Sort, filters.LastPlayed)
	if filters.MaxStars != nil {
		title += fmt.Sprintf("-%.2f*", *filters.MaxStars)
	}
	if filters.MaxClanPpDiff != nil {
		title += fmt.Sprintf("-%.2fpp", *filters.MaxClanPpDiff)
	}
	if filters.FcStatus != nil {
		if *filters.FcStatus {
			title += "-fc"
		} else {
			title += "-not-fc"
		}
	}
	return title
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"beatleader-bot/internal/domain"
)

// handlePlaylist serves a stored playlist after refreshing it against the
// clan's current contested maps. The playlist must belong to the player
// named in the path.
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "user")
	playlistID := chi.URLParam(r, "id")

	stored, ok := s.playlists.Get(playlistID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Playlist not found")
		return
	}

	if stored.CustomData == nil {
		writeError(w, http.StatusBadRequest, "not_sync", "Playlist cannot be synchronized")
		return
	}

	if string(stored.CustomData.PlayerID) != playerID {
		writeError(w, http.StatusForbidden, "forbidden", "Playlist belongs to another player")
		return
	}

	player, ok := s.players.GetByPlayerID(domain.PlayerID(playerID))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Player is not linked")
		return
	}

	refreshed, err := s.playlist.Refresh(r.Context(), stored, player)
	if err != nil {
		s.logger.Error().Err(err).
			Str("playlist_id", playlistID).
			Msg("playlist refresh failed")
		writeError(w, http.StatusBadGateway, "bl_error", fmt.Sprintf("Playlist generating error: %s", err))
		return
	}

	filename := strings.NewReplacer(" ", "_", "-", "_").Replace(refreshed.PlaylistTitle)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".json"))

	writeJSON(w, http.StatusOK, refreshed)
}

package repository

import (
	"github.com/rs/zerolog"

	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

// PlaylistRepository stores generated playlists. Entries are immutable:
// saving always happens under a playlist's own fresh id, existing entries
// are never rewritten.
type PlaylistRepository struct {
	storage *storage.CachedStorage[string, domain.Playlist]
	logger  zerolog.Logger
}

func NewPlaylistRepository(persist *storage.PersistInstance, logger zerolog.Logger) (*PlaylistRepository, error) {
	cached, err := storage.NewCachedStorage(storage.NewStorage[string, domain.Playlist]("playlists", persist, logger))
	if err != nil {
		return nil, err
	}

	return &PlaylistRepository{
		storage: cached,
		logger:  logger,
	}, nil
}

func (r *PlaylistRepository) All() []domain.Playlist {
	return r.storage.Values()
}

func (r *PlaylistRepository) Len() int {
	return r.storage.Len()
}

func (r *PlaylistRepository) Get(playlistID string) (domain.Playlist, bool) {
	return r.storage.Get(playlistID)
}

func (r *PlaylistRepository) Save(playlist domain.Playlist) (domain.Playlist, error) {
	// the image is rebuilt on serve, no point persisting it
	playlist.Image = ""

	return r.storage.Set(playlist.ID, playlist)
}

func (r *PlaylistRepository) Restore(values []domain.Playlist) error {
	return r.storage.Restore(values)
}

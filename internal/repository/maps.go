package repository

import (
	"github.com/rs/zerolog"

	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

// BsMapsRepository stores pinned maps: commander orders, map list bans
// and personal bookmarks.
type BsMapsRepository struct {
	storage *storage.CachedStorage[string, domain.BsMap]
	logger  zerolog.Logger
}

func NewBsMapsRepository(persist *storage.PersistInstance, logger zerolog.Logger) (*BsMapsRepository, error) {
	cached, err := storage.NewCachedStorage(storage.NewStorage[string, domain.BsMap]("maps", persist, logger))
	if err != nil {
		return nil, err
	}

	return &BsMapsRepository{
		storage: cached,
		logger:  logger,
	}, nil
}

func (r *BsMapsRepository) All() []domain.BsMap {
	return r.storage.Values()
}

func (r *BsMapsRepository) Len() int {
	return r.storage.Len()
}

func (r *BsMapsRepository) Get(mapID string) (domain.BsMap, bool) {
	return r.storage.Get(mapID)
}

func (r *BsMapsRepository) Save(bsMap domain.BsMap) (domain.BsMap, error) {
	return r.storage.Set(bsMap.MapID, bsMap)
}

func (r *BsMapsRepository) Remove(mapID string) (bool, error) {
	return r.storage.Remove(mapID)
}

func (r *BsMapsRepository) ByMapType(mapType domain.BsMapType) []domain.BsMap {
	return r.storage.Filtered(func(m domain.BsMap) bool {
		return m.MapType == mapType
	})
}

func (r *BsMapsRepository) ByLeaderboard(leaderboardID string) []domain.BsMap {
	return r.storage.Filtered(func(m domain.BsMap) bool {
		return m.LeaderboardID == leaderboardID
	})
}

func (r *BsMapsRepository) CommanderOrders(clanTag string) []domain.BsMap {
	return r.storage.Filtered(func(m domain.BsMap) bool {
		return m.MapType == domain.BsMapTypeCommanderOrder && m.ClanTag == clanTag
	})
}

func (r *BsMapsRepository) AllCommanderOrders() []domain.BsMap {
	return r.ByMapType(domain.BsMapTypeCommanderOrder)
}

func (r *BsMapsRepository) CommanderOrder(leaderboardID, clanTag string) (domain.BsMap, bool) {
	return r.first(func(m domain.BsMap) bool {
		return m.MapType == domain.BsMapTypeCommanderOrder && m.LeaderboardID == leaderboardID && m.ClanTag == clanTag
	})
}

func (r *BsMapsRepository) MapListBans(clanTag string) []domain.BsMap {
	return r.storage.Filtered(func(m domain.BsMap) bool {
		return m.MapType == domain.BsMapTypeMapListSkip && m.ClanTag == clanTag
	})
}

func (r *BsMapsRepository) MapListBan(leaderboardID, clanTag string) (domain.BsMap, bool) {
	return r.first(func(m domain.BsMap) bool {
		return m.MapType == domain.BsMapTypeMapListSkip && m.LeaderboardID == leaderboardID && m.ClanTag == clanTag
	})
}

func (r *BsMapsRepository) Restore(values []domain.BsMap) error {
	return r.storage.Restore(values)
}

func (r *BsMapsRepository) first(match func(domain.BsMap) bool) (domain.BsMap, bool) {
	for _, m := range r.storage.Filtered(match) {
		return m, true
	}
	return domain.BsMap{}, false
}

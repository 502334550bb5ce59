package repository

import (
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

const peakHistoryFile = "clan-peak-history.ndjson"

type ClanPeakRepository struct {
	storage *storage.CachedStorage[int64, domain.ClanPeak]
	persist *storage.PersistInstance
	logger  zerolog.Logger
}

func NewClanPeakRepository(persist *storage.PersistInstance, logger zerolog.Logger) (*ClanPeakRepository, error) {
	cached, err := storage.NewCachedStorage(storage.NewStorage[int64, domain.ClanPeak]("clan-peak", persist, logger))
	if err != nil {
		return nil, err
	}

	return &ClanPeakRepository{
		storage: cached,
		persist: persist,
		logger:  logger,
	}, nil
}

func (r *ClanPeakRepository) All() []domain.ClanPeak {
	return r.storage.Values()
}

func (r *ClanPeakRepository) Len() int {
	return r.storage.Len()
}

func (r *ClanPeakRepository) Get(clanID int64) (domain.ClanPeak, bool) {
	return r.storage.Get(clanID)
}

// Set records a new peak if it strictly exceeds the stored one. Peaks are
// monotone; a lower or equal value leaves the record untouched and returns
// false. Accepted peaks are also appended to a rolling history file.
func (r *ClanPeakRepository) Set(peak domain.ClanPeak) (bool, error) {
	if peak.PeakDate.IsZero() {
		peak.PeakDate = time.Now().UTC()
	}

	accepted := true

	stored, err := r.storage.GetAndModifyOrInsert(
		peak.ClanID,
		func(current *domain.ClanPeak) {
			if peak.Peak <= current.Peak {
				accepted = false
				return
			}
			*current = peak
		},
		func() (domain.ClanPeak, bool) {
			return peak, true
		},
	)
	if err != nil {
		return false, err
	}
	if !accepted {
		return false, nil
	}

	if err := r.persist.AppendLine(peakHistoryFile, stored); err != nil {
		return true, err
	}

	r.logger.Info().
		Str("clan_tag", stored.ClanTag).
		Int("peak", stored.Peak).
		Msg("new clan peak recorded")

	return true, nil
}

func (r *ClanPeakRepository) Restore(values []domain.ClanPeak) error {
	return r.storage.Restore(values)
}

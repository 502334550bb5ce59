package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Value is anything that knows its own storage key and can produce an
// independent copy of itself. Clone must not share any mutable memory
// (slices, maps, pointers) with the receiver.
type Value[K comparable, V any] interface {
	StorageKey() K
	Clone() V
}

// Storage reads and writes one collection: an index file listing the keys
// plus one value file per key.
type Storage[K comparable, V Value[K, V]] struct {
	name    string
	persist *PersistInstance
	logger  zerolog.Logger
}

func NewStorage[K comparable, V Value[K, V]](name string, persist *PersistInstance, logger zerolog.Logger) *Storage[K, V] {
	return &Storage[K, V]{
		name:    name,
		persist: persist,
		logger:  logger.With().Str("collection", name).Logger(),
	}
}

func (s *Storage[K, V]) Name() string {
	return s.name
}

func (s *Storage[K, V]) indexName() string {
	return s.name + "-index"
}

func (s *Storage[K, V]) valueName(key K) string {
	return fmt.Sprintf("%s-%v", s.name, key)
}

// LoadIndex tolerates a missing index file and reports an empty collection.
func (s *Storage[K, V]) LoadIndex() ([]K, error) {
	var keys []K
	if err := s.persist.LoadJSON(s.indexName(), &keys); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return keys, nil
}

func (s *Storage[K, V]) SaveIndex(keys []K) error {
	return s.persist.SaveJSON(s.indexName(), keys)
}

func (s *Storage[K, V]) Load(key K) (V, error) {
	var value V
	if err := s.persist.LoadJSON(s.valueName(key), &value); err != nil {
		return value, err
	}
	return value, nil
}

func (s *Storage[K, V]) Save(value V) error {
	return s.persist.SaveJSON(s.valueName(value.StorageKey()), value)
}

func (s *Storage[K, V]) Remove(key K) error {
	return s.persist.Remove(s.valueName(key))
}

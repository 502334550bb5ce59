package repository

import (
	"context"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

type PlayerOAuthTokenRepository struct {
	storage *storage.CachedStorage[domain.PlayerID, domain.PlayerOAuthToken]
	logger  zerolog.Logger
}

func NewPlayerOAuthTokenRepository(persist *storage.PersistInstance, logger zerolog.Logger) (*PlayerOAuthTokenRepository, error) {
	cached, err := storage.NewCachedStorage(storage.NewStorage[domain.PlayerID, domain.PlayerOAuthToken]("player-oauth-tokens", persist, logger))
	if err != nil {
		return nil, err
	}

	return &PlayerOAuthTokenRepository{
		storage: cached,
		logger:  logger,
	}, nil
}

func (r *PlayerOAuthTokenRepository) All() []domain.PlayerOAuthToken {
	return r.storage.Values()
}

func (r *PlayerOAuthTokenRepository) Len() int {
	return r.storage.Len()
}

func (r *PlayerOAuthTokenRepository) Get(playerID domain.PlayerID) (domain.PlayerOAuthToken, bool) {
	return r.storage.Get(playerID)
}

func (r *PlayerOAuthTokenRepository) Set(playerID domain.PlayerID, token api.OAuthToken) (domain.PlayerOAuthToken, error) {
	return r.storage.Set(playerID, domain.PlayerOAuthToken{
		PlayerID: playerID,
		Token:    token,
	})
}

func (r *PlayerOAuthTokenRepository) Remove(playerID domain.PlayerID) (bool, error) {
	return r.storage.Remove(playerID)
}

func (r *PlayerOAuthTokenRepository) Restore(values []domain.PlayerOAuthToken) error {
	return r.storage.Restore(values)
}

// TokenStoreFor binds the repository to one owner so it can back an OAuth
// client directly.
func (r *PlayerOAuthTokenRepository) TokenStoreFor(playerID domain.PlayerID) api.TokenStore {
	return &playerTokenStore{repository: r, playerID: playerID}
}

type playerTokenStore struct {
	repository *PlayerOAuthTokenRepository
	playerID   domain.PlayerID
}

func (s *playerTokenStore) Get(_ context.Context) (api.OAuthToken, error) {
	stored, ok := s.repository.Get(s.playerID)
	if !ok {
		return api.OAuthToken{}, nil
	}
	return stored.Token, nil
}

func (s *playerTokenStore) Store(_ context.Context, token api.OAuthToken) error {
	_, err := s.repository.Set(s.playerID, token)
	return err
}

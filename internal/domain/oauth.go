package domain

import (
	"slices"

	"beatleader-bot/internal/api"
)

// PlayerOAuthToken binds an upstream OAuth token to the player that
// granted it.
type PlayerOAuthToken struct {
	PlayerID PlayerID       `json:"playerId"`
	Token    api.OAuthToken `json:"oauthToken"`
}

func (t PlayerOAuthToken) StorageKey() PlayerID {
	return t.PlayerID
}

func (t PlayerOAuthToken) Clone() PlayerOAuthToken {
	t.Token.Scopes = slices.Clone(t.Token.Scopes)
	return t
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

type OAuthScope string

const (
	ScopeProfile       OAuthScope = "profile"
	ScopeOfflineAccess OAuthScope = "offline_access"
	ScopeClan          OAuthScope = "clan"
)

// ParseScopes reads a space-separated scope string, dropping anything the
// bot does not recognize.
func ParseScopes(raw string) []OAuthScope {
	var scopes []OAuthScope
	for _, part := range strings.Fields(raw) {
		switch OAuthScope(part) {
		case ScopeProfile, ScopeOfflineAccess, ScopeClan:
			scopes = append(scopes, OAuthScope(part))
		}
	}
	return scopes
}

func scopeStrings(scopes []OAuthScope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}

type OAuthToken struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Expiration   time.Time    `json:"expiration"`
	Scopes       []OAuthScope `json:"scopes"`
}

// IsValidFor reports whether the token still covers the next d of work.
func (t OAuthToken) IsValidFor(d time.Duration) bool {
	return t.AccessToken != "" && time.Now().Add(d).Before(t.Expiration)
}

type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// TokenStore persists one owner's token between ticks.
type TokenStore interface {
	Get(ctx context.Context) (OAuthToken, error)
	Store(ctx context.Context, token OAuthToken) error
}

// limitedTransport holds each token-endpoint request on the same token
// bucket the rest of the upstream traffic drains, so OAuth grants count
// against the shared allowance.
type limitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// OAuthClient drives the three supported grants against the upstream's
// token endpoints for a single token owner.
type OAuthClient struct {
	conf   *oauth2.Config
	http   *http.Client
	store  TokenStore
	logger zerolog.Logger
}

func (c *Client) WithOAuth(credentials OAuthCredentials, store TokenStore) *OAuthClient {
	return &OAuthClient{
		http: &http.Client{
			Timeout:   c.timeout,
			Transport: &limitedTransport{limiter: c.limiter, base: http.DefaultTransport},
		},
		conf: &oauth2.Config{
			ClientID:     credentials.ClientID,
			ClientSecret: credentials.ClientSecret,
			RedirectURL:  credentials.RedirectURI,
			Scopes:       []string{string(ScopeProfile), string(ScopeOfflineAccess), string(ScopeClan)},
			Endpoint: oauth2.Endpoint{
				AuthURL:   c.baseURL + "/oauth2/authorize",
				TokenURL:  c.baseURL + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:  store,
		logger: c.logger.With().Str("component", "bl_oauth").Logger(),
	}
}

// AuthorizeURL builds the grant URL; no network involved.
func (o *OAuthClient) AuthorizeURL(state string) string {
	return o.conf.AuthCodeURL(state)
}

// grantContext makes oauth2 perform its HTTP through the rate-limited
// client instead of http.DefaultClient.
func (o *OAuthClient) grantContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, o.http)
}

// ExchangeCode trades an authorization code for a token and persists it.
func (o *OAuthClient) ExchangeCode(ctx context.Context, code string) (OAuthToken, error) {
	tok, err := o.conf.Exchange(o.grantContext(ctx), code)
	if err != nil {
		return OAuthToken{}, wrapOAuthError(err)
	}

	token := tokenFromOAuth2(tok)
	if err := o.store.Store(ctx, token); err != nil {
		return OAuthToken{}, fmt.Errorf("%w: %s", ErrOAuthStorage, err)
	}
	return token, nil
}

// RefreshTokenIfNeeded returns the stored token when it is still valid for
// margin, otherwise runs the refresh grant. A failed refresh leaves the old
// token in place so the next tick retries.
func (o *OAuthClient) RefreshTokenIfNeeded(ctx context.Context, margin time.Duration) (OAuthToken, error) {
	current, err := o.store.Get(ctx)
	if err != nil {
		return OAuthToken{}, fmt.Errorf("%w: %s", ErrOAuthStorage, err)
	}

	if current.IsValidFor(margin) {
		return current, nil
	}

	if current.RefreshToken == "" {
		return OAuthToken{}, &OAuthExpiredError{When: current.Expiration}
	}

	o.logger.Info().Time("expiration", current.Expiration).Msg("refreshing oauth token")

	tok, err := o.conf.TokenSource(o.grantContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		return OAuthToken{}, wrapOAuthError(err)
	}

	token := tokenFromOAuth2(tok)
	if token.RefreshToken == "" {
		token.RefreshToken = current.RefreshToken
	}
	if len(token.Scopes) == 0 {
		token.Scopes = current.Scopes
	}

	if err := o.store.Store(ctx, token); err != nil {
		return OAuthToken{}, fmt.Errorf("%w: %s", ErrOAuthStorage, err)
	}
	return token, nil
}

func tokenFromOAuth2(tok *oauth2.Token) OAuthToken {
	token := OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiration:   tok.Expiry.UTC(),
	}
	if raw, ok := tok.Extra("scope").(string); ok {
		token.Scopes = ParseScopes(raw)
	}
	return token
}

func wrapOAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		var response OAuthErrorResponse
		if json.Unmarshal(retrieveErr.Body, &response) == nil && response.Error != "" {
			return &OAuthError{Response: &response}
		}
		return &OAuthError{}
	}
	return fmt.Errorf("%w: %s", ErrNetwork, err)
}

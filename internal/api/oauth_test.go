package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"beatleader-bot/internal/config"
	"beatleader-bot/internal/metrics"
)

func TestParseScopes(t *testing.T) {
	assert.Nil(t, ParseScopes(""))
	assert.Equal(t, []OAuthScope{ScopeProfile, ScopeClan}, ParseScopes("profile clan"))
	assert.Equal(t,
		[]OAuthScope{ScopeProfile, ScopeOfflineAccess, ScopeClan},
		ParseScopes("profile offline_access clan"),
	)

	// unknown scopes are dropped instead of failing the whole token
	assert.Equal(t, []OAuthScope{ScopeClan}, ParseScopes("admin clan email"))
}

func TestOAuthTokenIsValidFor(t *testing.T) {
	token := OAuthToken{
		AccessToken: "token",
		Expiration:  time.Now().Add(time.Hour),
	}

	assert.True(t, token.IsValidFor(time.Minute))
	assert.False(t, token.IsValidFor(2*time.Hour))

	empty := OAuthToken{Expiration: time.Now().Add(time.Hour)}
	assert.False(t, empty.IsValidFor(time.Minute))

	expired := OAuthToken{AccessToken: "token", Expiration: time.Now().Add(-time.Minute)}
	assert.False(t, expired.IsValidFor(time.Minute))
}

type countingRoundTripper struct {
	calls int
}

func (c *countingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestLimitedTransportWaitsOnLimiter(t *testing.T) {
	base := &countingRoundTripper{}
	transport := &limitedTransport{
		limiter: rate.NewLimiter(rate.Every(time.Hour), 1),
		base:    base,
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.beatleader.xyz/oauth2/token", nil)
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1, base.calls)

	// the burst is spent; a second request has to wait out the limiter
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = transport.RoundTrip(req.WithContext(ctx))
	require.Error(t, err)
	assert.Equal(t, 1, base.calls)
}

type discardTokenStore struct{}

func (discardTokenStore) Get(context.Context) (OAuthToken, error) { return OAuthToken{}, nil }
func (discardTokenStore) Store(context.Context, OAuthToken) error { return nil }

func TestWithOAuthSharesClientLimiter(t *testing.T) {
	client := NewClient(&config.Config{}, metrics.New(), zerolog.Nop())

	oauthClient := client.WithOAuth(OAuthCredentials{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURI:  "https://bot.example.com/bl-oauth",
	}, discardTokenStore{})

	transport, ok := oauthClient.http.Transport.(*limitedTransport)
	require.True(t, ok)
	assert.Same(t, client.limiter, transport.limiter)

	grantCtx := oauthClient.grantContext(context.Background())
	injected, ok := grantCtx.Value(oauth2.HTTPClient).(*http.Client)
	require.True(t, ok)
	assert.Same(t, oauthClient.http, injected)
}

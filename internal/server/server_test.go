package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/config"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/metrics"
	"beatleader-bot/internal/repository"
	"beatleader-bot/internal/service"
	"beatleader-bot/internal/storage"
)

type serverFixture struct {
	server    *Server
	handler   http.Handler
	players   *repository.PlayerRepository
	guilds    *repository.GuildSettingsRepository
	playlists *repository.PlaylistRepository
}

func newServerFixture(t *testing.T, cfg *config.Config) *serverFixture {
	t.Helper()

	persist, err := storage.NewPersistInstance(t.TempDir())
	require.NoError(t, err)

	m := metrics.New()
	blClient := api.NewClient(cfg, m, zerolog.Nop())

	players, err := repository.NewPlayerRepository(persist, blClient, zerolog.Nop())
	require.NoError(t, err)
	guilds, err := repository.NewGuildSettingsRepository(persist, zerolog.Nop())
	require.NoError(t, err)
	tokens, err := repository.NewPlayerOAuthTokenRepository(persist, zerolog.Nop())
	require.NoError(t, err)
	playlists, err := repository.NewPlaylistRepository(persist, zerolog.Nop())
	require.NoError(t, err)
	scores, err := repository.NewPlayerScoresRepository(persist, blClient, api.ContextGeneral, zerolog.Nop())
	require.NoError(t, err)
	maps, err := repository.NewBsMapsRepository(persist, zerolog.Nop())
	require.NoError(t, err)

	playlist := service.NewPlaylistService(blClient, scores, maps, playlists, cfg.Server.URL, zerolog.Nop())

	srv := New(cfg, blClient, players, guilds, tokens, playlists, playlist, m, zerolog.Nop())

	return &serverFixture{
		server:    srv,
		handler:   srv.router(),
		players:   players,
		guilds:    guilds,
		playlists: playlists,
	}
}

func testServerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			IP:      "127.0.0.1",
			Port:    0,
			Timeout: 5,
			URL:     "https://bot.example.com",
		},
	}
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))

	return payload.Error.Code
}

func TestHealthCheck(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health_check", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPINotFound(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec.Body.Bytes()))
}

func TestMetricsEndpoint(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlaylistUnknownID(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/playlist/76561199/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec.Body.Bytes()))
}

func TestPlaylistWithoutCustomData(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	_, err := fixture.playlists.Save(domain.Playlist{ID: "plain"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/playlist/76561199/plain", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_sync", errorCode(t, rec.Body.Bytes()))
}

func TestPlaylistOwnedByAnotherPlayer(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	_, err := fixture.playlists.Save(domain.Playlist{
		ID:         "owned",
		CustomData: &domain.PlaylistCustomData{PlayerID: "someone-else"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/playlist/76561199/owned", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec.Body.Bytes()))
}

func TestPlaylistUnlinkedPlayer(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	_, err := fixture.playlists.Save(domain.Playlist{
		ID:         "orphan",
		CustomData: &domain.PlaylistCustomData{PlayerID: "76561199"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/playlist/76561199/orphan", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec.Body.Bytes()))
}

func TestOAuthCallbackNotConfigured(t *testing.T) {
	fixture := newServerFixture(t, testServerConfig())

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bl-oauth", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOAuthCallbackMissingCode(t *testing.T) {
	cfg := testServerConfig()
	cfg.OAuth = &config.OAuthConfig{ClientID: "id", ClientSecret: "secret"}
	fixture := newServerFixture(t, cfg)

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bl-oauth?state=abc", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "No authorization code")
}

func TestOAuthCallbackInvalidState(t *testing.T) {
	cfg := testServerConfig()
	cfg.OAuth = &config.OAuthConfig{ClientID: "id", ClientSecret: "secret"}
	fixture := newServerFixture(t, cfg)

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bl-oauth?code=abc&state=garbage", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

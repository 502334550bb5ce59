package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := defaults()
	cfg.DiscordToken = "token"
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing discord token", func(c *Config) { c.DiscordToken = "" }},
		{"refresh interval too low", func(c *Config) { c.RefreshInterval = 10 }},
		{"clan wars interval too low", func(c *Config) { c.ClanWarsInterval = 10 }},
		{"maps count too high", func(c *Config) { c.ClanWarsMapsCount = 200 }},
		{"contribution interval too low", func(c *Config) { c.ClanWarsContributionInterval = 5 }},
		{"peak interval too low", func(c *Config) { c.ClanPeakInterval = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BLBOT_DISCORD_TOKEN", "env-token")
	t.Setenv("BLBOT_REFRESH_INTERVAL", "120")
	t.Setenv("BLBOT_SERVER_PORT", "8080")
	t.Setenv("BLBOT_CLAN_WARS_MAPS_COUNT", "not-a-number")

	cfg := defaults()
	applyEnv(cfg)

	assert.Equal(t, "env-token", cfg.DiscordToken)
	assert.Equal(t, 120, cfg.RefreshInterval)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.ClanWarsMapsCount)
	assert.Nil(t, cfg.OAuth)
}

func TestApplyEnvOAuthRequiresAllThree(t *testing.T) {
	t.Setenv("BLBOT_OAUTH_CLIENT_ID", "id")
	t.Setenv("BLBOT_OAUTH_CLIENT_SECRET", "secret")

	cfg := defaults()
	applyEnv(cfg)
	assert.Nil(t, cfg.OAuth)

	t.Setenv("BLBOT_OAUTH_REDIRECT_URI", "https://bot.example.com/bl-oauth")

	cfg = defaults()
	applyEnv(cfg)
	require.NotNil(t, cfg.OAuth)
	assert.Equal(t, "id", cfg.OAuth.ClientID)
}

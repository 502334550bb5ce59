package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
}

type ServerConfig struct {
	IP      string `yaml:"ip"`
	Port    int    `yaml:"port"`
	Timeout int    `yaml:"timeout"`
	URL     string `yaml:"url"`
}

type Config struct {
	DiscordToken string `yaml:"discord_token"`

	// seconds
	RefreshInterval int `yaml:"refresh_interval"`

	StoragePath string `yaml:"storage_path"`

	// minutes
	ClanWarsInterval             int `yaml:"clan_wars_interval"`
	ClanWarsMapsCount            int `yaml:"clan_wars_maps_count"`
	ClanWarsContributionInterval int `yaml:"clan_wars_contribution_interval"`
	ClanPeakInterval             int `yaml:"clan_peak_interval"`

	// days
	CommanderOrdersRetention int `yaml:"commander_orders_retention"`

	OAuth  *OAuthConfig `yaml:"oauth"`
	Server ServerConfig `yaml:"server"`

	LogLevel string `yaml:"log_level"`
}

func defaults() *Config {
	return &Config{
		RefreshInterval:              600,
		StoragePath:                  "./.storage",
		ClanWarsInterval:             360,
		ClanWarsMapsCount:            30,
		ClanWarsContributionInterval: 180,
		ClanPeakInterval:             10,
		CommanderOrdersRetention:     30,
		Server: ServerConfig{
			IP:      "0.0.0.0",
			Port:    3000,
			Timeout: 30,
		},
		LogLevel: "info",
	}
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := defaults()

	for _, name := range []string{"config.yaml", "config.dev.yaml"} {
		if err := mergeFile(cfg, name); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Int("refresh_interval", cfg.RefreshInterval).
		Str("storage_path", cfg.StoragePath).
		Int("clan_wars_interval", cfg.ClanWarsInterval).
		Int("clan_wars_maps_count", cfg.ClanWarsMapsCount).
		Int("clan_wars_contribution_interval", cfg.ClanWarsContributionInterval).
		Int("clan_peak_interval", cfg.ClanPeakInterval).
		Int("commander_orders_retention", cfg.CommanderOrdersRetention).
		Bool("oauth_enabled", cfg.OAuth != nil).
		Str("server_addr", fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port)).
		Msg("configuration loaded")

	return cfg, nil
}

func mergeFile(cfg *Config, name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	if v := getEnv("BLBOT_DISCORD_TOKEN", ""); v != "" {
		cfg.DiscordToken = v
	}
	if v := getEnv("BLBOT_STORAGE_PATH", ""); v != "" {
		cfg.StoragePath = v
	}
	if v := getEnv("BLBOT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	setEnvInt(&cfg.RefreshInterval, "BLBOT_REFRESH_INTERVAL")
	setEnvInt(&cfg.ClanWarsInterval, "BLBOT_CLAN_WARS_INTERVAL")
	setEnvInt(&cfg.ClanWarsMapsCount, "BLBOT_CLAN_WARS_MAPS_COUNT")
	setEnvInt(&cfg.ClanWarsContributionInterval, "BLBOT_CLAN_WARS_CONTRIBUTION_INTERVAL")
	setEnvInt(&cfg.ClanPeakInterval, "BLBOT_CLAN_PEAK_INTERVAL")
	setEnvInt(&cfg.CommanderOrdersRetention, "BLBOT_COMMANDER_ORDERS_RETENTION")

	clientID := getEnv("BLBOT_OAUTH_CLIENT_ID", "")
	clientSecret := getEnv("BLBOT_OAUTH_CLIENT_SECRET", "")
	redirectURI := getEnv("BLBOT_OAUTH_REDIRECT_URI", "")
	if clientID != "" && clientSecret != "" && redirectURI != "" {
		cfg.OAuth = &OAuthConfig{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURI:  redirectURI,
		}
	}

	if v := getEnv("BLBOT_SERVER_IP", ""); v != "" {
		cfg.Server.IP = v
	}
	setEnvInt(&cfg.Server.Port, "BLBOT_SERVER_PORT")
	setEnvInt(&cfg.Server.Timeout, "BLBOT_SERVER_TIMEOUT")
	if v := getEnv("BLBOT_SERVER_URL", ""); v != "" {
		cfg.Server.URL = v
	}
}

func (c *Config) validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("BLBOT_DISCORD_TOKEN is required")
	}
	if c.RefreshInterval < 30 {
		return fmt.Errorf("refresh_interval should be at least 30 seconds")
	}
	if c.ClanWarsInterval < 30 {
		return fmt.Errorf("clan_wars_interval should be at least 30 minutes")
	}
	if c.ClanWarsMapsCount > 100 {
		return fmt.Errorf("clan_wars_maps_count should not be greater than 100")
	}
	if c.ClanWarsContributionInterval < 30 {
		return fmt.Errorf("clan_wars_contribution_interval should be at least 30 minutes")
	}
	if c.ClanPeakInterval < 5 {
		return fmt.Errorf("clan_peak_interval should be at least 5 minutes")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setEnvInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}


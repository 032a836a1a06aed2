// Package config holds all runtime configuration for the bot.
//
// Configuration is resolved in three layers: compiled defaults, an optional
// JSON config file, and environment variable overrides (a .env file is
// loaded by main before Load runs).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel string `json:"log_level"`

	// Storage
	StorePath string `json:"store_path"`

	// Device
	DeviceName string `json:"device_name"`

	// Identity
	OwnerNumber string `json:"owner_number"`
	BotNumber   string `json:"bot_number"`

	// Command surface
	Prefix        string `json:"prefix"`
	BotImageURL   string `json:"bot_image_url"`
	GroupInvite   string `json:"group_invite"`
	DiscordInvite string `json:"discord_invite"`

	// HTTP status page
	HTTPPort int `json:"http_port"`

	// Media search/download (RapidAPI)
	RapidAPIKey        string `json:"rapidapi_key"`
	RapidAPISearchHost string `json:"rapidapi_search_host"`
	RapidAPIMP3Host    string `json:"rapidapi_mp3_host"`

	// Rate limiting
	Limits LimitConfig `json:"limits"`

	// Session TTLs and moderation thresholds
	Session    SessionConfig    `json:"session"`
	Moderation ModerationConfig `json:"moderation"`

	// Reconnect backoff range
	ReconnectMin time.Duration `json:"-"`
	ReconnectMax time.Duration `json:"-"`

	ReconnectMinSecs int `json:"reconnect_min_secs"`
	ReconnectMaxSecs int `json:"reconnect_max_secs"`
}

// LimitConfig holds the fixed-window rate limit ceilings.
type LimitConfig struct {
	UserPerMinute  int `json:"user_per_minute"`
	UserPerHour    int `json:"user_per_hour"`
	GroupPerMinute int `json:"group_per_minute"`
}

// SessionConfig holds the TTLs for ephemeral interaction state.
type SessionConfig struct {
	DownloadTTL time.Duration `json:"-"`
	PairingTTL  time.Duration `json:"-"`
	WarningTTL  time.Duration `json:"-"`

	DownloadTTLSecs int `json:"download_ttl_secs"`
	PairingTTLSecs  int `json:"pairing_ttl_secs"`
	WarningTTLSecs  int `json:"warning_ttl_secs"`
}

// ModerationConfig holds anti-link and anti-spam thresholds.
type ModerationConfig struct {
	LinkWindow time.Duration `json:"-"`
	SpamGap    time.Duration `json:"-"`

	LinkWindowSecs int `json:"link_window_secs"`
	LinkKickAt     int `json:"link_kick_at"`
	SpamGapMs      int `json:"spam_gap_ms"`
	SpamWarnAt     int `json:"spam_warn_at"`
	SpamKickAt     int `json:"spam_kick_at"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultStore := filepath.Join(homeDir, ".warden-bot", "store")

	cfg := &Config{
		LogLevel:           "INFO",
		StorePath:          defaultStore,
		DeviceName:         "Warden Bot",
		Prefix:             "/",
		HTTPPort:           3000,
		RapidAPISearchHost: "youtube-search-and-download.p.rapidapi.com",
		RapidAPIMP3Host:    "youtube-mp36.p.rapidapi.com",
		Limits: LimitConfig{
			UserPerMinute:  10,
			UserPerHour:    200,
			GroupPerMinute: 20,
		},
		Session: SessionConfig{
			DownloadTTLSecs: 120,
			PairingTTLSecs:  600,
			WarningTTLSecs:  3600,
		},
		Moderation: ModerationConfig{
			LinkWindowSecs: 60,
			LinkKickAt:     3,
			SpamGapMs:      2000,
			SpamWarnAt:     3,
			SpamKickAt:     5,
		},
		ReconnectMinSecs: 5,
		ReconnectMaxSecs: 60,
	}
	cfg.materialize()
	return cfg
}

// materialize converts the integer JSON fields into time.Durations.
func (c *Config) materialize() {
	c.Session.DownloadTTL = time.Duration(c.Session.DownloadTTLSecs) * time.Second
	c.Session.PairingTTL = time.Duration(c.Session.PairingTTLSecs) * time.Second
	c.Session.WarningTTL = time.Duration(c.Session.WarningTTLSecs) * time.Second
	c.Moderation.LinkWindow = time.Duration(c.Moderation.LinkWindowSecs) * time.Second
	c.Moderation.SpamGap = time.Duration(c.Moderation.SpamGapMs) * time.Millisecond
	c.ReconnectMin = time.Duration(c.ReconnectMinSecs) * time.Second
	c.ReconnectMax = time.Duration(c.ReconnectMaxSecs) * time.Second
}

// LoadFromFile loads configuration from a JSON file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.materialize()
	return cfg, nil
}

// Load loads configuration from an optional file path plus environment
// variable overrides.
func Load(configPath string) *Config {
	var cfg *Config
	var err error

	if configPath != "" {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			cfg = Default()
		}
	} else {
		cfg = Default()
	}

	if v := os.Getenv("WARDEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WARDEN_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("WARDEN_DEVICE_NAME"); v != "" {
		cfg.DeviceName = v
	}
	if v := os.Getenv("OWNER_NUMBER"); v != "" {
		cfg.OwnerNumber = v
	}
	if v := os.Getenv("BOT_NUMBER"); v != "" {
		cfg.BotNumber = v
	}
	if v := os.Getenv("PREFIX"); v != "" {
		cfg.Prefix = v
	}
	if v := os.Getenv("BOT_IMAGE_URL"); v != "" {
		cfg.BotImageURL = v
	}
	if v := os.Getenv("GROUP_INVITE"); v != "" {
		cfg.GroupInvite = v
	}
	if v := os.Getenv("DISCORD_INVITE"); v != "" {
		cfg.DiscordInvite = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTPPort = port
		}
	}
	if v := os.Getenv("RAPIDAPI_KEY"); v != "" {
		cfg.RapidAPIKey = v
	}
	if v := os.Getenv("RAPIDAPI_SEARCH_HOST"); v != "" {
		cfg.RapidAPISearchHost = v
	}
	if v := os.Getenv("RAPIDAPI_MP3_HOST"); v != "" {
		cfg.RapidAPIMP3Host = v
	}

	return cfg
}

// EnsureStorePath creates the store directory if it doesn't exist.
func (c *Config) EnsureStorePath() error {
	return os.MkdirAll(c.StorePath, 0755)
}

// PublicDir is where QR code artifacts are written for the status page.
func (c *Config) PublicDir() string {
	return filepath.Join(c.StorePath, "public")
}

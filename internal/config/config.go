package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// MPRIS player bus name to watch (e.g. "spotify"); empty means
	// auto-detect the first available player
	Player string

	// Album art provider: "itunes", "lastfm" or "deezer"
	Provider string

	// Whether to resolve and show album art
	CoverArt bool

	// Custom default image URL or asset key shown when no art resolves
	DefaultImage string

	// Link-site keys rendered as presence buttons (max two honored)
	LinkSites []string

	// Discord application ID for the presence connection
	AppID string

	// Quiet period for coalescing change bursts (in milliseconds)
	QuietPeriodMS int

	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Title}}"
	OutputFormat string

	// Fixed column width for the now command (0 disables padding)
	OutputWidth int

	// Last.fm API credentials
	LastFM LastFMConfig
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetDefault("player", "")
	v.SetDefault("provider", "itunes")
	v.SetDefault("cover_art", true)
	v.SetDefault("default_image", "")
	v.SetDefault("link_sites", []string{})
	v.SetDefault("app_id", "1159093813518867608")
	v.SetDefault("quiet_period_ms", 200)
	v.SetDefault("output_format", "{{.Artist}} - {{.Title}}")
	v.SetDefault("output_width", 0)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	v.SetEnvPrefix("RESONANCE")
	v.AutomaticEnv()

	cfg := &Config{
		Player:        v.GetString("player"),
		Provider:      v.GetString("provider"),
		CoverArt:      v.GetBool("cover_art"),
		DefaultImage:  v.GetString("default_image"),
		LinkSites:     v.GetStringSlice("link_sites"),
		AppID:         v.GetString("app_id"),
		QuietPeriodMS: v.GetInt("quiet_period_ms"),
		OutputFormat:  v.GetString("output_format"),
		OutputWidth:   v.GetInt("output_width"),
		LastFM: LastFMConfig{
			APIKey: v.GetString("lastfm.api_key"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "resonance")

	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// StatePath returns the path used for the persisted now-playing state
func StatePath() string {
	return filepath.Join(getConfigDir(), "now.json")
}

// HistoryPath returns the path of the play-history database
func HistoryPath() string {
	return filepath.Join(getConfigDir(), "history.db")
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	configFile := filepath.Join(getConfigDir(), "config.yaml")

	v.Set("player", c.Player)
	v.Set("provider", c.Provider)
	v.Set("cover_art", c.CoverArt)
	v.Set("default_image", c.DefaultImage)
	v.Set("link_sites", c.LinkSites)
	v.Set("app_id", c.AppID)
	v.Set("quiet_period_ms", c.QuietPeriodMS)
	v.Set("output_format", c.OutputFormat)
	v.Set("output_width", c.OutputWidth)
	v.Set("lastfm.api_key", c.LastFM.APIKey)

	return v.WriteConfigAs(configFile)
}

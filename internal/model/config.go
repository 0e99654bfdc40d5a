package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the hub backend.
type ServerConfig struct {
	// BaseURL is the root URL of the hub API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// UserID and WorkspaceID scope every query and the push subscription.
	UserID      string `mapstructure:"user_id" yaml:"user_id"`
	WorkspaceID string `mapstructure:"workspace_id" yaml:"workspace_id"`
}

// FeedConfig holds feed behavior settings.
type FeedConfig struct {
	// PageSize is the number of notifications fetched per page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// DesktopConfig holds per-device desktop notification settings. The
// enabled flag lives here rather than in Preferences because desktop
// permission is granted per device profile, not per account.
type DesktopConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// DeviceID identifies this profile to the push channel. Generated
	// on first save.
	DeviceID string `mapstructure:"device_id" yaml:"device_id"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Desktop DesktopConfig `mapstructure:"desktop" yaml:"desktop"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notifyhub/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "notifyhub", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Feed:    FeedConfig{PageSize: 20},
		Desktop: DesktopConfig{Enabled: false},
		Display: DisplayConfig{Theme: "default"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("feed.page_size", 20)
	v.SetDefault("desktop.enabled", false)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Feed.PageSize <= 0 {
		cfg.Feed.PageSize = 20
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. A missing device id is
// generated before writing.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	if cfg.Desktop.DeviceID == "" {
		cfg.Desktop.DeviceID = uuid.New().String()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("feed", cfg.Feed)
	v.Set("desktop", cfg.Desktop)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Package config loads and saves application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Poll          PollConfig          `mapstructure:"poll"`
	Files         FilesConfig         `mapstructure:"files"`
	Player        PlayerConfig        `mapstructure:"player"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Extract       ExtractConfig       `mapstructure:"extract"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds conversion backend configuration
type ServerConfig struct {
	URL string `mapstructure:"url"`
}

// PollConfig controls the task status poll loop
type PollConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// FilesConfig controls the converted-file listing refresh loop
type FilesConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// NotificationsConfig controls desktop completion notifications
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ExtractConfig holds local extraction defaults
type ExtractConfig struct {
	Format string `mapstructure:"format"`
}

// CacheConfig locates the on-disk cache (task ledger, listing snapshot)
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "",
		},
		Poll: PollConfig{
			IntervalSeconds: 1,
		},
		Files: FilesConfig{
			IntervalSeconds: 5,
		},
		Player: PlayerConfig{
			Command: "mpv",
			Args:    []string{},
		},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
		Extract: ExtractConfig{
			Format: "mp3",
		},
		Cache: CacheConfig{
			Dir: filepath.Join(defaultDataPath(), "cache"),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vox", "vox.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vox", "vox.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vox")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "vox")
	}
}

// defaultDataPath returns the default data directory path for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "vox")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vox")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("VOX")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)

	viper.Set("poll.interval_seconds", cfg.Poll.IntervalSeconds)
	viper.Set("files.interval_seconds", cfg.Files.IntervalSeconds)

	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.args", cfg.Player.Args)

	viper.Set("notifications.enabled", cfg.Notifications.Enabled)
	viper.Set("extract.format", cfg.Extract.Format)
	viper.Set("cache.dir", cfg.Cache.Dir)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

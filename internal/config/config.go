package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const appName = "dexmatch"

// Config represents the application configuration
type Config struct {
	Difficulty         string `toml:"difficulty" env:"DEXMATCH_DIFFICULTY"`
	APIBaseURL         string `toml:"api_base_url" env:"DEXMATCH_API_BASE_URL"`
	CatalogLimit       int    `toml:"catalog_limit" env:"DEXMATCH_CATALOG_LIMIT"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds" env:"DEXMATCH_HTTP_TIMEOUT_SECONDS"`
	FetchConcurrency   int    `toml:"fetch_concurrency" env:"DEXMATCH_FETCH_CONCURRENCY"`
	DetailCache        bool   `toml:"detail_cache" env:"DEXMATCH_DETAIL_CACHE"`
	ListenAddr         string `toml:"listen_addr" env:"DEXMATCH_LISTEN_ADDR"`
	LogLevel           string `toml:"log_level" env:"DEXMATCH_LOG_LEVEL"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		Difficulty:         "easy",
		APIBaseURL:         "https://pokeapi.co/api/v2",
		CatalogLimit:       1500,
		HTTPTimeoutSeconds: 10,
		FetchConcurrency:   8,
		DetailCache:        true,
		ListenAddr:         ":8000",
		LogLevel:           "warn",
	}
}

// HTTPTimeout returns the per-request timeout for catalog calls.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetCacheDir returns the dexmatch cache directory
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), appName)
}

// GetDetailCachePath returns the path of the species detail cache database
func GetDetailCachePath() string {
	return filepath.Join(GetXDGDataHome(), appName, "details.db")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), appName, "config.toml")
}

// LoadConfig loads the config file and applies DEXMATCH_* environment overrides.
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	var config *Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config if it doesn't exist
		created, err := createDefaultConfig()
		if err != nil {
			return nil, err
		}
		config = created
	} else {
		config = Default()
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides config fields from the environment. Unset variables leave fields as they are.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig() (*Config, error) {
	config := Default()
	if err := save(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SetDifficulty sets the default difficulty in the config file
func SetDifficulty(name string) error {
	configPath := GetConfigFilePath()

	config := Default()
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return fmt.Errorf("error decoding config file: %w", err)
		}
	}

	config.Difficulty = name
	return save(config)
}

func save(config *Config) error {
	configPath := GetConfigFilePath()

	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	JWTToken      string
	BaseURL       string
	StoragePath   string
	LogDir        string
	LogLevel      string
	WalletAddress string
	WalletKey     string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".intentswap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("base_url", "https://1click.chaindefuser.com")
	viper.SetDefault("storage_path", defaultStoragePath())
	viper.SetDefault("log_dir", "logs")
	viper.SetDefault("log_level", "info")

	// Read from environment variables
	viper.SetEnvPrefix("INTENTSWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		JWTToken:      viper.GetString("jwt_token"),
		BaseURL:       viper.GetString("base_url"),
		StoragePath:   viper.GetString("storage_path"),
		LogDir:        viper.GetString("log_dir"),
		LogLevel:      viper.GetString("log_level"),
		WalletAddress: viper.GetString("wallet_address"),
		WalletKey:     viper.GetString("wallet_key"),
	}

	globalConfig = cfg
	return cfg, nil
}

// UseMockEngine reports whether quoting should run against the local
// mock engine. Without a JWT token the 1Click API cannot be called.
func (c *Config) UseMockEngine() bool {
	return c.JWTToken == ""
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".intentswap-state.json"
	}
	return filepath.Join(home, ".intentswap-state.json")
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, _ := Load()
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	DBPath           string        `mapstructure:"DB_PATH"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	ServerChanKey    string        `mapstructure:"SERVERCHAN_KEY"`
	SearchTerm       string        `mapstructure:"SEARCH_TERM"`
	PollInterval     time.Duration `mapstructure:"POLL_INTERVAL"`
	RunOnce          bool          `mapstructure:"RUN_ONCE"`
	HTTPAddr         string        `mapstructure:"HTTP_ADDR"`
	BlacklistPath    string        `mapstructure:"BLACKLIST_PATH"`
	TemplatePath     string        `mapstructure:"TEMPLATE_PATH"`
	CVEAPIURL        string        `mapstructure:"CVE_API_URL"`
	TranslateURL     string        `mapstructure:"TRANSLATE_URL"`
	TranslateEnabled bool          `mapstructure:"TRANSLATE_ENABLED"`
	TranslateDelay   time.Duration `mapstructure:"TRANSLATE_DELAY"`
}

// LoadConfig reads configuration from file and/or environment variables.
// GITHUB_TOKEN and SERVERCHAN_KEY are optional: a missing token only lowers
// the search rate limit, and a missing key makes push calls fail softly.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_PATH", "github_cve_monitor.db")
	viper.SetDefault("SEARCH_TERM", "CVE")
	viper.SetDefault("POLL_INTERVAL", "1h")
	viper.SetDefault("RUN_ONCE", false)
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("BLACKLIST_PATH", "blacklist.json")
	viper.SetDefault("TEMPLATE_PATH", "template/github_repo.md")
	viper.SetDefault("CVE_API_URL", "https://cve.circl.lu")
	viper.SetDefault("TRANSLATE_URL", "https://aidemo.youdao.com/trans")
	viper.SetDefault("TRANSLATE_ENABLED", false)
	viper.SetDefault("TRANSLATE_DELAY", "5s")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is a required configuration field")
	}
	if cfg.SearchTerm == "" {
		return nil, errors.New("SEARCH_TERM must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("POLL_INTERVAL must be a positive duration")
	}

	return &cfg, nil
}

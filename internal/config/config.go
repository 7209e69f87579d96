package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int      `mapstructure:"port"`
	DatabaseDriver     string   `mapstructure:"database_driver"` // sqlite | postgres
	DatabasePath       string   `mapstructure:"database_path"`   // sqlite file path
	DatabaseURL        string   `mapstructure:"database_url"`    // postgres connection string
	LogLevel           string   `mapstructure:"log_level"`
	LogFile            string   `mapstructure:"log_file"` // empty = stdout only
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`

	SessionTTLMin     int     `mapstructure:"session_ttl_min"`
	LoginRatePerMin   float64 `mapstructure:"login_rate_per_min"` // per source IP
	LoginRateBurst    int     `mapstructure:"login_rate_burst"`
	BootstrapAdmin    bool    `mapstructure:"bootstrap_admin"` // seed admin account when no users exist
	BootstrapPassword string  `mapstructure:"bootstrap_password"`

	ThingSpeakEnabled    bool   `mapstructure:"thingspeak_enabled"`
	ThingSpeakChannelID  string `mapstructure:"thingspeak_channel_id"`
	ThingSpeakReadKey    string `mapstructure:"thingspeak_read_key"`
	ThingSpeakIntervalSec int   `mapstructure:"thingspeak_interval_sec"`

	RetentionDays      int `mapstructure:"retention_days"`       // 0 = keep readings forever
	CleanupIntervalMin int `mapstructure:"cleanup_interval_min"` // pending MFA secret + retention sweep
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/smartbin/")
	viper.AddConfigPath("$HOME/.smartbin")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 5000)
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_path", "./smartbin.db")
	viper.SetDefault("database_url", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("session_ttl_min", 480)
	viper.SetDefault("login_rate_per_min", 10)
	viper.SetDefault("login_rate_burst", 5)
	viper.SetDefault("bootstrap_admin", true)
	viper.SetDefault("bootstrap_password", "admin123")
	viper.SetDefault("thingspeak_enabled", false)
	viper.SetDefault("thingspeak_channel_id", "")
	viper.SetDefault("thingspeak_read_key", "")
	viper.SetDefault("thingspeak_interval_sec", 60)
	viper.SetDefault("retention_days", 0)
	viper.SetDefault("cleanup_interval_min", 10)

	// Environment variables
	viper.SetEnvPrefix("SMARTBIN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return nil, fmt.Errorf("unsupported database_driver %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required when database_driver is postgres")
	}

	return &cfg, nil
}

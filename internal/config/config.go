package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName           string        `mapstructure:"app_name"`
	Env               string        `mapstructure:"app_env"`
	LogLevel          string        `mapstructure:"log_level"`
	APIBaseURL        string        `mapstructure:"api_base_url"`
	APITimeoutSeconds int64         `mapstructure:"api_timeout_seconds"`
	APITimeout        time.Duration `mapstructure:"-"`
	SensorsFile       string        `mapstructure:"sensors_file"`
	PublishersFile    string        `mapstructure:"publishers_file"`
	PollIntervalSecs  int64         `mapstructure:"poll_interval"`
	PollInterval      time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

const envFile = "configs/.env"

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load(envFile)
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "xenolab-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "http://127.0.0.1:8000")
	v.SetDefault("api_timeout_seconds", 15)
	v.SetDefault("sensors_file", "./configs/sensors.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 60) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/readings.db")
	v.SetDefault("storage_ttl_seconds", int64((2*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("invalid api_base_url (must not be empty)")
	}
	if cfg.APITimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid api_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.APITimeout = time.Duration(cfg.APITimeoutSeconds) * time.Second

	if cfg.PollIntervalSecs <= 0 {
		return nil, fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSecs) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

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
	AppName  string `mapstructure:"app_name"`
	LogLevel string `mapstructure:"log_level"`

	APIHost                 string        `mapstructure:"api_host"`
	APIChannel              string        `mapstructure:"api_channel"`
	APIEncoding             string        `mapstructure:"api_encoding"`
	ConnectTimeoutSeconds   int64         `mapstructure:"connect_timeout_seconds"`
	TimeoutSeconds          int64         `mapstructure:"timeout_seconds"`
	FollowRedirects         bool          `mapstructure:"follow_redirects"`
	Verbose                 bool          `mapstructure:"verbose"`
	FailOnError             bool          `mapstructure:"fail_on_error"`
	ResponseLoggingDisabled bool          `mapstructure:"response_logging_disabled"`
	ConnectTimeout          time.Duration `mapstructure:"-"`
	Timeout                 time.Duration `mapstructure:"-"`

	EndpointsFile  string `mapstructure:"endpoints_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-api-client")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_host", "")
	v.SetDefault("api_channel", "api")
	v.SetDefault("api_encoding", "UTF-8")
	v.SetDefault("connect_timeout_seconds", 60)
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("follow_redirects", false)
	v.SetDefault("verbose", false)
	v.SetDefault("fail_on_error", false)
	v.SetDefault("response_logging_disabled", false)
	v.SetDefault("endpoints_file", "./configs/endpoints.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/captures.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) finalize() error {
	if cfg.ConnectTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid connect_timeout_seconds (must be positive seconds)")
	}
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid timeout_seconds (must be positive seconds)")
	}
	cfg.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch cfg.StorageType {
	case "", "none", "bbolt":
	default:
		return fmt.Errorf("invalid storage_type %q (want none or bbolt)", cfg.StorageType)
	}

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}

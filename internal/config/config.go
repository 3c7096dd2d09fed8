// Package config loads server and CLI settings from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MIFOTO"

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Credential scopes: durable keys survive restarts, session keys live as
// long as the browser session.
const (
	ScopeDurable = "durable"
	ScopeSession = "session"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTPAddr          string        `mapstructure:"http_addr"`
	Storage           string        `mapstructure:"storage"`
	DBPath            string        `mapstructure:"db_path"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	CredentialScope   string        `mapstructure:"credential_scope"`
	Model             string        `mapstructure:"model"`
	DailyTokenLimit   int           `mapstructure:"daily_token_limit"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	GeminiBaseURL     string        `mapstructure:"gemini_base_url"`
	HostKey           bool          `mapstructure:"host_key"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("storage", StorageSQLite)
	v.SetDefault("db_path", "file:mifoto.db?cache=shared&mode=rwc")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("credential_scope", ScopeDurable)
	v.SetDefault("model", "")
	v.SetDefault("daily_token_limit", 1_000_000)
	v.SetDefault("requests_per_minute", 0)
	v.SetDefault("max_upload_bytes", 20*1024*1024)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_base_url", "")
	v.SetDefault("host_key", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads MIFOTO_* environment variables over the file at path, if any,
// over built-in defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("%w: storage %q (want sqlite, redis or memory)", ErrInvalidConfig, c.Storage)
	}
	switch c.CredentialScope {
	case ScopeDurable, ScopeSession:
	default:
		return fmt.Errorf("%w: credential_scope %q (want durable or session)", ErrInvalidConfig, c.CredentialScope)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.DailyTokenLimit < 0 || c.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

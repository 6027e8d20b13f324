package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultTokenHashPepper = "change-me-token-pepper"
)

// Config is the runtime configuration of the API and the operator CLI.
type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	DatabaseURL string
	RedisURL    string

	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	TokenHashPepper string

	APIRateLimit    int
	APIRateWindow   time.Duration
	LoginRateLimit  int
	LoginRateWindow time.Duration

	OfflineSyncMaxBatch int

	CORSAllowedOrigins []string
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	appEnv := strings.TrimSpace(v.GetString("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(v.GetString("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}

	cfg := &Config{
		AppEnv:              strings.ToLower(appEnv),
		LogLevel:            strings.TrimSpace(v.GetString("LOG_LEVEL")),
		HTTPAddr:            strings.TrimSpace(v.GetString("HTTP_ADDR")),
		DatabaseURL:         strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisURL:            strings.TrimSpace(v.GetString("REDIS_URL")),
		TokenHashPepper:     strings.TrimSpace(v.GetString("TOKEN_HASH_PEPPER")),
		APIRateLimit:        v.GetInt("API_RATE_LIMIT"),
		LoginRateLimit:      v.GetInt("LOGIN_RATE_LIMIT"),
		OfflineSyncMaxBatch: v.GetInt("OFFLINE_SYNC_MAX_BATCH"),
		CORSAllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.AccessTTL, err = parseDuration(v, "ACCESS_TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDuration(v, "REFRESH_TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.APIRateWindow, err = parseDuration(v, "API_RATE_WINDOW"); err != nil {
		return nil, err
	}
	if cfg.LoginRateWindow, err = parseDuration(v, "LOGIN_RATE_WINDOW"); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the config targets a prod-like environment.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "file:quizplatform.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h")
	v.SetDefault("TOKEN_HASH_PEPPER", defaultTokenHashPepper)
	v.SetDefault("API_RATE_LIMIT", 120)
	v.SetDefault("API_RATE_WINDOW", "60s")
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_WINDOW", "15m")
	v.SetDefault("OFFLINE_SYNC_MAX_BATCH", 100)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be > 0")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}
	if cfg.APIRateLimit <= 0 || cfg.LoginRateLimit <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and LOGIN_RATE_LIMIT must be > 0")
	}
	if cfg.APIRateWindow <= 0 || cfg.LoginRateWindow <= 0 {
		return fmt.Errorf("API_RATE_WINDOW and LOGIN_RATE_WINDOW must be > 0")
	}
	if cfg.OfflineSyncMaxBatch <= 0 {
		return fmt.Errorf("OFFLINE_SYNC_MAX_BATCH must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.TokenHashPepper, defaultTokenHashPepper) {
			return fmt.Errorf("in prod/release TOKEN_HASH_PEPPER must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config loads the portal's settings from the environment, with an
// optional .env file in the working directory for local development.
//
//	PORT=8080 STORE_DRIVER=sqlite DB_PATH=data/portal.db ./server
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port  int
	Seed  bool
	Log   LogConfig
	Store StoreConfig
	Auth  AuthConfig
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

type StoreConfig struct {
	Driver  string
	DBPath  string
	Latency time.Duration // memory driver only
}

type AuthConfig struct {
	JWTSecret          string
	JWTTTL             time.Duration
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Enabled reports whether viewer tokens can be verified. Without a secret
// every request is served as the anonymous viewer.
func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

// GitHubEnabled reports whether the OAuth login routes should be mounted.
func (a AuthConfig) GitHubEnabled() bool {
	return a.Enabled() && a.GitHubClientID != "" && a.GitHubClientSecret != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit SetConfigFile path reports a plain fs error, not ConfigFileNotFoundError.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading .env: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port: v.GetInt("PORT"),
		Seed: v.GetBool("SEED"),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Store: StoreConfig{
			Driver:  strings.ToLower(v.GetString("STORE_DRIVER")),
			DBPath:  v.GetString("DB_PATH"),
			Latency: v.GetDuration("STORE_LATENCY"),
		},
		Auth: AuthConfig{
			JWTSecret:          v.GetString("JWT_SECRET"),
			JWTTTL:             v.GetDuration("JWT_TTL"),
			GitHubClientID:     v.GetString("GITHUB_CLIENT_ID"),
			GitHubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
			GitHubCallbackURL:  v.GetString("GITHUB_CALLBACK_URL"),
		},
	}
	if cfg.Auth.GitHubCallbackURL == "" {
		cfg.Auth.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("SEED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("DB_PATH", "data/portal.db")
	v.SetDefault("STORE_LATENCY", "0s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CALLBACK_URL", "")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q (want memory or sqlite)", c.Store.Driver)
	}
	if c.Store.Latency < 0 {
		return fmt.Errorf("config: STORE_LATENCY must not be negative, got %s", c.Store.Latency)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: unknown LOG_FORMAT %q (want text or json)", c.Log.Format)
	}
	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: unknown LOG_LEVEL %q", l.Level)
	}
	return level, nil
}

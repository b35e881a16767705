// Package config loads the catalog configuration from .env, an optional
// config.yaml and CATALOG_* environment variables.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Title        string        `mapstructure:"title"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or mysql
	DSN    string `mapstructure:"dsn"`
}

// AuthConfig holds session and access token settings.
type AuthConfig struct {
	SecretKey    string        `mapstructure:"secret_key"`
	SessionKey   string        `mapstructure:"session_key"`
	CSRFKey      string        `mapstructure:"csrf_key"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// OAuthConfig holds the Google sign-in settings.
type OAuthConfig struct {
	ClientSecretFile string        `mapstructure:"client_secret_file"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIEndpoint      string        `mapstructure:"api_endpoint"`
	RevokeURL        string        `mapstructure:"revoke_url"`
}

// UploadsConfig controls where images are written.
type UploadsConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// RateLimitConfig bounds credential endpoints per client IP.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// LogConfig holds the slog level name.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, relying on environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.title", "ACME Trading")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "item_catalog.db")

	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.session_key", "")
	v.SetDefault("auth.csrf_key", "")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.token_ttl", "900s")

	v.SetDefault("oauth.client_secret_file", "data/client_secret.json")
	v.SetDefault("oauth.timeout", "10s")
	v.SetDefault("oauth.api_endpoint", "")
	v.SetDefault("oauth.revoke_url", "https://oauth2.googleapis.com/revoke")

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_bytes", 10<<20)

	v.SetDefault("ratelimit.per_minute", 20)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("log.level", "info")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.OAuth.Timeout <= 0 {
		return fmt.Errorf("oauth.timeout must be positive, got %s", c.OAuth.Timeout)
	}
	return nil
}

// SigningSecret returns the token signing key. Without a configured key a
// random one is generated, so tokens do not survive a restart.
func (c AuthConfig) SigningSecret() []byte {
	if c.SecretKey != "" {
		return []byte(c.SecretKey)
	}
	slog.Warn("auth.secret_key not set, generating a per-process token signing secret")
	return randomBytes(32)
}

// SessionSecret returns the cookie signing key (at least 32 bytes).
func (c AuthConfig) SessionSecret() []byte {
	return decodeKey("auth.session_key", c.SessionKey)
}

// CSRFSecret returns the CSRF token key (exactly 32 bytes).
func (c AuthConfig) CSRFSecret() []byte {
	return decodeKey("auth.csrf_key", c.CSRFKey)[:32]
}

func decodeKey(name, encoded string) []byte {
	if encoded == "" {
		slog.Warn("Key not set, generating a random one; sessions will not survive a restart", "key", name)
		return randomBytes(32)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(key) < 32 {
		slog.Warn("Key is invalid or shorter than 32 bytes, generating a random one", "key", name)
		return randomBytes(32)
	}
	return key
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return b
}

// ParseLevel maps a level name onto slog.Level, defaulting to Info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

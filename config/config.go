package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment `mapstructure:"-"`

	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	MealDB     MealDBConfig     `mapstructure:"mealdb"`
	Notion     NotionConfig     `mapstructure:"notion"`
	OAuth      OAuthConfig      `mapstructure:"oauth"`
	TokenCache TokenCacheConfig `mapstructure:"token_cache"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Cover      CoverConfig      `mapstructure:"cover"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	// TrustedProxies lists the peers whose X-Forwarded-For is honored.
	// Empty means the client address is always the TCP peer.
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MealDBConfig points at the recipe search API
type MealDBConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotionConfig points at the page API
type NotionConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	Version           string        `mapstructure:"version"`
	ParentPageID      string        `mapstructure:"parent_page_id"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ArchiveOnFailure  bool          `mapstructure:"archive_on_failure"`
}

// OAuthConfig holds the registered OAuth client
type OAuthConfig struct {
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
	AuthURL         string `mapstructure:"auth_url"`
	TokenURL        string `mapstructure:"token_url"`
	RedirectBaseURL string `mapstructure:"redirect_base_url"`
}

// TokenCacheConfig locates the single-file token cache
type TokenCacheConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig selects the session store backend
type SessionConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig contains SQL session store configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RateLimitConfig defines the Redis-backed search limiter
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// MetricsConfig controls the separate metrics listener
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// CoverConfig controls mirroring recipe thumbnails to S3
type CoverConfig struct {
	MirrorEnabled bool   `mapstructure:"mirror_enabled"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
}

// LoadConfig creates a new Config from defaults, an optional config file and
// RECIPES_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("RECIPES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Environment = GetEnvironment()

	if cfg.OAuth.ClientSecret == "" {
		cfg.OAuth.ClientSecret = readSecret("notion_client_secret")
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("mealdb.base_url", "https://www.themealdb.com/api/json/v1/1")
	v.SetDefault("mealdb.timeout", "30s")

	v.SetDefault("notion.api_url", "https://api.notion.com/v1")
	v.SetDefault("notion.version", "2022-06-28")
	v.SetDefault("notion.parent_page_id", "")
	v.SetDefault("notion.requests_per_second", 3)
	v.SetDefault("notion.timeout", "30s")
	v.SetDefault("notion.archive_on_failure", false)

	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.auth_url", "https://api.notion.com/v1/oauth/authorize")
	v.SetDefault("oauth.token_url", "https://api.notion.com/v1/oauth/token")
	v.SetDefault("oauth.redirect_base_url", "")

	v.SetDefault("token_cache.path", "./cache/token.json")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "15m")
	v.SetDefault("session.cleanup_interval", "1m")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:sessions.db")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.limit", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("cover.mirror_enabled", false)
	v.SetDefault("cover.bucket", "")
	v.SetDefault("cover.region", "")
}

// Addr returns the listen address of the main HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MetricsAddr returns the listen address of the metrics server
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Metrics.Port)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

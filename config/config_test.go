package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RECIPES_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("RECIPES_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("SECRETS_DIR", t.TempDir())
}

func TestLoadConfigWithDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "https://www.themealdb.com/api/json/v1/1", cfg.MealDB.BaseURL)
	assert.Equal(t, "https://api.notion.com/v1", cfg.Notion.APIURL)
	assert.Equal(t, "2022-06-28", cfg.Notion.Version)
	assert.Equal(t, float64(3), cfg.Notion.RequestsPerSecond)
	assert.False(t, cfg.Notion.ArchiveOnFailure)
	assert.Equal(t, "./cache/token.json", cfg.TokenCache.Path)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoadConfigFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RECIPES_SERVER_PORT", "8080")
	t.Setenv("RECIPES_NOTION_PARENT_PAGE_ID", "parent-123")
	t.Setenv("RECIPES_SESSION_TTL", "5m")
	t.Setenv("RECIPES_NOTION_ARCHIVE_ON_FAILURE", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "parent-123", cfg.Notion.ParentPageID)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.Notion.ArchiveOnFailure)
	assert.Equal(t, "client-id", cfg.OAuth.ClientID)
}

func TestLoadConfigFromFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 4000
session:
  backend: sql
database:
  driver: sqlite
  dsn: "file::memory:"
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "sql", cfg.Session.Backend)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
}

func TestLoadConfigReadsSecretFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("RECIPES_OAUTH_CLIENT_ID", "client-id")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notion_client_secret"), []byte("from-file\n"), 0o600))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.OAuth.ClientSecret)
}

func TestLoadConfigMissingCredentials(t *testing.T) {
	t.Setenv("SECRETS_DIR", t.TempDir())

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth.client_id")
	assert.Contains(t, err.Error(), "oauth.client_secret")
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 3000},
			MealDB:     MealDBConfig{BaseURL: "https://www.themealdb.com/api/json/v1/1"},
			Notion:     NotionConfig{APIURL: "https://api.notion.com/v1"},
			OAuth:      OAuthConfig{ClientID: "id", ClientSecret: "secret", AuthURL: "https://a.example/auth", TokenURL: "https://a.example/token"},
			TokenCache: TokenCacheConfig{Path: "./cache/token.json"},
			Session:    SessionConfig{Backend: "memory", TTL: time.Minute},
			Metrics:    MetricsConfig{Enabled: true, Port: 9090},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"metrics port clash", func(c *Config) { c.Metrics.Port = 3000 }, "metrics.port"},
		{"relative api url", func(c *Config) { c.Notion.APIURL = "/v1" }, "notion.api_url"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "etcd" }, "session.backend"},
		{"sql without dsn", func(c *Config) { c.Session.Backend = "sql"; c.Database.Driver = "sqlite" }, "database.dsn"},
		{"mirror without bucket", func(c *Config) { c.Cover.MirrorEnabled = true }, "cover.bucket"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"trusted proxy cidr", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "127.0.0.1"} }, ""},
		{"bad trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"proxy.internal"} }, "server.trusted_proxies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	assert.Equal(t, Production, GetEnvironment())

	t.Setenv("ENV", "test")
	assert.Equal(t, Test, GetEnvironment())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}

func TestS3PublicURL(t *testing.T) {
	s := &S3Config{BucketName: "covers", Region: "eu-west-1"}
	assert.Equal(t, "https://covers.s3.eu-west-1.amazonaws.com/a.jpg", s.PublicURL("a.jpg"))

	s.Region = ""
	assert.Equal(t, "https://covers.s3.amazonaws.com/a.jpg", s.PublicURL("a.jpg"))
}

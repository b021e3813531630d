package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "\n")
}

// ValidateConfig checks that the configuration can run the search and publish flow
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg.OAuth.ClientID == "" {
		errs = append(errs, ValidationError{"oauth.client_id", "is required"})
	}
	if cfg.OAuth.ClientSecret == "" {
		errs = append(errs, ValidationError{"oauth.client_secret", "is required (env or notion_client_secret secret)"})
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, ValidationError{"server.port", "must be between 1 and 65535"})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Server.Port {
		errs = append(errs, ValidationError{"metrics.port", "must differ from server.port"})
	}
	for _, proxy := range cfg.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, ValidationError{"server.trusted_proxies", fmt.Sprintf("%q is not an IP or CIDR", proxy)})
			}
		}
	}

	for field, raw := range map[string]string{
		"mealdb.base_url": cfg.MealDB.BaseURL,
		"notion.api_url":  cfg.Notion.APIURL,
		"oauth.auth_url":  cfg.OAuth.AuthURL,
		"oauth.token_url": cfg.OAuth.TokenURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{field, "must be an absolute URL"})
		}
	}

	if cfg.TokenCache.Path == "" {
		errs = append(errs, ValidationError{"token_cache.path", "is required"})
	}
	if cfg.Session.TTL <= 0 {
		errs = append(errs, ValidationError{"session.ttl", "must be positive"})
	}

	switch cfg.Session.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.URL == "" && cfg.Redis.Host == "" {
			errs = append(errs, ValidationError{"redis", "redis.url or redis.host is required for the redis session backend"})
		}
	case "sql":
		if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
			errs = append(errs, ValidationError{"database.driver", "must be sqlite or postgres"})
		}
		if cfg.Database.DSN == "" {
			errs = append(errs, ValidationError{"database.dsn", "is required for the sql session backend"})
		}
	default:
		errs = append(errs, ValidationError{"session.backend", fmt.Sprintf("unknown backend %q", cfg.Session.Backend)})
	}

	if cfg.RateLimit.Enabled {
		if cfg.Redis.URL == "" && cfg.Redis.Host == "" {
			errs = append(errs, ValidationError{"rate_limit.enabled", "requires redis"})
		}
		if cfg.RateLimit.Limit <= 0 || cfg.RateLimit.Window <= 0 {
			errs = append(errs, ValidationError{"rate_limit", "limit and window must be positive"})
		}
	}

	if cfg.Cover.MirrorEnabled && cfg.Cover.Bucket == "" {
		errs = append(errs, ValidationError{"cover.bucket", "is required when cover.mirror_enabled is set"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

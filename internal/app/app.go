// Package app wires configuration into the running recipe pages service.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-pages/backend/config"
	"github.com/pageza/recipe-pages/backend/internal/api"
	"github.com/pageza/recipe-pages/backend/internal/database"
	"github.com/pageza/recipe-pages/backend/internal/mealdb"
	"github.com/pageza/recipe-pages/backend/internal/middleware"
	"github.com/pageza/recipe-pages/backend/internal/notion"
	"github.com/pageza/recipe-pages/backend/internal/router"
	"github.com/pageza/recipe-pages/backend/internal/server"
	"github.com/pageza/recipe-pages/backend/internal/service"
	"github.com/pageza/recipe-pages/backend/internal/session"
	"github.com/pageza/recipe-pages/backend/internal/tokencache"
)

// App owns every long-lived resource of the service
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	server   *server.Server
	sessions session.Store
	tokens   *tokencache.FileCache
	redis    *redis.Client
	db       *gorm.DB
}

// New builds the service from cfg. Resources opened before a failure are
// released before returning.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Session.Backend == "redis" || cfg.RateLimit.Enabled {
		if a.redis, err = database.NewRedisClient(cfg.Redis, logger); err != nil {
			return nil, err
		}
	}
	if a.sessions, err = a.openSessions(); err != nil {
		return nil, err
	}

	templates, err := notion.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load page templates: %w", err)
	}

	opts := service.PublisherOptions{ArchiveOnFailure: cfg.Notion.ArchiveOnFailure}
	if cfg.Notion.ParentPageID != "" {
		opts.Parent = notion.PageParent(cfg.Notion.ParentPageID)
	}
	if cfg.Cover.MirrorEnabled {
		s3cfg, err := config.NewS3Config(ctx, cfg.Cover)
		if err != nil {
			return nil, err
		}
		opts.Covers = service.NewS3CoverMirror(s3cfg.Client, s3cfg.BucketName, s3cfg.PublicURL, logger)
	}

	pages := notion.NewClient(notion.ClientConfig{
		APIURL:            cfg.Notion.APIURL,
		Version:           cfg.Notion.Version,
		RequestsPerSecond: cfg.Notion.RequestsPerSecond,
		Timeout:           cfg.Notion.Timeout,
	}, logger)

	a.tokens = tokencache.NewFileCache(cfg.TokenCache.Path)
	flow := service.NewRecipeService(
		a.sessions,
		mealdb.NewClient(cfg.MealDB.BaseURL, cfg.MealDB.Timeout, logger),
		service.NewOAuthService(cfg.OAuth, a.tokens, cfg.Notion.Timeout, logger),
		service.NewPublisher(pages, templates, opts, logger),
		cfg.Session.TTL,
		logger,
	)

	routerOpts := router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
	}
	if cfg.RateLimit.Enabled {
		routerOpts.SearchLimiter = middleware.NewRateLimiter(a.redis, middleware.RateLimitConfig{
			Window: cfg.RateLimit.Window,
			Limit:  cfg.RateLimit.Limit,
		}, logger)
	}
	handler := api.NewRecipeHandler(flow, cfg.OAuth.RedirectBaseURL, logger)
	a.server = server.New(cfg, router.SetupRouter(handler, logger, routerOpts), logger)

	return a, nil
}

func (a *App) openSessions() (session.Store, error) {
	switch a.cfg.Session.Backend {
	case "redis":
		return session.NewRedisStore(a.redis), nil
	case "sql":
		db, err := database.Open(a.cfg.Database, a.logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		store, err := session.NewSQLStore(db, a.cfg.Session.CleanupInterval, a.logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory", "":
		return session.NewMemoryStore(a.cfg.Session.CleanupInterval, a.logger), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", a.cfg.Session.Backend)
	}
}

// Run serves until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases the session store and its connections and removes the
// cached token. Failures are logged; shutdown carries on.
func (a *App) Close() {
	var errs []error
	if a.sessions != nil {
		errs = append(errs, a.sessions.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("Failed to release resources", zap.Error(err))
	}

	if a.tokens != nil {
		if err := a.tokens.Remove(); err != nil {
			a.logger.Warn("Failed to remove token cache", zap.String("path", a.tokens.Path()), zap.Error(err))
		}
	}
}

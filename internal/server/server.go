package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/recipe-pages/backend/config"
	"github.com/pageza/recipe-pages/backend/internal/metrics"
)

// Server runs the main listener and, when enabled, the metrics listener
type Server struct {
	cfg     *config.Config
	http    *http.Server
	metrics *http.Server
	logger  *zap.Logger
}

// New creates a new server instance around handler
func New(cfg *config.Config, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
	}
	if cfg.Metrics.Enabled {
		s.metrics = &http.Server{
			Addr:        cfg.MetricsAddr(),
			Handler:     MetricsRouter(),
			ReadTimeout: cfg.Server.ReadTimeout,
		}
	}
	return s
}

// MetricsRouter exposes /metrics and /healthz
func MetricsRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return router
}

// Run listens on the configured addresses and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}

	var metricsLn net.Listener
	if s.metrics != nil {
		metricsLn, err = net.Listen("tcp", s.metrics.Addr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.metrics.Addr, err)
		}
	}

	return s.Serve(ctx, ln, metricsLn)
}

// Serve serves on the given listeners until ctx is done, then shuts both
// servers down within the configured shutdown timeout. metricsLn may be nil.
func (s *Server) Serve(ctx context.Context, ln, metricsLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Now listening", zap.String("addr", ln.Addr().String()))
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if s.metrics != nil && metricsLn != nil {
		g.Go(func() error {
			s.logger.Info("Metrics listening", zap.String("addr", metricsLn.Addr().String()))
			if err := s.metrics.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Shutdown gracefully stops both servers
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down server")
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

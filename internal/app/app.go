package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fardapack/fardapack-crm/internal/config"
	"github.com/fardapack/fardapack-crm/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Run serves the CRM API until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config) error {
	log := observability.NewLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.AuthSvc.EnsureBootstrapAdmin(ctx, cfg.BootstrapPassword); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		purgeSessions(gctx, c, cfg.SessionPurgeInterval)
		return nil
	})
	return g.Wait()
}

// purgeSessions removes expired sessions every interval until ctx ends
func purgeSessions(ctx context.Context, c *Container, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.AuthSvc.PurgeExpiredSessions(ctx)
			if err != nil {
				c.Log.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				c.Log.Debug("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}

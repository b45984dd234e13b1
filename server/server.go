// Package server hosts the HTTP API on an echo instance.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/zihaozhangmm/slider/internal/profile"
	"github.com/zihaozhangmm/slider/internal/version"
	"github.com/zihaozhangmm/slider/server/middleware"
	apiv1 "github.com/zihaozhangmm/slider/server/router/api/v1"
	"github.com/zihaozhangmm/slider/store"
	"github.com/zihaozhangmm/slider/store/cache"
)

type Server struct {
	echoServer *echo.Echo
	profile    *profile.Profile
	store      *store.Store
	cache      cache.Cache
}

func NewServer(profile *profile.Profile, store *store.Store, cache cache.Cache) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.NewRateLimiter().Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		if err := store.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "Database unreachable.")
		}
		return c.String(http.StatusOK, "Service ready.")
	})

	apiv1.NewAPIV1Service(profile, store, cache).RegisterRoutes(e)

	return &Server{
		echoServer: e,
		profile:    profile,
		store:      store,
		cache:      cache,
	}
}

// Start runs the HTTP listener until the context is canceled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server started",
		slog.String("address", address),
		slog.String("version", version.GetVersionWithMode(s.profile.Mode)),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "failed to start server")
	case <-ctx.Done():
		return nil
	}
}

// Shutdown drains in-flight requests, then closes the store and cache.
// The caller's context may already be canceled, so the drain window gets its
// own deadline.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.cache.Close(); err != nil {
		slog.Error("failed to close cache", slog.String("error", err.Error()))
	}
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}

	slog.Info("server stopped")
}

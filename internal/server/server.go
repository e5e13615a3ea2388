package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"streampulse/internal/broadcast"
	"streampulse/internal/config"
	apperrors "streampulse/internal/errors"
	"streampulse/internal/session"
)

// ReadinessChecker reports whether a backing dependency can serve requests.
type ReadinessChecker func(ctx context.Context) error

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	manager     *session.Manager
	broadcaster *broadcast.Broadcaster
	readiness   []ReadinessChecker
}

// NewServer wires the HTTP surface. readiness checkers may be empty; the
// readiness endpoint then only reports process liveness.
func NewServer(cfg *config.Config, manager *session.Manager, broadcaster *broadcast.Broadcaster, readiness ...ReadinessChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		manager:     manager,
		broadcaster: broadcaster,
		readiness:   readiness,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

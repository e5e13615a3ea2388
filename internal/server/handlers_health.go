package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, check := range s.readiness {
		check := check
		g.Go(func() error { return check(ctx) })
	}

	if err := g.Wait(); err != nil {
		return c.JSON(503, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

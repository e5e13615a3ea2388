package server

import (
	"github.com/labstack/echo/v4"

	"streampulse/internal/domain"
)

// userIDHeader carries the authenticated identity resolved by the gateway in
// front of this service. An absent header means an unauthenticated caller.
const userIDHeader = "X-User-ID"

// identityMiddleware lifts the gateway-resolved identity into the request
// context so the session façade can scope operations to it.
func (s *Server) identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if userID := c.Request().Header.Get(userIDHeader); userID != "" {
			ctx := domain.WithUserID(c.Request().Context(), userID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("userID", userID)
		}
		return next(c)
	}
}

package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Identity is optional on every route; individual operations decide
	// whether they require it.
	api := s.echo.Group("/api", s.identityMiddleware)

	api.POST("/streams", s.handleCreateStream)
	api.GET("/streams", s.handleListStreams)
	api.GET("/streams/:id", s.handleGetStream)
	api.GET("/streams/:id/events", s.handleListEvents)
	api.GET("/users/:id/streams", s.handleListUserStreams)
	api.GET("/session/current", s.handleCurrentStream)

	api.POST("/streams/:id/start", s.handleStartStream)
	api.POST("/streams/:id/end", s.handleEndStream)
	api.POST("/streams/:id/quality", s.handleChangeQuality)
	api.POST("/streams/:id/join", s.handleJoinStream)
	api.POST("/streams/:id/leave", s.handleLeaveStream)
	api.POST("/streams/:id/chat", s.handleSendChat)
	api.POST("/streams/:id/reaction", s.handleSendReaction)

	// WebSocket event feed (no CSRF, identity optional)
	s.echo.GET("/ws/streams/:id", s.handleStreamSocket)
}

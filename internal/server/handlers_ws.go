package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"streampulse/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Event feeds carry no credentials; any origin may subscribe.
		return true
	},
}

// handleStreamSocket upgrades the connection and feeds it every event for the
// requested stream until the client disconnects.
func (s *Server) handleStreamSocket(c echo.Context) error {
	streamID := c.Param("id")

	if _, err := s.manager.GetLiveStream(c.Request().Context(), streamID); err != nil {
		if errors.Is(err, domain.ErrStreamNotFound) {
			return c.String(404, "Stream not found")
		}
		slog.Error("Failed to look up stream for socket", "stream_id", streamID, "error", err)
		return c.String(500, "Internal error")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	if err := s.broadcaster.Register(streamID, conn); err != nil {
		slog.Warn("Failed to register WebSocket client", "stream_id", streamID, "error", err)
		// Connection already closed by the broadcaster, just return
		return nil
	}

	// Read pump (blocks until disconnect)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.broadcaster.Unregister(streamID, conn)
	return nil
}

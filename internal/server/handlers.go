package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"streampulse/internal/domain"
	apperrors "streampulse/internal/errors"
)

func (s *Server) handleCreateStream(c echo.Context) error {
	var cfg domain.LiveStreamConfig
	if err := c.Bind(&cfg); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	stream, err := s.manager.CreateLiveStream(c.Request().Context(), cfg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, stream)
}

func (s *Server) handleListStreams(c echo.Context) error {
	category := c.QueryParam("category")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apperrors.ValidationError("limit must be a positive integer")
		}
		limit = n
	}

	streams, err := s.manager.GetLiveStreams(c.Request().Context(), category, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"streams": streams,
		"count":   len(streams),
	})
}

func (s *Server) handleGetStream(c echo.Context) error {
	stream, err := s.manager.GetLiveStream(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapNotFound(err)
	}
	return c.JSON(http.StatusOK, stream)
}

func (s *Server) handleListUserStreams(c echo.Context) error {
	streams, err := s.manager.GetUserLiveStreams(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"streams": streams,
		"count":   len(streams),
	})
}

func (s *Server) handleListEvents(c echo.Context) error {
	events, err := s.manager.GetStreamEvents(c.Request().Context(), c.Param("id"), 0)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleCurrentStream(c echo.Context) error {
	stream := s.manager.CurrentStream()
	if stream == nil {
		return apperrors.NotFoundError("no stream is currently broadcasting")
	}
	return c.JSON(http.StatusOK, stream)
}

func (s *Server) handleStartStream(c echo.Context) error {
	stream, err := s.manager.StartLiveStream(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapNotFound(err)
	}
	return c.JSON(http.StatusOK, stream)
}

func (s *Server) handleEndStream(c echo.Context) error {
	stream, err := s.manager.EndLiveStream(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapNotFound(err)
	}
	return c.JSON(http.StatusOK, stream)
}

type changeQualityRequest struct {
	Quality domain.Quality `json:"quality"`
}

func (s *Server) handleChangeQuality(c echo.Context) error {
	var req changeQualityRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	stream, err := s.manager.ChangeStreamQuality(c.Request().Context(), c.Param("id"), req.Quality)
	if err != nil {
		return mapNotFound(err)
	}
	return c.JSON(http.StatusOK, stream)
}

func (s *Server) handleJoinStream(c echo.Context) error {
	stream, err := s.manager.JoinLiveStream(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapNotFound(err)
	}
	return c.JSON(http.StatusOK, stream)
}

func (s *Server) handleLeaveStream(c echo.Context) error {
	stream, err := s.manager.LeaveLiveStream(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapNotFound(err)
	}
	return c.JSON(http.StatusOK, stream)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSendChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.manager.SendChatMessage(c.Request().Context(), c.Param("id"), req.Message); err != nil {
		return mapNotFound(err)
	}
	return c.NoContent(http.StatusAccepted)
}

type reactionRequest struct {
	Reaction string `json:"reaction"`
}

func (s *Server) handleSendReaction(c echo.Context) error {
	var req reactionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Reaction == "" {
		return apperrors.ValidationError("reaction is required")
	}

	if err := s.manager.SendReaction(c.Request().Context(), c.Param("id"), req.Reaction); err != nil {
		return mapNotFound(err)
	}
	return c.NoContent(http.StatusAccepted)
}

// mapNotFound translates the domain sentinel into a structured 404.
func mapNotFound(err error) error {
	if errors.Is(err, domain.ErrStreamNotFound) {
		return apperrors.NotFoundError("stream not found")
	}
	return err
}

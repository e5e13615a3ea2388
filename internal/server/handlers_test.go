package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampulse/internal/config"
	"streampulse/internal/domain"
	"streampulse/internal/memory"
	"streampulse/internal/relay"
	"streampulse/internal/session"
)

func newTestServer(t *testing.T, readiness ...ReadinessChecker) (*Server, *session.Manager) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	repo := memory.NewRepository(clock)
	manager := session.NewManager(repo, repo, relay.New(), nil, nil, clock)
	cfg := &config.Config{Port: "0", MaxClientsPerStream: 10, DefaultListLimit: 20}
	return NewServer(cfg, manager, nil, readiness...), manager
}

func doJSON(t *testing.T, srv *Server, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func createTestStream(t *testing.T, srv *Server, userID string) domain.LiveStream {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/streams",
		`{"title":"Test Stream","quality":"1080p","category":"gaming"}`, userID)
	require.Equal(t, http.StatusCreated, rec.Code)

	var stream domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stream))
	return stream
}

// --- Stream CRUD ---

func TestHandleCreateStream(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/streams",
		`{"title":"My Stream","quality":"4K","bitrate":1,"privacy":"public"}`, "user-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	var stream domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stream))
	assert.Equal(t, "user-1", stream.UserID)
	assert.Equal(t, domain.Quality4K, stream.Quality)
	assert.Equal(t, 25000, stream.Bitrate, "bitrate comes from the profile, not the client")
	assert.False(t, stream.IsLive)
}

func TestHandleCreateStream_MissingTitle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/streams", `{"quality":"1080p"}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateStream_InvalidNSFW(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/streams",
		`{"title":"t","quality":"1080p","is_nsfw":true,"category":"gaming"}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateStream_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/streams", `{not json`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetStream(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodGet, "/api/streams/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stream domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stream))
	assert.Equal(t, created.ID, stream.ID)
}

func TestHandleGetStream_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/streams/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListStreams(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/start", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/streams", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Streams []domain.LiveStream `json:"streams"`
		Count   int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Streams, 1)
	assert.True(t, resp.Streams[0].IsLive)
}

func TestHandleListStreams_InvalidLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/streams?limit=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/streams?limit=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListUserStreams(t *testing.T) {
	srv, _ := newTestServer(t)
	createTestStream(t, srv, "user-1")
	createTestStream(t, srv, "user-1")
	createTestStream(t, srv, "user-2")

	rec := doJSON(t, srv, http.MethodGet, "/api/users/user-1/streams", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

// --- Lifecycle ---

func TestHandleStartAndCurrentStream(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodGet, "/api/session/current", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing broadcasting yet")

	rec = doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/start", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var started domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.True(t, started.IsLive)
	assert.NotNil(t, started.StartedAt)

	rec = doJSON(t, srv, http.MethodGet, "/api/session/current", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var current domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, created.ID, current.ID)
}

func TestHandleEndStream(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/start", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/end", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var ended domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ended))
	assert.False(t, ended.IsLive)
}

func TestHandleChangeQuality(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/quality",
		`{"quality":"8K"}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var stream domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stream))
	assert.Equal(t, domain.Quality8K, stream.Quality)
	assert.Equal(t, 50000, stream.Bitrate)
}

func TestHandleChangeQuality_UnknownTier(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/quality",
		`{"quality":"480i"}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Viewer and engagement ---

func TestHandleJoinStream_RequiresIdentity(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/join", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleJoinAndLeaveStream(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/join", "", "viewer-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var stream domain.LiveStream
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stream))
	assert.Equal(t, 1, stream.Viewers)

	rec = doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/leave", "", "viewer-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stream))
	assert.Equal(t, 0, stream.Viewers)
}

func TestHandleSendChat(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/chat",
		`{"message":"hello"}`, "viewer-1")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/streams/"+created.ID+"/events", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []domain.LiveStreamEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Events)
	assert.Equal(t, domain.EventChatMessage, resp.Events[0].Type)
}

func TestHandleSendChat_RequiresIdentity(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/chat",
		`{"message":"hello"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSendReaction(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/reaction",
		`{"reaction":"fire"}`, "viewer-1")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleSendReaction_MissingReaction(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestStream(t, srv, "user-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/streams/"+created.ID+"/reaction",
		`{}`, "viewer-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Health ---

func TestHandleLiveness(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadiness(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context) error { return nil })

	rec := doJSON(t, srv, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadiness_FailingDependency(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context) error {
		return fmt.Errorf("postgres unreachable")
	})

	rec := doJSON(t, srv, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp["status"])
}

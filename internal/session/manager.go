package session

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"streampulse/internal/domain"
	apperrors "streampulse/internal/errors"
	"streampulse/internal/metrics"
	"streampulse/internal/relay"
)

// Manager is the live-stream session façade: the single access point for all
// live-stream operations. It owns the "currently broadcasting" pointer for
// this process and substitutes locally synthesized fallback streams when the
// store is unreachable, so callers can proceed without a working backend.
//
// Construct one Manager at process start and pass it by reference; there is
// no package-level instance.
type Manager struct {
	streams domain.StreamRepository
	events  domain.EventRepository
	relay   *relay.Relay
	feed    domain.FeedPublisher
	notify  domain.FollowerNotifier
	clock   clockwork.Clock

	mu        sync.Mutex
	current   *domain.LiveStream
	fallbacks map[string]*domain.LiveStream
	bridge    io.Closer
}

// NewManager creates the façade. feed and notify may be nil to disable the
// corresponding start side effects.
func NewManager(streams domain.StreamRepository, events domain.EventRepository, r *relay.Relay, feed domain.FeedPublisher, notify domain.FollowerNotifier, clock clockwork.Clock) *Manager {
	return &Manager{
		streams:   streams,
		events:    events,
		relay:     r,
		feed:      feed,
		notify:    notify,
		clock:     clock,
		fallbacks: make(map[string]*domain.LiveStream),
	}
}

// AttachBridge hands the realtime bridge to the manager so Cleanup can tear
// the subscription down.
func (m *Manager) AttachBridge(bridge io.Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bridge = bridge
}

// CreateLiveStream validates the configuration, generates a stream key,
// normalizes quality settings from the static profile table, and inserts a
// new record scoped to the caller identity (or a freshly minted guest
// identity). On store failure it returns a synthesized fallback stream in the
// not-live state instead of an error.
func (m *Manager) CreateLiveStream(ctx context.Context, cfg domain.LiveStreamConfig) (*domain.LiveStream, error) {
	if strings.TrimSpace(cfg.Title) == "" {
		metrics.SessionOpsTotal.WithLabelValues("create", "invalid").Inc()
		return nil, apperrors.ValidationError("stream title is required")
	}

	profile, ok := domain.ProfileFor(cfg.Quality)
	if !ok {
		metrics.SessionOpsTotal.WithLabelValues("create", "invalid").Inc()
		return nil, apperrors.ValidationError("unknown quality tier: " + string(cfg.Quality))
	}

	// Content policy runs before any store call.
	if cfg.IsNSFW {
		if valid, reason := domain.ValidateNSFWConfig(cfg); !valid {
			metrics.SessionOpsTotal.WithLabelValues("create", "invalid").Inc()
			return nil, apperrors.ValidationError(reason)
		}
	}

	userID, ok := domain.UserIDFromContext(ctx)
	if !ok {
		userID = "guest-" + uuid.NewString()
	}

	now := m.clock.Now().UTC()
	stream := &domain.LiveStream{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           cfg.Title,
		Description:     cfg.Description,
		IsLive:          false,
		StreamKey:       generateStreamKey(),
		Quality:         cfg.Quality,
		Bitrate:         profile.Bitrate,
		Resolution:      profile.Resolution,
		FPS:             profile.FPS,
		Codec:           profile.Codec,
		Privacy:         cfg.Privacy,
		Category:        cfg.Category,
		Tags:            cfg.Tags,
		IsNSFW:          cfg.IsNSFW,
		NSFWLevel:       cfg.NSFWLevel,
		AgeRestriction:  cfg.AgeRestriction,
		ContentWarnings: cfg.ContentWarnings,
		AIFeatures:      aiFeatures(cfg.EnableAI),
		Source:          domain.SourceStore,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.streams.Create(ctx, stream); err != nil {
		slog.Warn("Store create failed, substituting fallback stream", "error", err)
		metrics.SessionOpsTotal.WithLabelValues("create", "fallback").Inc()
		metrics.FallbackSubstitutionsTotal.WithLabelValues("create").Inc()
		return m.newFallbackStream(cfg, userID, false), nil
	}

	metrics.SessionOpsTotal.WithLabelValues("create", "ok").Inc()
	return stream, nil
}

// StartLiveStream marks the stream live and timestamps the start. Fallback
// streams are mutated in place; real streams are updated against the store
// and the authoritative row becomes the current stream. Feed-post publication
// and follower notification run after either path. On store failure a freshly
// generated fallback stream in the live state is substituted.
func (m *Manager) StartLiveStream(ctx context.Context, streamID string) (*domain.LiveStream, error) {
	now := m.clock.Now().UTC()

	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		fallback.IsLive = true
		fallback.StartedAt = &now
		fallback.EndedAt = nil
		fallback.UpdatedAt = now
		stream := cloneStream(fallback)
		m.current = fallback
		m.mu.Unlock()

		m.emitEvent(domain.EventStarted, stream.ID, startedEventData(stream))
		m.runStartSideEffects(ctx, stream)
		metrics.SessionOpsTotal.WithLabelValues("start", "fallback").Inc()
		return stream, nil
	}

	stream, err := m.streams.SetLive(ctx, streamID, now)
	if err != nil {
		slog.Warn("Store start failed, substituting fallback stream", "stream_id", streamID, "error", err)
		metrics.SessionOpsTotal.WithLabelValues("start", "fallback").Inc()
		metrics.FallbackSubstitutionsTotal.WithLabelValues("start").Inc()

		userID, ok := domain.UserIDFromContext(ctx)
		if !ok {
			userID = "guest-" + uuid.NewString()
		}
		fallback := m.newFallbackStream(domain.LiveStreamConfig{
			Title:   "Live Stream",
			Quality: domain.Quality1080p,
			Privacy: domain.PrivacyPublic,
		}, userID, true)

		m.mu.Lock()
		m.current = m.fallbacks[fallback.ID]
		m.mu.Unlock()

		m.emitEvent(domain.EventStarted, fallback.ID, startedEventData(fallback))
		m.runStartSideEffects(ctx, fallback)
		return fallback, nil
	}

	m.mu.Lock()
	m.current = stream
	m.mu.Unlock()

	m.recordEvent(ctx, domain.EventStarted, stream.ID, startedEventData(stream))
	m.runStartSideEffects(ctx, stream)
	metrics.SessionOpsTotal.WithLabelValues("start", "ok").Inc()
	return cloneStream(stream), nil
}

// ChangeStreamQuality looks up the static profile for the requested tier and
// applies it, keeping the current-stream pointer consistent when IDs match.
// On store failure a fallback stream at the requested tier is substituted.
func (m *Manager) ChangeStreamQuality(ctx context.Context, streamID string, quality domain.Quality) (*domain.LiveStream, error) {
	profile, ok := domain.ProfileFor(quality)
	if !ok {
		metrics.SessionOpsTotal.WithLabelValues("change_quality", "invalid").Inc()
		return nil, apperrors.ValidationError("unknown quality tier: " + string(quality))
	}

	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		fallback.Quality = quality
		fallback.Bitrate = profile.Bitrate
		fallback.Resolution = profile.Resolution
		fallback.FPS = profile.FPS
		fallback.Codec = profile.Codec
		fallback.UpdatedAt = m.clock.Now().UTC()
		stream := cloneStream(fallback)
		m.mu.Unlock()

		m.emitEvent(domain.EventQualityChanged, stream.ID, qualityEventData(quality, profile))
		metrics.SessionOpsTotal.WithLabelValues("change_quality", "fallback").Inc()
		return stream, nil
	}

	stream, err := m.streams.UpdateQuality(ctx, streamID, quality, profile)
	if err != nil {
		slog.Warn("Store quality change failed, substituting fallback stream", "stream_id", streamID, "error", err)
		metrics.SessionOpsTotal.WithLabelValues("change_quality", "fallback").Inc()
		metrics.FallbackSubstitutionsTotal.WithLabelValues("change_quality").Inc()

		userID, ok := domain.UserIDFromContext(ctx)
		if !ok {
			userID = "guest-" + uuid.NewString()
		}
		fallback := m.newFallbackStream(domain.LiveStreamConfig{
			Title:   "Live Stream",
			Quality: quality,
			Privacy: domain.PrivacyPublic,
		}, userID, true)
		m.emitEvent(domain.EventQualityChanged, fallback.ID, qualityEventData(quality, profile))
		return fallback, nil
	}

	m.mu.Lock()
	if m.current != nil && m.current.ID == stream.ID {
		m.current = stream
	}
	m.mu.Unlock()

	m.recordEvent(ctx, domain.EventQualityChanged, stream.ID, qualityEventData(quality, profile))
	metrics.SessionOpsTotal.WithLabelValues("change_quality", "ok").Inc()
	return cloneStream(stream), nil
}

// EndLiveStream marks the stream ended, records the closing event with
// duration, peak viewers and total views, and clears the current-stream
// pointer when it matches. There is no fallback substitution here: store
// failures propagate.
func (m *Manager) EndLiveStream(ctx context.Context, streamID string) (*domain.LiveStream, error) {
	now := m.clock.Now().UTC()

	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		fallback.IsLive = false
		fallback.EndedAt = &now
		if fallback.StartedAt != nil {
			fallback.Duration = int64(now.Sub(*fallback.StartedAt).Seconds())
		}
		fallback.UpdatedAt = now
		stream := cloneStream(fallback)
		if m.current != nil && m.current.ID == streamID {
			m.current = nil
		}
		m.mu.Unlock()

		m.emitEvent(domain.EventEnded, stream.ID, endedEventData(stream))
		metrics.SessionOpsTotal.WithLabelValues("end", "fallback").Inc()
		return stream, nil
	}

	stream, err := m.streams.SetEnded(ctx, streamID, now)
	if err != nil {
		metrics.SessionOpsTotal.WithLabelValues("end", "error").Inc()
		return nil, err
	}

	m.mu.Lock()
	if m.current != nil && m.current.ID == streamID {
		m.current = nil
	}
	m.mu.Unlock()

	m.recordEvent(ctx, domain.EventEnded, stream.ID, endedEventData(stream))
	metrics.SessionOpsTotal.WithLabelValues("end", "ok").Inc()
	return cloneStream(stream), nil
}

// JoinLiveStream increments the viewer counter and records a viewer_joined
// event. Requires an authenticated identity.
func (m *Manager) JoinLiveStream(ctx context.Context, streamID string) (*domain.LiveStream, error) {
	userID, ok := domain.UserIDFromContext(ctx)
	if !ok {
		metrics.SessionOpsTotal.WithLabelValues("join", "unauthenticated").Inc()
		return nil, apperrors.AuthRequiredError("must be signed in to join a stream")
	}

	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		fallback.Viewers++
		if fallback.Viewers > fallback.PeakViewers {
			fallback.PeakViewers = fallback.Viewers
		}
		fallback.Analytics.TotalViews++
		stream := cloneStream(fallback)
		m.mu.Unlock()
		m.emitEvent(domain.EventViewerJoined, streamID, map[string]any{"user_id": userID, "viewers": stream.Viewers})
		metrics.SessionOpsTotal.WithLabelValues("join", "fallback").Inc()
		return stream, nil
	}

	stream, err := m.streams.IncrementViewers(ctx, streamID)
	if err != nil {
		metrics.SessionOpsTotal.WithLabelValues("join", "error").Inc()
		return nil, err
	}

	m.recordEvent(ctx, domain.EventViewerJoined, streamID, map[string]any{"user_id": userID, "viewers": stream.Viewers})
	metrics.SessionOpsTotal.WithLabelValues("join", "ok").Inc()
	return cloneStream(stream), nil
}

// LeaveLiveStream decrements the viewer counter and records a viewer_left
// event. Requires an authenticated identity.
func (m *Manager) LeaveLiveStream(ctx context.Context, streamID string) (*domain.LiveStream, error) {
	userID, ok := domain.UserIDFromContext(ctx)
	if !ok {
		metrics.SessionOpsTotal.WithLabelValues("leave", "unauthenticated").Inc()
		return nil, apperrors.AuthRequiredError("must be signed in to leave a stream")
	}

	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		if fallback.Viewers > 0 {
			fallback.Viewers--
		}
		stream := cloneStream(fallback)
		m.mu.Unlock()
		m.emitEvent(domain.EventViewerLeft, streamID, map[string]any{"user_id": userID, "viewers": stream.Viewers})
		metrics.SessionOpsTotal.WithLabelValues("leave", "fallback").Inc()
		return stream, nil
	}

	stream, err := m.streams.DecrementViewers(ctx, streamID)
	if err != nil {
		metrics.SessionOpsTotal.WithLabelValues("leave", "error").Inc()
		return nil, err
	}

	m.recordEvent(ctx, domain.EventViewerLeft, streamID, map[string]any{"user_id": userID, "viewers": stream.Viewers})
	metrics.SessionOpsTotal.WithLabelValues("leave", "ok").Inc()
	return cloneStream(stream), nil
}

// SendChatMessage records a chat_message event and bumps the chat counter.
// Requires an authenticated identity.
func (m *Manager) SendChatMessage(ctx context.Context, streamID, message string) error {
	userID, ok := domain.UserIDFromContext(ctx)
	if !ok {
		metrics.SessionOpsTotal.WithLabelValues("chat", "unauthenticated").Inc()
		return apperrors.AuthRequiredError("must be signed in to chat")
	}
	if strings.TrimSpace(message) == "" {
		metrics.SessionOpsTotal.WithLabelValues("chat", "invalid").Inc()
		return apperrors.ValidationError("chat message is empty")
	}

	data := map[string]any{"user_id": userID, "message": message}

	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		fallback.Analytics.ChatMessages++
		m.mu.Unlock()
		m.emitEvent(domain.EventChatMessage, streamID, data)
		metrics.SessionOpsTotal.WithLabelValues("chat", "fallback").Inc()
		return nil
	}

	if _, err := m.streams.IncrementChatMessages(ctx, streamID); err != nil {
		metrics.SessionOpsTotal.WithLabelValues("chat", "error").Inc()
		return err
	}

	m.recordEvent(ctx, domain.EventChatMessage, streamID, data)
	metrics.SessionOpsTotal.WithLabelValues("chat", "ok").Inc()
	return nil
}

// SendReaction records a reaction event and bumps the reaction counter.
// Requires an authenticated identity.
func (m *Manager) SendReaction(ctx context.Context, streamID, reaction string) error {
	userID, ok := domain.UserIDFromContext(ctx)
	if !ok {
		metrics.SessionOpsTotal.WithLabelValues("reaction", "unauthenticated").Inc()
		return apperrors.AuthRequiredError("must be signed in to react")
	}

	data := map[string]any{"user_id": userID, "reaction": reaction}

	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		fallback.Analytics.Reactions++
		m.mu.Unlock()
		m.emitEvent(domain.EventReaction, streamID, data)
		metrics.SessionOpsTotal.WithLabelValues("reaction", "fallback").Inc()
		return nil
	}

	if _, err := m.streams.IncrementReactions(ctx, streamID); err != nil {
		metrics.SessionOpsTotal.WithLabelValues("reaction", "error").Inc()
		return err
	}

	m.recordEvent(ctx, domain.EventReaction, streamID, data)
	metrics.SessionOpsTotal.WithLabelValues("reaction", "ok").Inc()
	return nil
}

// GetLiveStreams lists live streams ordered by viewer count descending,
// optionally filtered by category. When the store is unreachable it returns
// the fixed fallback list so UI surfaces stay populated.
func (m *Manager) GetLiveStreams(ctx context.Context, category string, limit int) ([]domain.LiveStream, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	streams, err := m.streams.GetLive(ctx, category, limit)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			slog.Warn("Store unreachable, returning fallback stream list", "error", err)
			metrics.FallbackSubstitutionsTotal.WithLabelValues("list").Inc()
			return FallbackStreams(m.clock.Now().UTC()), nil
		}
		return nil, err
	}
	return streams, nil
}

// GetLiveStream returns one stream by ID, checking locally synthesized
// fallback streams first.
func (m *Manager) GetLiveStream(ctx context.Context, streamID string) (*domain.LiveStream, error) {
	if fallback := m.fallbackStream(streamID); fallback != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		return cloneStream(fallback), nil
	}
	return m.streams.GetByID(ctx, streamID)
}

// GetUserLiveStreams lists a user's streams, newest first.
func (m *Manager) GetUserLiveStreams(ctx context.Context, userID string) ([]domain.LiveStream, error) {
	return m.streams.GetByUser(ctx, userID)
}

// GetStreamEvents lists recorded events for a stream, newest first.
func (m *Manager) GetStreamEvents(ctx context.Context, streamID string, limit int) ([]domain.LiveStreamEvent, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return m.events.ListByStream(ctx, streamID, limit)
}

// CurrentStream returns the stream this process is currently broadcasting,
// or nil.
func (m *Manager) CurrentStream() *domain.LiveStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return cloneStream(m.current)
}

// AddEventListener registers a callback invoked for every emitted event.
func (m *Manager) AddEventListener(fn relay.Listener) int {
	return m.relay.AddListener(fn)
}

// RemoveEventListener unregisters a previously registered callback.
func (m *Manager) RemoveEventListener(id int) {
	m.relay.RemoveListener(id)
}

// Cleanup tears down the realtime subscription and clears all listeners.
// Intended for process shutdown.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	bridge := m.bridge
	m.bridge = nil
	m.mu.Unlock()

	if bridge != nil {
		if err := bridge.Close(); err != nil {
			slog.Error("Failed to close realtime bridge", "error", err)
		}
	}
	m.relay.Clear()
}

// --- helpers ---

// recordEvent persists an event row and emits it on the relay. Persistence
// failures are logged, not propagated: a missing event row never fails the
// operation that caused it.
func (m *Manager) recordEvent(ctx context.Context, eventType domain.EventType, streamID string, data map[string]any) {
	event := domain.LiveStreamEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		StreamID:  streamID,
		Data:      data,
		Timestamp: m.clock.Now().UTC(),
	}
	if err := m.events.Insert(ctx, &event); err != nil {
		slog.Warn("Failed to record stream event", "stream_id", streamID, "type", eventType, "error", err)
	}
	m.relay.Emit(event)
}

// emitEvent fans out an event without persisting it (fallback paths).
func (m *Manager) emitEvent(eventType domain.EventType, streamID string, data map[string]any) {
	m.relay.Emit(domain.LiveStreamEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		StreamID:  streamID,
		Data:      data,
		Timestamp: m.clock.Now().UTC(),
	})
}

func (m *Manager) runStartSideEffects(ctx context.Context, stream *domain.LiveStream) {
	if m.feed != nil {
		if err := m.feed.PublishStreamPost(ctx, stream); err != nil {
			slog.Warn("Failed to publish feed post", "stream_id", stream.ID, "error", err)
		}
	}
	if m.notify != nil {
		if err := m.notify.NotifyStreamStarted(ctx, stream); err != nil {
			slog.Warn("Failed to notify followers", "stream_id", stream.ID, "error", err)
		}
	}
}

func (m *Manager) fallbackStream(streamID string) *domain.LiveStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks[streamID]
}

func startedEventData(stream *domain.LiveStream) map[string]any {
	return map[string]any{
		"title":   stream.Title,
		"user_id": stream.UserID,
		"quality": string(stream.Quality),
	}
}

func endedEventData(stream *domain.LiveStream) map[string]any {
	return map[string]any{
		"duration":     stream.Duration,
		"peak_viewers": stream.PeakViewers,
		"total_views":  stream.Analytics.TotalViews,
	}
}

func qualityEventData(quality domain.Quality, profile domain.QualityProfile) map[string]any {
	return map[string]any{
		"quality":    string(quality),
		"bitrate":    profile.Bitrate,
		"resolution": profile.Resolution,
		"fps":        profile.FPS,
	}
}

func aiFeatures(enabled bool) domain.AIFeatures {
	return domain.AIFeatures{
		Enabled:             enabled,
		RealTimeEnhancement: enabled,
		AutoModeration:      enabled,
		ViewerAnalytics:     enabled,
	}
}

func cloneStream(s *domain.LiveStream) *domain.LiveStream {
	copied := *s
	copied.Tags = append([]string(nil), s.Tags...)
	copied.ContentWarnings = append([]string(nil), s.ContentWarnings...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		copied.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		copied.EndedAt = &t
	}
	return &copied
}

package domain

import "time"

// EventType tags a LiveStreamEvent.
type EventType string

const (
	EventStarted        EventType = "started"
	EventEnded          EventType = "ended"
	EventViewerJoined   EventType = "viewer_joined"
	EventViewerLeft     EventType = "viewer_left"
	EventChatMessage    EventType = "chat_message"
	EventReaction       EventType = "reaction"
	EventError          EventType = "error"
	EventQualityChanged EventType = "quality_changed"
)

// LiveStreamEvent is a discrete, timestamped occurrence on one stream.
// Data is an opaque payload whose shape depends on Type.
type LiveStreamEvent struct {
	ID        string         `json:"id" db:"id"`
	Type      EventType      `json:"type" db:"type"`
	StreamID  string         `json:"stream_id" db:"stream_id"`
	Data      map[string]any `json:"data,omitempty" db:"data"`
	Timestamp time.Time      `json:"timestamp" db:"created_at"`
}

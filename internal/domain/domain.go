package domain

import (
	"context"
	"time"
)

// --- Repository interfaces ---

// StreamRepository abstracts live-stream persistence. Mutating methods return
// the authoritative row after the update so callers never work with stale
// state. Counter methods own their atomicity: a single conditional update per
// call, with peak_viewers maintained store-side.
type StreamRepository interface {
	Create(ctx context.Context, stream *LiveStream) error
	GetByID(ctx context.Context, id string) (*LiveStream, error)
	GetLive(ctx context.Context, category string, limit int) ([]LiveStream, error)
	GetByUser(ctx context.Context, userID string) ([]LiveStream, error)

	SetLive(ctx context.Context, id string, startedAt time.Time) (*LiveStream, error)
	SetEnded(ctx context.Context, id string, endedAt time.Time) (*LiveStream, error)
	UpdateQuality(ctx context.Context, id string, quality Quality, profile QualityProfile) (*LiveStream, error)

	IncrementViewers(ctx context.Context, id string) (*LiveStream, error)
	DecrementViewers(ctx context.Context, id string) (*LiveStream, error)
	IncrementChatMessages(ctx context.Context, id string) (*LiveStream, error)
	IncrementReactions(ctx context.Context, id string) (*LiveStream, error)
}

// EventRepository abstracts stream-event persistence.
type EventRepository interface {
	Insert(ctx context.Context, event *LiveStreamEvent) error
	ListByStream(ctx context.Context, streamID string, limit int) ([]LiveStreamEvent, error)
}

// --- Side-effect collaborators ---

// FeedPublisher publishes a feed entry summarizing a started stream.
type FeedPublisher interface {
	PublishStreamPost(ctx context.Context, stream *LiveStream) error
}

// FollowerNotifier fans out a "stream started" notice to followers.
type FollowerNotifier interface {
	NotifyStreamStarted(ctx context.Context, stream *LiveStream) error
}

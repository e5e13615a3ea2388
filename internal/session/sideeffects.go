package session

import (
	"context"
	"log/slog"

	"streampulse/internal/domain"
)

// LogFeedPublisher publishes feed entries to the log. Stands in for the feed
// service until one is wired up.
type LogFeedPublisher struct{}

func (LogFeedPublisher) PublishStreamPost(_ context.Context, stream *domain.LiveStream) error {
	slog.Info("Feed post published", "stream_id", stream.ID, "user_id", stream.UserID, "title", stream.Title)
	return nil
}

// LogFollowerNotifier fans out stream-started notices to the log.
type LogFollowerNotifier struct{}

func (LogFollowerNotifier) NotifyStreamStarted(_ context.Context, stream *domain.LiveStream) error {
	slog.Info("Followers notified of stream start", "stream_id", stream.ID, "user_id", stream.UserID)
	return nil
}

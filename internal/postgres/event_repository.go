package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"streampulse/internal/domain"
	"streampulse/internal/metrics"
)

// EventNotifier receives inserted stream-event rows. The Redis PubSub
// satisfies it; nil disables notifications.
type EventNotifier interface {
	PublishEventInserted(ctx context.Context, event *domain.LiveStreamEvent) error
}

// EventRepository is the Postgres implementation of domain.EventRepository.
type EventRepository struct {
	pool     *pgxpool.Pool
	notifier EventNotifier
}

// NewEventRepository creates a repository. notifier may be nil.
func NewEventRepository(pool *pgxpool.Pool, notifier EventNotifier) *EventRepository {
	return &EventRepository{pool: pool, notifier: notifier}
}

func (r *EventRepository) Insert(ctx context.Context, event *domain.LiveStreamEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return wrapStoreErr("marshal event data", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO stream_events (id, stream_id, type, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, event.StreamID, string(event.Type), data, event.Timestamp)
	if err != nil {
		metrics.StoreOpsTotal.WithLabelValues("insert_event", "error").Inc()
		return wrapStoreErr("insert event", err)
	}
	metrics.StoreOpsTotal.WithLabelValues("insert_event", "ok").Inc()

	if r.notifier != nil {
		if err := r.notifier.PublishEventInserted(ctx, event); err != nil {
			slog.Warn("Failed to publish event insert", "stream_id", event.StreamID, "type", event.Type, "error", err)
		}
	}
	return nil
}

func (r *EventRepository) ListByStream(ctx context.Context, streamID string, limit int) ([]domain.LiveStreamEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stream_id, type, data, created_at
		FROM stream_events
		WHERE stream_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, streamID, limit)
	if err != nil {
		return nil, wrapStoreErr("list events", err)
	}
	defer rows.Close()

	var events []domain.LiveStreamEvent
	for rows.Next() {
		var event domain.LiveStreamEvent
		var eventType string
		var data []byte
		if err := rows.Scan(&event.ID, &event.StreamID, &eventType, &data, &event.Timestamp); err != nil {
			return nil, wrapStoreErr("scan event", err)
		}
		event.Type = domain.EventType(eventType)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &event.Data); err != nil {
				return nil, wrapStoreErr("unmarshal event data", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate events", err)
	}
	return events, nil
}

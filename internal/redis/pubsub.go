package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"streampulse/internal/domain"
)

const (
	// streamChangeChannel carries full stream rows after every mutation.
	streamChangeChannel = "streams:changes"
	// streamEventChannel carries inserted stream-event rows.
	streamEventChannel = "streams:events"
)

// PubSub provides the two logical realtime channels of the store: stream-row
// changes and stream-event-row inserts.
type PubSub struct {
	rdb *goredis.Client
}

// NewPubSub creates a new PubSub instance.
func NewPubSub(client *Client) *PubSub {
	return &PubSub{rdb: client.rdb}
}

// PublishStreamChange publishes the authoritative stream row after a mutation.
func (ps *PubSub) PublishStreamChange(ctx context.Context, stream *domain.LiveStream) error {
	data, err := json.Marshal(stream)
	if err != nil {
		return fmt.Errorf("failed to marshal stream change: %w", err)
	}
	return ps.rdb.Publish(ctx, streamChangeChannel, data).Err()
}

// PublishEventInserted publishes an inserted stream-event row.
func (ps *PubSub) PublishEventInserted(ctx context.Context, event *domain.LiveStreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal stream event: %w", err)
	}
	return ps.rdb.Publish(ctx, streamEventChannel, data).Err()
}

// Subscription represents an active subscription to both realtime channels.
type Subscription struct {
	sub     *goredis.PubSub
	Streams <-chan domain.LiveStream
	Events  <-chan domain.LiveStreamEvent
	cancel  context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() error {
	s.cancel()
	return s.sub.Close()
}

// Subscribe subscribes once to both channels. Returned channels are buffered;
// messages are dropped if the receiver is slow.
func (ps *PubSub) Subscribe(ctx context.Context) *Subscription {
	sub := ps.rdb.Subscribe(ctx, streamChangeChannel, streamEventChannel)

	subCtx, cancel := context.WithCancel(ctx)
	streams := make(chan domain.LiveStream, 64)
	events := make(chan domain.LiveStreamEvent, 64)

	go func() {
		defer close(streams)
		defer close(events)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				dispatch(msg, streams, events)
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{
		sub:     sub,
		Streams: streams,
		Events:  events,
		cancel:  cancel,
	}
}

func dispatch(msg *goredis.Message, streams chan<- domain.LiveStream, events chan<- domain.LiveStreamEvent) {
	switch msg.Channel {
	case streamChangeChannel:
		var stream domain.LiveStream
		if err := json.Unmarshal([]byte(msg.Payload), &stream); err != nil {
			slog.Warn("Failed to unmarshal stream change", "error", err)
			return
		}
		select {
		case streams <- stream:
		default:
			// Drop if receiver is slow
		}
	case streamEventChannel:
		var event domain.LiveStreamEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			slog.Warn("Failed to unmarshal stream event", "error", err)
			return
		}
		select {
		case events <- event:
		default:
		}
	}
}

package relay

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"streampulse/internal/domain"
)

// Bridge consumes remote change notifications — stream-row changes and
// inserted stream-event rows — and re-emits them as uniform LiveStreamEvents.
// Stream-row updates become synthetic started/ended events based on the
// transition of the is_live flag; event rows pass through directly.
type Bridge struct {
	relay *Relay
	clock clockwork.Clock

	mu       sync.Mutex
	lastLive map[string]bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewBridge starts consuming from the two notification channels. The channels
// are typically fed by the Redis subscription; in tests they can be fed
// directly. Call Close to stop.
func NewBridge(relay *Relay, streams <-chan domain.LiveStream, events <-chan domain.LiveStreamEvent, clock clockwork.Clock) *Bridge {
	b := &Bridge{
		relay:    relay,
		clock:    clock,
		lastLive: make(map[string]bool),
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.run(streams, events)
	return b
}

func (b *Bridge) run(streams <-chan domain.LiveStream, events <-chan domain.LiveStreamEvent) {
	defer b.wg.Done()
	for {
		select {
		case stream, ok := <-streams:
			if !ok {
				streams = nil
				if events == nil {
					return
				}
				continue
			}
			b.HandleStreamChange(stream)
		case event, ok := <-events:
			if !ok {
				events = nil
				if streams == nil {
					return
				}
				continue
			}
			b.relay.Emit(event)
		case <-b.done:
			return
		}
	}
}

// HandleStreamChange translates a stream-row change into started/ended events
// when the is_live flag transitions. Non-transition updates are ignored; the
// typed event rows cover them.
func (b *Bridge) HandleStreamChange(stream domain.LiveStream) {
	b.mu.Lock()
	wasLive, known := b.lastLive[stream.ID]
	b.lastLive[stream.ID] = stream.IsLive
	b.mu.Unlock()

	switch {
	case stream.IsLive && (!known || !wasLive):
		b.relay.Emit(b.syntheticEvent(domain.EventStarted, stream))
	case !stream.IsLive && known && wasLive:
		b.relay.Emit(b.syntheticEvent(domain.EventEnded, stream))
		b.forget(stream.ID)
	}
}

func (b *Bridge) forget(streamID string) {
	b.mu.Lock()
	delete(b.lastLive, streamID)
	b.mu.Unlock()
}

func (b *Bridge) syntheticEvent(eventType domain.EventType, stream domain.LiveStream) domain.LiveStreamEvent {
	return domain.LiveStreamEvent{
		ID:       uuid.NewString(),
		Type:     eventType,
		StreamID: stream.ID,
		Data: map[string]any{
			"title":   stream.Title,
			"user_id": stream.UserID,
			"viewers": stream.Viewers,
		},
		Timestamp: b.clock.Now().UTC(),
	}
}

// Close stops the bridge goroutine. Safe to call more than once.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
	slog.Debug("Realtime bridge stopped")
	return nil
}

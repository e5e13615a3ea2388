package relay

import (
	"log/slog"
	"sync"

	"streampulse/internal/domain"
	"streampulse/internal/metrics"
)

// Listener receives every event emitted through the relay.
type Listener func(event domain.LiveStreamEvent)

// Relay fans out LiveStreamEvents to any number of registered listeners.
// Listeners are isolated from each other: a panic in one is recovered and
// logged so delivery to the others continues. Listeners may be added and
// removed at any time, including concurrently with an emit.
type Relay struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{listeners: make(map[int]Listener)}
}

// AddListener registers a listener and returns a handle for removal.
func (r *Relay) AddListener(fn Listener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.listeners[id] = fn
	metrics.RelayListeners.Set(float64(len(r.listeners)))
	return id
}

// RemoveListener unregisters the listener with the given handle.
// Removing an unknown handle is a no-op.
func (r *Relay) RemoveListener(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
	metrics.RelayListeners.Set(float64(len(r.listeners)))
}

// Emit delivers the event to every registered listener.
func (r *Relay) Emit(event domain.LiveStreamEvent) {
	r.mu.RLock()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.RUnlock()

	metrics.RelayEventsTotal.WithLabelValues(string(event.Type)).Inc()

	for _, fn := range listeners {
		r.deliver(fn, event)
	}
}

func (r *Relay) deliver(fn Listener, event domain.LiveStreamEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.RelayListenerPanicsTotal.Inc()
			slog.Error("Relay listener panicked", "event_type", event.Type, "stream_id", event.StreamID, "panic", rec)
		}
	}()
	fn(event)
}

// Len returns the number of registered listeners.
func (r *Relay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// Clear removes all listeners. Intended for process shutdown.
func (r *Relay) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = make(map[int]Listener)
	metrics.RelayListeners.Set(0)
}

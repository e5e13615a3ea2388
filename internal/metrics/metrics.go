package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session façade metrics
var (
	// SessionOpsTotal tracks façade operations by operation and status
	SessionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Total session façade operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// FallbackSubstitutionsTotal tracks operations answered with synthesized
	// fallback data instead of store rows
	FallbackSubstitutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_fallback_substitutions_total",
			Help: "Total operations answered with fallback data by operation",
		},
		[]string{"operation"},
	)
)

// Event relay metrics
var (
	// RelayEventsTotal tracks events emitted through the relay by type
	RelayEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total events emitted through the relay by event type",
		},
		[]string{"type"},
	)

	// RelayListenerPanicsTotal tracks listener panics caught by the relay
	RelayListenerPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_listener_panics_total",
			Help: "Total listener panics caught and isolated by the relay",
		},
	)

	// RelayListeners tracks the current number of registered listeners
	RelayListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_listeners",
			Help: "Current number of registered relay listeners",
		},
	)
)

// Broadcaster metrics
var (
	// BroadcasterActiveStreams tracks streams with at least one connected client
	BroadcasterActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_active_streams",
			Help: "Number of streams with at least one connected WebSocket client",
		},
	)

	// BroadcasterConnectedClients tracks connected WebSocket clients
	BroadcasterConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_connected_clients_total",
			Help: "Total number of connected WebSocket clients across all streams",
		},
	)

	// BroadcasterSlowClientsEvicted tracks slow clients evicted
	BroadcasterSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_slow_clients_evicted_total",
			Help: "Total number of slow WebSocket clients evicted due to buffer full",
		},
	)

	// BroadcasterPanicsTotal tracks panics recovered in the broadcaster loop
	BroadcasterPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_panics_total",
			Help: "Total panics recovered in the broadcaster goroutine",
		},
	)
)

// Store metrics
var (
	// StoreOpsTotal tracks repository operations by operation and status
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total store operations by operation and status",
		},
		[]string{"operation", "status"},
	)
)

package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"streampulse/internal/domain"
	"streampulse/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

type streamClients map[*websocket.Conn]*clientWriter

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	streamID     string
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	streamID   string
	connection *websocket.Conn
}

type publishCmd struct {
	baseBroadcasterCmd
	streamID string
	payload  []byte
}

type getClientCountCmd struct {
	baseBroadcasterCmd
	streamID     string
	replyChannel chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

// Broadcaster fans relay events out to WebSocket clients grouped by stream.
// Single goroutine + command channel; per-connection write goroutines handle
// slow clients gracefully.
type Broadcaster struct {
	cmdCh               chan broadcasterCmd
	clock               clockwork.Clock
	activeClients       map[string]streamClients
	done                chan struct{}
	maxClientsPerStream int
}

// NewBroadcaster creates and starts a broadcaster.
// maxClientsPerStream limits connections per stream (prevents resource exhaustion).
func NewBroadcaster(clock clockwork.Clock, maxClientsPerStream int) *Broadcaster {
	b := &Broadcaster{
		cmdCh:               make(chan broadcasterCmd, 256),
		clock:               clock,
		activeClients:       make(map[string]streamClients),
		done:                make(chan struct{}),
		maxClientsPerStream: maxClientsPerStream,
	}
	go b.run()
	return b
}

// HandleEvent is the relay listener: it serializes the event once and fans it
// out to the clients of that stream.
func (b *Broadcaster) HandleEvent(event domain.LiveStreamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal broadcast event", "error", err)
		return
	}
	select {
	case b.cmdCh <- publishCmd{streamID: event.StreamID, payload: payload}:
	case <-b.done:
	}
}

// Register adds a client to a stream's fan-out set.
// Returns an error only if max clients per stream is reached.
func (b *Broadcaster) Register(streamID string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	b.cmdCh <- registerCmd{streamID: streamID, connection: conn, errorChannel: errCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a client from a stream's fan-out set.
func (b *Broadcaster) Unregister(streamID string, conn *websocket.Conn) {
	select {
	case b.cmdCh <- unregisterCmd{streamID: streamID, connection: conn}:
	case <-b.done:
	}
}

// GetClientCount returns the number of connected clients for a stream.
// Returns -1 if the command times out.
func (b *Broadcaster) GetClientCount(streamID string) int {
	replyCh := make(chan int, 1)
	b.cmdCh <- getClientCountCmd{streamID: streamID, replyChannel: replyCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("GetClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the broadcaster, closing all client connections.
// Blocks until the broadcaster goroutine has exited or timeout is reached.
func (b *Broadcaster) Stop() {
	b.cmdCh <- stopCmd{}

	timeout := b.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Broadcaster stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		close(b.done)
	}
}

func (b *Broadcaster) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Broadcaster panic recovered", "panic", r)
			metrics.BroadcasterPanicsTotal.Inc()
			b.closeAllClients("broadcaster panic")
		}
	}()
	defer close(b.done)

	for cmd := range b.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			b.handleRegister(c)
		case unregisterCmd:
			b.handleUnregister(c)
		case publishCmd:
			b.handlePublish(c)
		case getClientCountCmd:
			c.replyChannel <- len(b.activeClients[c.streamID])
		case stopCmd:
			b.handleStop()
			return
		default:
			slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	clients, exists := b.activeClients[c.streamID]
	if !exists {
		clients = make(streamClients)
		b.activeClients[c.streamID] = clients
	}

	if len(clients) >= b.maxClientsPerStream {
		slog.Warn("Rejecting client: max clients reached", "stream_id", c.streamID, "max_clients", b.maxClientsPerStream)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients per stream (%d) reached", b.maxClientsPerStream)
		return
	}

	clients[c.connection] = newClientWriter(c.connection, b.clock)

	metrics.BroadcasterActiveStreams.Set(float64(len(b.activeClients)))
	metrics.BroadcasterConnectedClients.Inc()

	slog.Debug("Client registered", "stream_id", c.streamID, "total_clients", len(clients))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(c unregisterCmd) {
	clients, exists := b.activeClients[c.streamID]
	if !exists {
		return
	}

	cw, exists := clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, c.connection)
	metrics.BroadcasterConnectedClients.Dec()

	if len(clients) == 0 {
		delete(b.activeClients, c.streamID)
		metrics.BroadcasterActiveStreams.Set(float64(len(b.activeClients)))
		slog.Debug("Last client disconnected", "stream_id", c.streamID)
	}
}

func (b *Broadcaster) handlePublish(c publishCmd) {
	clients := b.activeClients[c.streamID]
	if len(clients) == 0 {
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range clients {
		select {
		case writer.sendChannel <- c.payload:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "stream_id", c.streamID)
		metrics.BroadcasterSlowClientsEvicted.Inc()
		b.handleUnregister(unregisterCmd{streamID: c.streamID, connection: conn})
	}
}

func (b *Broadcaster) handleStop() {
	totalClients := 0
	for _, clients := range b.activeClients {
		totalClients += len(clients)
	}

	slog.Info("Broadcaster shutting down", "streams", len(b.activeClients), "total_clients", totalClients)
	b.closeAllClients("Server shutting down")
}

// closeAllClients closes all client connections with the given reason.
func (b *Broadcaster) closeAllClients(reason string) {
	for streamID, clients := range b.activeClients {
		for _, cw := range clients {
			cw.stopGraceful(reason)
		}
		delete(b.activeClients, streamID)
	}
	metrics.BroadcasterActiveStreams.Set(0)
	metrics.BroadcasterConnectedClients.Set(0)
}

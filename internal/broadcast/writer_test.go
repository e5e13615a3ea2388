package broadcast

import (
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientWriter_DeliversMessages(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	t.Cleanup(cw.stop)

	cw.sendChannel <- []byte(`{"type":"started"}`)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"started"}`, string(msg))
}

func TestClientWriter_StopIsIdempotent(t *testing.T) {
	server, _ := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	cw.stop()
	cw.stop()
}

func TestClientWriter_StopGracefulSendsCloseFrame(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	cw.stopGraceful("shutting down")

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := client.ReadMessage()
	require.Error(t, err)
	assert.True(t, ws.IsCloseError(err, ws.CloseNormalClosure), "expected close frame, got: %v", err)
}

func TestClientWriter_StopAfterPeerDisconnect(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	client.Close()

	// Writes to a closed peer fail; stop must still return.
	cw.sendChannel <- []byte("x")
	done := make(chan struct{})
	go func() {
		cw.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after peer disconnect")
	}
}

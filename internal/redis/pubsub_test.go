package redis

import (
	"encoding/json"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampulse/internal/domain"
)

func marshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestDispatch_StreamChange(t *testing.T) {
	streams := make(chan domain.LiveStream, 1)
	events := make(chan domain.LiveStreamEvent, 1)

	payload := marshal(t, domain.LiveStream{ID: "s1", Title: "hello", IsLive: true})
	dispatch(&goredis.Message{Channel: streamChangeChannel, Payload: payload}, streams, events)

	require.Len(t, streams, 1)
	got := <-streams
	assert.Equal(t, "s1", got.ID)
	assert.True(t, got.IsLive)
	assert.Empty(t, events)
}

func TestDispatch_StreamEvent(t *testing.T) {
	streams := make(chan domain.LiveStream, 1)
	events := make(chan domain.LiveStreamEvent, 1)

	payload := marshal(t, domain.LiveStreamEvent{ID: "ev1", Type: domain.EventChatMessage, StreamID: "s1"})
	dispatch(&goredis.Message{Channel: streamEventChannel, Payload: payload}, streams, events)

	require.Len(t, events, 1)
	got := <-events
	assert.Equal(t, "ev1", got.ID)
	assert.Equal(t, domain.EventChatMessage, got.Type)
	assert.Empty(t, streams)
}

func TestDispatch_MalformedPayloadDropped(t *testing.T) {
	streams := make(chan domain.LiveStream, 1)
	events := make(chan domain.LiveStreamEvent, 1)

	dispatch(&goredis.Message{Channel: streamChangeChannel, Payload: "{not json"}, streams, events)
	dispatch(&goredis.Message{Channel: streamEventChannel, Payload: "{not json"}, streams, events)

	assert.Empty(t, streams)
	assert.Empty(t, events)
}

func TestDispatch_UnknownChannelIgnored(t *testing.T) {
	streams := make(chan domain.LiveStream, 1)
	events := make(chan domain.LiveStreamEvent, 1)

	dispatch(&goredis.Message{Channel: "other:channel", Payload: "{}"}, streams, events)

	assert.Empty(t, streams)
	assert.Empty(t, events)
}

func TestDispatch_FullChannelDropsInsteadOfBlocking(t *testing.T) {
	streams := make(chan domain.LiveStream) // unbuffered, nobody reading
	events := make(chan domain.LiveStreamEvent, 1)

	payload := marshal(t, domain.LiveStream{ID: "s1"})

	// With no receiver and no buffer, dispatch must drop rather than block.
	dispatch(&goredis.Message{Channel: streamChangeChannel, Payload: payload}, streams, events)
}

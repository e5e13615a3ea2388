package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampulse/internal/domain"
)

func TestGenerateStreamKey(t *testing.T) {
	key := generateStreamKey()
	assert.True(t, strings.HasPrefix(key, "sk_"))
	assert.NotContains(t, key, "-")
	assert.NotEqual(t, key, generateStreamKey())
}

func TestFallbackStreams_FixedList(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	streams := FallbackStreams(now)
	require.Len(t, streams, 2)

	first := streams[0]
	assert.Equal(t, "fallback-1", first.ID)
	assert.True(t, first.IsLive)
	assert.Equal(t, 1250, first.Viewers)
	assert.Equal(t, domain.Quality1080p, first.Quality)
	assert.Equal(t, 8000, first.Bitrate)
	assert.Equal(t, domain.SourceFallback, first.Source)
	require.NotNil(t, first.StartedAt)
	assert.Equal(t, now.Add(-45*time.Minute), *first.StartedAt)

	second := streams[1]
	assert.Equal(t, "fallback-2", second.ID)
	assert.Equal(t, domain.Quality4K, second.Quality)
	assert.Equal(t, 25000, second.Bitrate)
	assert.Equal(t, 870, second.Viewers)
}

func TestFallbackStreams_ProfilesMatchQualityTable(t *testing.T) {
	for _, stream := range FallbackStreams(time.Now().UTC()) {
		profile, ok := domain.ProfileFor(stream.Quality)
		require.True(t, ok)
		assert.Equal(t, profile.Bitrate, stream.Bitrate)
		assert.Equal(t, profile.Resolution, stream.Resolution)
		assert.Equal(t, profile.Codec, stream.Codec)
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor_KnownTiers(t *testing.T) {
	tests := []struct {
		quality    Quality
		bitrate    int
		resolution string
		fps        int
		codec      string
	}{
		{Quality1080p, 8000, "1920x1080", 60, "H.264"},
		{Quality4K, 25000, "3840x2160", 60, "H.265"},
		{Quality8K, 50000, "7680x4320", 60, "H.265"},
		{Quality20K, 100000, "19200x10800", 120, "AV1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.quality), func(t *testing.T) {
			profile, ok := ProfileFor(tt.quality)
			require.True(t, ok)
			assert.Equal(t, tt.bitrate, profile.Bitrate)
			assert.Equal(t, tt.resolution, profile.Resolution)
			assert.Equal(t, tt.fps, profile.FPS)
			assert.Equal(t, tt.codec, profile.Codec)
		})
	}
}

func TestProfileFor_UnknownTier(t *testing.T) {
	_, ok := ProfileFor(Quality("720p"))
	assert.False(t, ok)
}

func TestQualities_CoversAllProfiles(t *testing.T) {
	qualities := Qualities()
	require.Len(t, qualities, 4)
	for _, q := range qualities {
		_, ok := ProfileFor(q)
		assert.True(t, ok, "missing profile for %s", q)
	}
}

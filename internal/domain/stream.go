package domain

import (
	"time"
)

// Quality is one of the four fixed video-quality presets.
type Quality string

const (
	Quality1080p Quality = "1080p"
	Quality4K    Quality = "4K"
	Quality8K    Quality = "8K"
	Quality20K   Quality = "20K"
)

// Privacy controls who can discover and watch a stream.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

// NSFWLevel grades age-restricted content.
type NSFWLevel string

const (
	NSFWLevelMild     NSFWLevel = "mild"
	NSFWLevelModerate NSFWLevel = "moderate"
	NSFWLevelExplicit NSFWLevel = "explicit"
)

// Source marks whether a stream came from the store or was synthesized locally
// while the store was unreachable. Callers can use it to tell real data from
// placeholder data.
type Source string

const (
	SourceStore    Source = "store"
	SourceFallback Source = "fallback"
)

// LiveStreamConfig is the client-supplied input for creating a stream.
// It is never persisted as-is; the bitrate is normalized from the quality
// profile table regardless of what the client sends.
type LiveStreamConfig struct {
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Quality          Quality   `json:"quality"`
	Bitrate          int       `json:"bitrate"`
	EnableAI         bool      `json:"enable_ai"`
	EnableHDR        bool      `json:"enable_hdr"`
	EnableRayTracing bool      `json:"enable_ray_tracing"`
	Privacy          Privacy   `json:"privacy"`
	Category         string    `json:"category"`
	Tags             []string  `json:"tags"`
	IsNSFW           bool      `json:"is_nsfw"`
	NSFWLevel        NSFWLevel `json:"nsfw_level,omitempty"`
	AgeRestriction   int       `json:"age_restriction,omitempty"`
	ContentWarnings  []string  `json:"content_warnings,omitempty"`
}

// AIFeatures are the feature flags derived from LiveStreamConfig.EnableAI.
type AIFeatures struct {
	Enabled             bool `json:"enabled" db:"ai_enabled"`
	RealTimeEnhancement bool `json:"real_time_enhancement" db:"ai_realtime_enhancement"`
	AutoModeration      bool `json:"auto_moderation" db:"ai_auto_moderation"`
	ViewerAnalytics     bool `json:"viewer_analytics" db:"ai_viewer_analytics"`
}

// StreamAnalytics is the per-stream analytics snapshot. The chat-message and
// reaction counters are bumped by store-side atomic updates.
type StreamAnalytics struct {
	TotalViews       int     `json:"total_views" db:"total_views"`
	UniqueViewers    int     `json:"unique_viewers" db:"unique_viewers"`
	AverageWatchTime float64 `json:"average_watch_time" db:"average_watch_time"`
	EngagementRate   float64 `json:"engagement_rate" db:"engagement_rate"`
	ChatMessages     int     `json:"chat_messages" db:"chat_messages"`
	Reactions        int     `json:"reactions" db:"reactions"`
}

// LiveStream is the persisted (or locally synthesized) stream entity.
type LiveStream struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	Title           string          `json:"title" db:"title"`
	Description     string          `json:"description,omitempty" db:"description"`
	IsLive          bool            `json:"is_live" db:"is_live"`
	StartedAt       *time.Time      `json:"started_at,omitempty" db:"started_at"`
	EndedAt         *time.Time      `json:"ended_at,omitempty" db:"ended_at"`
	Viewers         int             `json:"viewers" db:"viewers"`
	PeakViewers     int             `json:"peak_viewers" db:"peak_viewers"`
	Duration        int64           `json:"duration" db:"duration"` // seconds
	StreamKey       string          `json:"stream_key" db:"stream_key"`
	PlaybackURL     string          `json:"playback_url,omitempty" db:"playback_url"`
	ThumbnailURL    string          `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	Quality         Quality         `json:"quality" db:"quality"`
	Bitrate         int             `json:"bitrate" db:"bitrate"`
	Resolution      string          `json:"resolution" db:"resolution"`
	FPS             int             `json:"fps" db:"fps"`
	Codec           string          `json:"codec" db:"codec"`
	Privacy         Privacy         `json:"privacy" db:"privacy"`
	Category        string          `json:"category" db:"category"`
	Tags            []string        `json:"tags" db:"tags"`
	IsNSFW          bool            `json:"is_nsfw" db:"is_nsfw"`
	NSFWLevel       NSFWLevel       `json:"nsfw_level,omitempty" db:"nsfw_level"`
	AgeRestriction  int             `json:"age_restriction,omitempty" db:"age_restriction"`
	ContentWarnings []string        `json:"content_warnings,omitempty" db:"content_warnings"`
	AIFeatures      AIFeatures      `json:"ai_features"`
	Analytics       StreamAnalytics `json:"analytics"`
	Source          Source          `json:"source"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

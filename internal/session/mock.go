package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"streampulse/internal/domain"
)

// DefaultListLimit is the default page size for stream listings.
const DefaultListLimit = 20

// generateStreamKey mints an opaque, never-reused credential string.
func generateStreamKey() string {
	return "sk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// newFallbackStream synthesizes a placeholder stream when the store is
// unreachable. The canonical object is cached so later start/quality/end
// calls can mutate it in place; the returned value is a copy.
func (m *Manager) newFallbackStream(cfg domain.LiveStreamConfig, userID string, live bool) *domain.LiveStream {
	now := m.clock.Now().UTC()
	profile, ok := domain.ProfileFor(cfg.Quality)
	if !ok {
		profile, _ = domain.ProfileFor(domain.Quality1080p)
		cfg.Quality = domain.Quality1080p
	}

	stream := &domain.LiveStream{
		ID:              "mock-" + uuid.NewString(),
		UserID:          userID,
		Title:           cfg.Title,
		Description:     cfg.Description,
		IsLive:          live,
		StreamKey:       generateStreamKey(),
		Quality:         cfg.Quality,
		Bitrate:         profile.Bitrate,
		Resolution:      profile.Resolution,
		FPS:             profile.FPS,
		Codec:           profile.Codec,
		Privacy:         cfg.Privacy,
		Category:        cfg.Category,
		Tags:            cfg.Tags,
		IsNSFW:          cfg.IsNSFW,
		NSFWLevel:       cfg.NSFWLevel,
		AgeRestriction:  cfg.AgeRestriction,
		ContentWarnings: cfg.ContentWarnings,
		AIFeatures:      aiFeatures(cfg.EnableAI),
		Source:          domain.SourceFallback,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if live {
		stream.StartedAt = &now
	}

	m.mu.Lock()
	m.fallbacks[stream.ID] = stream
	m.mu.Unlock()

	return cloneStream(stream)
}

// FallbackStreams is the fixed, hand-authored list served when the store is
// unreachable, so discovery surfaces stay populated in a disconnected or
// demo environment.
func FallbackStreams(now time.Time) []domain.LiveStream {
	started := now.Add(-45 * time.Minute)
	return []domain.LiveStream{
		{
			ID:          "fallback-1",
			UserID:      "demo-user-1",
			Title:       "Demo Stream: Exploring the City",
			Description: "A placeholder stream shown while the backend is offline.",
			IsLive:      true,
			StartedAt:   &started,
			Viewers:     1250,
			PeakViewers: 1800,
			StreamKey:   "sk_fallback_demo_1",
			Quality:     domain.Quality1080p,
			Bitrate:     8000,
			Resolution:  "1920x1080",
			FPS:         60,
			Codec:       "H.264",
			Privacy:     domain.PrivacyPublic,
			Category:    "irl",
			Tags:        []string{"demo", "city"},
			Analytics: domain.StreamAnalytics{
				TotalViews:       15000,
				UniqueViewers:    9800,
				AverageWatchTime: 12.5,
				EngagementRate:   0.42,
				ChatMessages:     3400,
				Reactions:        5600,
			},
			Source:    domain.SourceFallback,
			CreatedAt: started,
			UpdatedAt: now,
		},
		{
			ID:          "fallback-2",
			UserID:      "demo-user-2",
			Title:       "Demo Stream: Late Night Gaming",
			Description: "A placeholder stream shown while the backend is offline.",
			IsLive:      true,
			StartedAt:   &started,
			Viewers:     870,
			PeakViewers: 1100,
			StreamKey:   "sk_fallback_demo_2",
			Quality:     domain.Quality4K,
			Bitrate:     25000,
			Resolution:  "3840x2160",
			FPS:         60,
			Codec:       "H.265",
			Privacy:     domain.PrivacyPublic,
			Category:    "gaming",
			Tags:        []string{"demo", "gaming"},
			Analytics: domain.StreamAnalytics{
				TotalViews:       9200,
				UniqueViewers:    6100,
				AverageWatchTime: 18.2,
				EngagementRate:   0.35,
				ChatMessages:     2100,
				Reactions:        3900,
			},
			Source:    domain.SourceFallback,
			CreatedAt: started,
			UpdatedAt: now,
		},
	}
}

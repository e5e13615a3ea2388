package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"streampulse/internal/domain"
)

// Repository is an in-memory implementation of both domain.StreamRepository
// and domain.EventRepository. It backs tests and single-process demo mode
// where no Postgres is available.
type Repository struct {
	clock clockwork.Clock

	mu      sync.Mutex
	streams map[string]*domain.LiveStream
	events  map[string][]domain.LiveStreamEvent
}

func NewRepository(clock clockwork.Clock) *Repository {
	return &Repository{
		clock:   clock,
		streams: make(map[string]*domain.LiveStream),
		events:  make(map[string][]domain.LiveStreamEvent),
	}
}

func (r *Repository) Create(_ context.Context, stream *domain.LiveStream) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := cloneStream(stream)
	copied.Source = domain.SourceStore
	r.streams[stream.ID] = copied
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.LiveStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stream, ok := r.streams[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	return cloneStream(stream), nil
}

func (r *Repository) GetLive(_ context.Context, category string, limit int) ([]domain.LiveStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.LiveStream
	for _, stream := range r.streams {
		if !stream.IsLive {
			continue
		}
		if category != "" && stream.Category != category {
			continue
		}
		result = append(result, *cloneStream(stream))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Viewers > result[j].Viewers })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Repository) GetByUser(_ context.Context, userID string) ([]domain.LiveStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.LiveStream
	for _, stream := range r.streams {
		if stream.UserID == userID {
			result = append(result, *cloneStream(stream))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *Repository) SetLive(_ context.Context, id string, startedAt time.Time) (*domain.LiveStream, error) {
	return r.mutate(id, func(s *domain.LiveStream) {
		if s.IsLive {
			return // starting twice is a silent no-op
		}
		s.IsLive = true
		s.StartedAt = &startedAt
		s.EndedAt = nil
	})
}

func (r *Repository) SetEnded(_ context.Context, id string, endedAt time.Time) (*domain.LiveStream, error) {
	return r.mutate(id, func(s *domain.LiveStream) {
		if !s.IsLive {
			return // ending a non-live stream is a silent no-op
		}
		s.IsLive = false
		s.EndedAt = &endedAt
		if s.StartedAt != nil {
			d := int64(endedAt.Sub(*s.StartedAt).Seconds())
			if d < 0 {
				d = 0
			}
			s.Duration = d
		}
	})
}

func (r *Repository) UpdateQuality(_ context.Context, id string, quality domain.Quality, profile domain.QualityProfile) (*domain.LiveStream, error) {
	return r.mutate(id, func(s *domain.LiveStream) {
		s.Quality = quality
		s.Bitrate = profile.Bitrate
		s.Resolution = profile.Resolution
		s.FPS = profile.FPS
		s.Codec = profile.Codec
	})
}

func (r *Repository) IncrementViewers(_ context.Context, id string) (*domain.LiveStream, error) {
	return r.mutate(id, func(s *domain.LiveStream) {
		s.Viewers++
		if s.Viewers > s.PeakViewers {
			s.PeakViewers = s.Viewers
		}
		s.Analytics.TotalViews++
	})
}

func (r *Repository) DecrementViewers(_ context.Context, id string) (*domain.LiveStream, error) {
	return r.mutate(id, func(s *domain.LiveStream) {
		if s.Viewers > 0 {
			s.Viewers--
		}
	})
}

func (r *Repository) IncrementChatMessages(_ context.Context, id string) (*domain.LiveStream, error) {
	return r.mutate(id, func(s *domain.LiveStream) {
		s.Analytics.ChatMessages++
	})
}

func (r *Repository) IncrementReactions(_ context.Context, id string) (*domain.LiveStream, error) {
	return r.mutate(id, func(s *domain.LiveStream) {
		s.Analytics.Reactions++
	})
}

func (r *Repository) mutate(id string, apply func(*domain.LiveStream)) (*domain.LiveStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stream, ok := r.streams[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	apply(stream)
	stream.UpdatedAt = r.clock.Now().UTC()
	return cloneStream(stream), nil
}

// --- EventRepository ---

func (r *Repository) Insert(_ context.Context, event *domain.LiveStreamEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.StreamID] = append(r.events[event.StreamID], *event)
	return nil
}

func (r *Repository) ListByStream(_ context.Context, streamID string, limit int) ([]domain.LiveStreamEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events[streamID]
	result := make([]domain.LiveStreamEvent, len(events))
	copy(result, events)
	// newest first
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneStream(s *domain.LiveStream) *domain.LiveStream {
	copied := *s
	copied.Tags = append([]string(nil), s.Tags...)
	copied.ContentWarnings = append([]string(nil), s.ContentWarnings...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		copied.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		copied.EndedAt = &t
	}
	return &copied
}

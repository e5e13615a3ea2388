package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"streampulse/internal/domain"
	"streampulse/internal/metrics"
)

const streamColumns = `id, user_id, title, description, is_live, started_at, ended_at,
	viewers, peak_viewers, duration, stream_key, playback_url, thumbnail_url,
	quality, bitrate, resolution, fps, codec, privacy, category, tags,
	is_nsfw, nsfw_level, age_restriction, content_warnings,
	ai_enabled, ai_realtime_enhancement, ai_auto_moderation, ai_viewer_analytics,
	total_views, unique_viewers, average_watch_time, engagement_rate, chat_messages, reactions,
	created_at, updated_at`

// ChangeNotifier receives row-change notifications after successful mutations.
// The Redis PubSub satisfies it; nil disables notifications.
type ChangeNotifier interface {
	PublishStreamChange(ctx context.Context, stream *domain.LiveStream) error
}

// StreamRepository is the Postgres implementation of domain.StreamRepository.
type StreamRepository struct {
	pool     *pgxpool.Pool
	notifier ChangeNotifier
}

// NewStreamRepository creates a repository. notifier may be nil.
func NewStreamRepository(pool *pgxpool.Pool, notifier ChangeNotifier) *StreamRepository {
	return &StreamRepository{pool: pool, notifier: notifier}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStream(row rowScanner) (*domain.LiveStream, error) {
	var s domain.LiveStream
	var quality, privacy, nsfwLevel string
	err := row.Scan(
		&s.ID, &s.UserID, &s.Title, &s.Description, &s.IsLive, &s.StartedAt, &s.EndedAt,
		&s.Viewers, &s.PeakViewers, &s.Duration, &s.StreamKey, &s.PlaybackURL, &s.ThumbnailURL,
		&quality, &s.Bitrate, &s.Resolution, &s.FPS, &s.Codec, &privacy, &s.Category, &s.Tags,
		&s.IsNSFW, &nsfwLevel, &s.AgeRestriction, &s.ContentWarnings,
		&s.AIFeatures.Enabled, &s.AIFeatures.RealTimeEnhancement, &s.AIFeatures.AutoModeration, &s.AIFeatures.ViewerAnalytics,
		&s.Analytics.TotalViews, &s.Analytics.UniqueViewers, &s.Analytics.AverageWatchTime, &s.Analytics.EngagementRate,
		&s.Analytics.ChatMessages, &s.Analytics.Reactions,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Quality = domain.Quality(quality)
	s.Privacy = domain.Privacy(privacy)
	s.NSFWLevel = domain.NSFWLevel(nsfwLevel)
	s.Source = domain.SourceStore
	return &s, nil
}

func (r *StreamRepository) notify(ctx context.Context, stream *domain.LiveStream) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.PublishStreamChange(ctx, stream); err != nil {
		slog.Warn("Failed to publish stream change", "stream_id", stream.ID, "error", err)
	}
}

func (r *StreamRepository) Create(ctx context.Context, stream *domain.LiveStream) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO live_streams (
			id, user_id, title, description, is_live, viewers, peak_viewers, duration,
			stream_key, playback_url, thumbnail_url,
			quality, bitrate, resolution, fps, codec, privacy, category, tags,
			is_nsfw, nsfw_level, age_restriction, content_warnings,
			ai_enabled, ai_realtime_enhancement, ai_auto_moderation, ai_viewer_analytics,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	`,
		stream.ID, stream.UserID, stream.Title, stream.Description, stream.IsLive,
		stream.Viewers, stream.PeakViewers, stream.Duration,
		stream.StreamKey, stream.PlaybackURL, stream.ThumbnailURL,
		string(stream.Quality), stream.Bitrate, stream.Resolution, stream.FPS, stream.Codec,
		string(stream.Privacy), stream.Category, stream.Tags,
		stream.IsNSFW, string(stream.NSFWLevel), stream.AgeRestriction, stream.ContentWarnings,
		stream.AIFeatures.Enabled, stream.AIFeatures.RealTimeEnhancement,
		stream.AIFeatures.AutoModeration, stream.AIFeatures.ViewerAnalytics,
		stream.CreatedAt, stream.UpdatedAt,
	)
	if err != nil {
		metrics.StoreOpsTotal.WithLabelValues("create_stream", "error").Inc()
		return wrapStoreErr("create stream", err)
	}
	metrics.StoreOpsTotal.WithLabelValues("create_stream", "ok").Inc()
	r.notify(ctx, stream)
	return nil
}

func (r *StreamRepository) GetByID(ctx context.Context, id string) (*domain.LiveStream, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+streamColumns+` FROM live_streams WHERE id = $1`, id)
	stream, err := scanStream(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStreamNotFound
	}
	if err != nil {
		return nil, wrapStoreErr("get stream", err)
	}
	return stream, nil
}

func (r *StreamRepository) GetLive(ctx context.Context, category string, limit int) ([]domain.LiveStream, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+streamColumns+`
		FROM live_streams
		WHERE is_live = TRUE AND ($1 = '' OR category = $1)
		ORDER BY viewers DESC
		LIMIT $2
	`, category, limit)
	if err != nil {
		return nil, wrapStoreErr("list live streams", err)
	}
	defer rows.Close()
	return collectStreams(rows)
}

func (r *StreamRepository) GetByUser(ctx context.Context, userID string) ([]domain.LiveStream, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+streamColumns+`
		FROM live_streams
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, wrapStoreErr("list user streams", err)
	}
	defer rows.Close()
	return collectStreams(rows)
}

func collectStreams(rows pgx.Rows) ([]domain.LiveStream, error) {
	var streams []domain.LiveStream
	for rows.Next() {
		stream, err := scanStream(rows)
		if err != nil {
			return nil, wrapStoreErr("scan stream", err)
		}
		streams = append(streams, *stream)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("iterate streams", err)
	}
	return streams, nil
}

// SetLive marks a stream live exactly once; starting an already-live stream
// is a silent no-op that returns the current row.
func (r *StreamRepository) SetLive(ctx context.Context, id string, startedAt time.Time) (*domain.LiveStream, error) {
	return r.conditionalUpdate(ctx, "start stream", id, `
		UPDATE live_streams
		SET is_live = TRUE, started_at = $2, ended_at = NULL, updated_at = NOW()
		WHERE id = $1 AND is_live = FALSE
		RETURNING `+streamColumns, id, startedAt)
}

// SetEnded marks a stream ended; ending a non-live stream is a silent no-op.
// Duration is computed store-side from started_at.
func (r *StreamRepository) SetEnded(ctx context.Context, id string, endedAt time.Time) (*domain.LiveStream, error) {
	return r.conditionalUpdate(ctx, "end stream", id, `
		UPDATE live_streams
		SET is_live = FALSE,
			ended_at = $2,
			duration = CASE WHEN started_at IS NOT NULL
				THEN GREATEST(EXTRACT(EPOCH FROM ($2::timestamptz - started_at))::BIGINT, 0)
				ELSE duration END,
			updated_at = NOW()
		WHERE id = $1 AND is_live = TRUE
		RETURNING `+streamColumns, id, endedAt)
}

func (r *StreamRepository) UpdateQuality(ctx context.Context, id string, quality domain.Quality, profile domain.QualityProfile) (*domain.LiveStream, error) {
	return r.conditionalUpdate(ctx, "change quality", id, `
		UPDATE live_streams
		SET quality = $2, bitrate = $3, resolution = $4, fps = $5, codec = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+streamColumns,
		id, string(quality), profile.Bitrate, profile.Resolution, profile.FPS, profile.Codec)
}

// IncrementViewers bumps the viewer counter atomically and keeps
// peak_viewers >= viewers inside the same statement.
func (r *StreamRepository) IncrementViewers(ctx context.Context, id string) (*domain.LiveStream, error) {
	return r.conditionalUpdate(ctx, "increment viewers", id, `
		UPDATE live_streams
		SET viewers = viewers + 1,
			peak_viewers = GREATEST(peak_viewers, viewers + 1),
			total_views = total_views + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+streamColumns, id)
}

func (r *StreamRepository) DecrementViewers(ctx context.Context, id string) (*domain.LiveStream, error) {
	return r.conditionalUpdate(ctx, "decrement viewers", id, `
		UPDATE live_streams
		SET viewers = GREATEST(viewers - 1, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING `+streamColumns, id)
}

func (r *StreamRepository) IncrementChatMessages(ctx context.Context, id string) (*domain.LiveStream, error) {
	return r.conditionalUpdate(ctx, "increment chat messages", id, `
		UPDATE live_streams
		SET chat_messages = chat_messages + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+streamColumns, id)
}

func (r *StreamRepository) IncrementReactions(ctx context.Context, id string) (*domain.LiveStream, error) {
	return r.conditionalUpdate(ctx, "increment reactions", id, `
		UPDATE live_streams
		SET reactions = reactions + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+streamColumns, id)
}

// conditionalUpdate runs an UPDATE ... RETURNING statement. When the WHERE
// clause matches nothing the stream is either absent (ErrStreamNotFound) or
// already in the target state, in which case the current row is returned.
func (r *StreamRepository) conditionalUpdate(ctx context.Context, operation, id, query string, args ...any) (*domain.LiveStream, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	stream, err := scanStream(row)
	if errors.Is(err, pgx.ErrNoRows) {
		stream, err = r.GetByID(ctx, id)
		if err != nil {
			metrics.StoreOpsTotal.WithLabelValues(operation, "error").Inc()
			return nil, err
		}
		metrics.StoreOpsTotal.WithLabelValues(operation, "noop").Inc()
		return stream, nil
	}
	if err != nil {
		metrics.StoreOpsTotal.WithLabelValues(operation, "error").Inc()
		return nil, wrapStoreErr(operation, err)
	}
	metrics.StoreOpsTotal.WithLabelValues(operation, "ok").Inc()
	r.notify(ctx, stream)
	return stream, nil
}

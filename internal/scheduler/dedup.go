package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// markerTTL keeps dedup markers long enough to survive a late re-run but
// lets stale guilds age out.
const markerTTL = 48 * time.Hour

// PostMarker tracks, per guild, the last real date a daily report was
// published, so a restarted reporter never double-posts.
type PostMarker struct {
	redis *redis.Client
}

// NewPostMarker creates a marker store backed by Redis.
func NewPostMarker(redisClient *redis.Client) *PostMarker {
	return &PostMarker{redis: redisClient}
}

func markerKey(guildID string) string {
	return fmt.Sprintf("almanac:autopost:%s", guildID)
}

// AlreadyPosted reports whether the guild's report for the given real date
// key (YYYY-MM-DD) was already published.
func (m *PostMarker) AlreadyPosted(ctx context.Context, guildID, dateKey string) (bool, error) {
	val, err := m.redis.Get(ctx, markerKey(guildID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read post marker: %w", err)
	}
	return val == dateKey, nil
}

// MarkPosted records that the guild's report for the date key went out.
func (m *PostMarker) MarkPosted(ctx context.Context, guildID, dateKey string) error {
	if err := m.redis.Set(ctx, markerKey(guildID), dateKey, markerTTL).Err(); err != nil {
		return fmt.Errorf("failed to set post marker: %w", err)
	}
	return nil
}

// ClearMarker removes the guild's marker, e.g. when autopost is disabled.
func (m *PostMarker) ClearMarker(ctx context.Context, guildID string) error {
	return m.redis.Del(ctx, markerKey(guildID)).Err()
}

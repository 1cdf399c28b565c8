// Package history keeps the rolling window of recent post texts the
// duplicate guard compares against.
package history

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	recentPostsKey = "posts:recent"
	maxRecentPosts = 10
)

// RedisClient is the subset of go-redis the store needs.
type RedisClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

type Store struct {
	redis  RedisClient
	tracer trace.Tracer
}

func NewStore(redisClient RedisClient, tracer trace.Tracer) *Store {
	return &Store{redis: redisClient, tracer: tracer}
}

// Recent returns up to the 10 most-recent post texts, most recent first.
func (s *Store) Recent(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "history.recent")
	defer span.End()

	return s.redis.LRange(ctx, recentPostsKey, 0, maxRecentPosts-1).Result()
}

// Record prepends a published post text and trims the window.
func (s *Store) Record(ctx context.Context, text string) error {
	ctx, span := s.tracer.Start(ctx, "history.record")
	defer span.End()

	if err := s.redis.LPush(ctx, recentPostsKey, text).Err(); err != nil {
		return err
	}
	return s.redis.LTrim(ctx, recentPostsKey, 0, maxRecentPosts-1).Err()
}

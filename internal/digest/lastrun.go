// AngelaMos | 2026
// lastrun.go

package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LastRunStore remembers when a digest last went out.
type LastRunStore interface {
	Get(ctx context.Context) (time.Time, bool, error)
	Set(ctx context.Context, t time.Time) error
}

type RedisLastRunStore struct {
	rdb *redis.Client
	key string
}

func NewRedisLastRunStore(rdb *redis.Client, key string) *RedisLastRunStore {
	return &RedisLastRunStore{rdb: rdb, key: key}
}

func (s *RedisLastRunStore) Get(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get digest last run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse digest last run %q: %w", raw, err)
	}
	return t, true, nil
}

func (s *RedisLastRunStore) Set(ctx context.Context, t time.Time) error {
	if err := s.rdb.Set(ctx, s.key, t.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("set digest last run: %w", err)
	}
	return nil
}

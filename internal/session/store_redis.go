package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the snapshot under a single key. No expiry is set;
// the snapshot lives until it is overwritten by a later mutation.
type RedisStore struct {
	rdb redis.Cmdable
	key string
}

func NewRedisStore(rdb redis.Cmdable, key string) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("session: redis client is nil")
	}
	if key == "" {
		return nil, errors.New("session: redis key is required")
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get %s: %w", s.key, err)
	}
	return b, nil
}

func (s *RedisStore) Save(ctx context.Context, payload []byte) error {
	if err := s.rdb.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("session: redis set %s: %w", s.key, err)
	}
	return nil
}

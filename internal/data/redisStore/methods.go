package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

// SetNX sets the key only when it does not exist yet. Used for pipeline
// leases so two concurrent requests cannot process the same document.
func (s *Store) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, expiration).Result()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// this for the message store
func (s *Store) ListPush(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.client.RPush(ctx, key, value).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, expiration).Err()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.getCount(ctx, key)
	return count > 0, err
}

func (s *Store) getCount(ctx context.Context, key string) (int64, error) {
	return s.client.Exists(ctx, key).Result()
}

func (s *Store) ListGetRecent(ctx context.Context, key string, n int64) ([]string, error) {
	length, err := s.client.LLen(ctx, key).Result()
	if length < 1 || err != nil {
		return []string{}, err
	}
	if length <= n {
		return s.ListGetAll(ctx, key)
	}
	return s.listGetPreviousXMessages(ctx, key, -n)
}

func (s *Store) ListGetAll(ctx context.Context, key string) ([]string, error) {
	return s.listGetPreviousXMessages(ctx, key, int64(0))
}

func (s *Store) listGetPreviousXMessages(ctx context.Context, key string, start int64) ([]string, error) {
	result, err := s.client.LRange(ctx, key, start, -1).Result()
	return result, err
}

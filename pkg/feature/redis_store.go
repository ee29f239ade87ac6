package feature

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKeyPrefix = "feature:flag:"

// RedisStore persists flags as JSON documents in Redis, one key per flag
// under a configurable prefix. Multiple service instances can share it;
// cross-instance cache invalidation is handled by the change notifier, not
// the store.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix overrides the key prefix flags are stored under.
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed flag store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.Join(ErrStoreNil, errors.New("redis client cannot be nil"))
	}
	s := &RedisStore{client: client, prefix: defaultRedisKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

// Get fetches and decodes the named flag.
func (s *RedisStore) Get(ctx context.Context, name string) (*Flag, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrFlagNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var flag Flag
	if err := json.Unmarshal(data, &flag); err != nil {
		return nil, errors.Join(ErrInvalidFlag, err)
	}
	return &flag, nil
}

// Put encodes and stores the flag, replacing any existing document.
func (s *RedisStore) Put(ctx context.Context, flag *Flag) error {
	if flag == nil || flag.Name == "" {
		return ErrInvalidFlag
	}
	data, err := json.Marshal(flag)
	if err != nil {
		return errors.Join(ErrInvalidFlag, err)
	}
	if err := s.client.Set(ctx, s.key(flag.Name), data, 0).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the flag document and reports whether it existed.
func (s *RedisStore) Delete(ctx context.Context, name string) (bool, error) {
	deleted, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return deleted > 0, nil
}

// ListKeys scans for flags under the prefix and returns their names.
func (s *RedisStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return names, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *RedisStore) Close() error { return nil }

package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "feature:usage"

// RedisStorage keeps the usage log in Redis lists, one list per flag and
// UTC day. Day keys expire after the retention period so the log does not
// grow unbounded.
type RedisStorage struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithPrefix overrides the key prefix day buckets are stored under.
func WithPrefix(prefix string) RedisStorageOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention sets how long day buckets are kept. Zero disables expiry.
func WithRetention(d time.Duration) RedisStorageOption {
	return func(s *RedisStorage) {
		s.retention = d
	}
}

// NewRedisStorage creates a Redis-backed usage log with 90-day retention by
// default.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.Join(ErrStorageNil, errors.New("redis client cannot be nil"))
	}
	s := &RedisStorage{
		client:    client,
		prefix:    defaultRedisPrefix,
		retention: 90 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStorage) key(flagName, day string) string {
	return s.prefix + ":" + flagName + ":" + day
}

// Append pushes the JSON-encoded record onto its day list.
func (s *RedisStorage) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := s.key(rec.FlagName, rec.day())
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Scan decodes the day's records, skipping malformed entries and reporting
// how many were skipped.
func (s *RedisStorage) Scan(ctx context.Context, flagName string, day time.Time) ([]Record, int, error) {
	key := s.key(flagName, day.UTC().Format(dayFormat))
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	records := make([]Record, 0, len(raw))
	malformed := 0
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			malformed++
			continue
		}
		records = append(records, rec)
	}
	return records, malformed, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *RedisStorage) Close() error { return nil }

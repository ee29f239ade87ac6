package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const defaultChannel = "feature:changes"

// RedisBroadcaster distributes change events over Redis pub/sub so every
// service instance sharing the store learns about mutations made by its
// peers. Delivery is at-most-once, which is acceptable: a missed event only
// extends a stale cache read until the TTL expires.
type RedisBroadcaster struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// RedisOption configures a RedisBroadcaster.
type RedisOption func(*RedisBroadcaster)

// WithChannel overrides the pub/sub channel name.
func WithChannel(channel string) RedisOption {
	return func(b *RedisBroadcaster) {
		if channel != "" {
			b.channel = channel
		}
	}
}

// WithLogger sets the logger used for malformed payloads.
func WithLogger(logger *slog.Logger) RedisOption {
	return func(b *RedisBroadcaster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewRedisBroadcaster creates a Redis pub/sub change notifier.
func NewRedisBroadcaster(client redis.UniversalClient, opts ...RedisOption) (*RedisBroadcaster, error) {
	if client == nil {
		return nil, errors.New("notify: redis client cannot be nil")
	}
	b := &RedisBroadcaster{
		client:  client,
		channel: defaultChannel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Publish encodes the change and publishes it to the channel.
func (b *RedisBroadcaster) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	ch        chan Change
	closeOnce sync.Once
}

func (s *redisSubscription) C() <-chan Change { return s.ch }

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}

// Subscribe opens a pub/sub subscription and decodes incoming messages.
// Malformed payloads are logged and skipped. The returned channel closes
// when the subscription or the context ends.
func (b *RedisBroadcaster) Subscribe(ctx context.Context) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan Change, 16),
	}

	go func() {
		defer close(sub.ch)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					b.logger.Warn("dropping malformed change event",
						slog.String("channel", b.channel),
						slog.String("error", err.Error()))
					continue
				}
				select {
				case sub.ch <- change:
				case <-ctx.Done():
					_ = sub.Close()
					return
				}
			}
		}
	}()

	return sub, nil
}

// Close is a no-op for the broadcaster itself; the Redis client is owned by
// the caller and subscriptions close individually.
func (b *RedisBroadcaster) Close() error { return nil }

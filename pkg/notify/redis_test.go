package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rollout/pkg/notify"
)

func newTestRedisBroadcaster(t *testing.T, opts ...notify.RedisOption) (*notify.RedisBroadcaster, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b, err := notify.NewRedisBroadcaster(client, opts...)
	require.NoError(t, err)
	return b, mr
}

func TestRedisBroadcaster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("NilClient", func(t *testing.T) {
		t.Parallel()
		_, err := notify.NewRedisBroadcaster(nil)
		assert.Error(t, err)
	})

	t.Run("PublishSubscribeRoundtrip", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestRedisBroadcaster(t)

		subCtx, cancel := context.WithCancel(ctx)
		t.Cleanup(cancel)
		sub, err := b.Subscribe(subCtx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sub.Close() })

		want := notify.Change{FlagName: "checkout", Operation: notify.OperationDelete}
		require.NoError(t, b.Publish(ctx, want))
		assert.Equal(t, want, receiveChange(t, sub))
	})

	t.Run("MalformedPayloadIsSkipped", func(t *testing.T) {
		t.Parallel()
		b, mr := newTestRedisBroadcaster(t)

		subCtx, cancel := context.WithCancel(ctx)
		t.Cleanup(cancel)
		sub, err := b.Subscribe(subCtx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sub.Close() })

		mr.Publish("feature:changes", "{garbage")
		require.NoError(t, b.Publish(ctx, notify.Change{FlagName: "valid", Operation: notify.OperationCreate}))

		// Only the well-formed event comes through.
		assert.Equal(t, "valid", receiveChange(t, sub).FlagName)
	})

	t.Run("CustomChannel", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestRedisBroadcaster(t, notify.WithChannel("rollout:events"))

		subCtx, cancel := context.WithCancel(ctx)
		t.Cleanup(cancel)
		sub, err := b.Subscribe(subCtx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sub.Close() })

		require.NoError(t, b.Publish(ctx, notify.Change{FlagName: "f", Operation: notify.OperationUpdate}))
		assert.Equal(t, "f", receiveChange(t, sub).FlagName)
	})

	t.Run("CloseEndsSubscription", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestRedisBroadcaster(t)

		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		require.NoError(t, sub.Close())

		select {
		case _, ok := <-sub.C():
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("subscription channel did not close")
		}
		assert.NoError(t, sub.Close())
	})
}

package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rollout/pkg/notify"
)

func receiveChange(t *testing.T, sub notify.Subscription) notify.Change {
	t.Helper()
	select {
	case change, ok := <-sub.C():
		require.True(t, ok, "subscription channel closed")
		return change
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
		return notify.Change{}
	}
}

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("DeliversToAllSubscribers", func(t *testing.T) {
		t.Parallel()
		b := notify.NewMemoryBroadcaster(4)
		t.Cleanup(func() { _ = b.Close() })

		sub1, err := b.Subscribe(ctx)
		require.NoError(t, err)
		sub2, err := b.Subscribe(ctx)
		require.NoError(t, err)

		want := notify.Change{FlagName: "checkout", Operation: notify.OperationUpdate}
		require.NoError(t, b.Publish(ctx, want))

		assert.Equal(t, want, receiveChange(t, sub1))
		assert.Equal(t, want, receiveChange(t, sub2))
	})

	t.Run("FullBufferDropsInsteadOfBlocking", func(t *testing.T) {
		t.Parallel()
		b := notify.NewMemoryBroadcaster(1)
		t.Cleanup(func() { _ = b.Close() })

		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)

		require.NoError(t, b.Publish(ctx, notify.Change{FlagName: "first"}))
		require.NoError(t, b.Publish(ctx, notify.Change{FlagName: "second"}))

		assert.Equal(t, "first", receiveChange(t, sub).FlagName)
		select {
		case change := <-sub.C():
			t.Fatalf("unexpected event %+v", change)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("ContextCancellationUnsubscribes", func(t *testing.T) {
		t.Parallel()
		b := notify.NewMemoryBroadcaster(4)
		t.Cleanup(func() { _ = b.Close() })

		subCtx, cancel := context.WithCancel(ctx)
		sub, err := b.Subscribe(subCtx)
		require.NoError(t, err)
		cancel()

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-sub.C():
				return !ok
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("CloseClosesSubscriptions", func(t *testing.T) {
		t.Parallel()
		b := notify.NewMemoryBroadcaster(4)
		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)

		require.NoError(t, b.Close())
		_, ok := <-sub.C()
		assert.False(t, ok)

		// Publishing after close is a harmless no-op.
		assert.NoError(t, b.Publish(ctx, notify.Change{FlagName: "late"}))
		assert.NoError(t, b.Close())
	})

	t.Run("CloseReturnsWithLiveSubscriberContexts", func(t *testing.T) {
		t.Parallel()
		b := notify.NewMemoryBroadcaster(4)

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		_, err := b.Subscribe(subCtx)
		require.NoError(t, err)

		// Close must not wait for subscriber contexts to be cancelled.
		done := make(chan error, 1)
		go func() { done <- b.Close() }()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Close did not return while a subscriber context was still live")
		}
	})

	t.Run("SubscriberCloseIsIdempotent", func(t *testing.T) {
		t.Parallel()
		b := notify.NewMemoryBroadcaster(4)
		t.Cleanup(func() { _ = b.Close() })

		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		assert.NoError(t, sub.Close())
		assert.NoError(t, sub.Close())
	})
}

package notify

import (
	"context"
	"sync"
)

type memorySubscription struct {
	ch     chan Change
	closed bool
	mu     sync.Mutex
}

func (s *memorySubscription) C() <-chan Change { return s.ch }

func (s *memorySubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers non-blocking; a full buffer drops the event.
func (s *memorySubscription) send(change Change) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- change:
		return true
	default:
		return false
	}
}

// MemoryBroadcaster is an in-process change notifier. It covers
// single-instance deployments and tests; multi-instance deployments use the
// Redis broadcaster so peers see each other's mutations.
type MemoryBroadcaster struct {
	subscriptions map[*memorySubscription]struct{}
	bufferSize    int
	closed        bool
	done          chan struct{}
	mu            sync.RWMutex
	cleanupWg     sync.WaitGroup
}

// NewMemoryBroadcaster creates an in-memory broadcaster. Each subscription
// gets a buffered channel of the given size (minimum 1); full buffers drop
// events instead of blocking Publish.
func NewMemoryBroadcaster(bufferSize int) *MemoryBroadcaster {
	return &MemoryBroadcaster{
		subscriptions: make(map[*memorySubscription]struct{}),
		bufferSize:    max(bufferSize, 1),
		done:          make(chan struct{}),
	}
}

// Subscribe registers a subscription cleaned up on context cancellation.
func (b *MemoryBroadcaster) Subscribe(ctx context.Context) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &memorySubscription{ch: make(chan Change, b.bufferSize)}
	if b.closed {
		_ = sub.Close()
		return sub, nil
	}
	b.subscriptions[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.done:
			}
		}()
	}
	return sub, nil
}

// Publish delivers the change to every subscription, dropping it for any
// whose buffer is full.
func (b *MemoryBroadcaster) Publish(ctx context.Context, change Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}
	for sub := range b.subscriptions {
		sub.send(change)
	}
	return nil
}

// Close shuts down the broadcaster and closes all subscriptions.
func (b *MemoryBroadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for sub := range b.subscriptions {
		_ = sub.Close()
	}
	clear(b.subscriptions)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster) unsubscribe(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscriptions[sub]; ok {
		delete(b.subscriptions, sub)
		_ = sub.Close()
	}
}

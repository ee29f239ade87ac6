package notify

import "context"

// Operation names the flag mutation that triggered a change event.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Change describes a flag mutation. Peers use it to invalidate their local
// evaluation caches; the payload is intentionally minimal since receivers
// re-read the store on the next evaluation.
type Change struct {
	FlagName  string    `json:"flag_name"`
	Operation Operation `json:"operation"`
}

// Subscription receives change events from a Broadcaster.
type Subscription interface {
	// C returns the channel change events arrive on. The channel is
	// closed when the subscription or its broadcaster shuts down.
	C() <-chan Change

	// Close terminates the subscription. Idempotent.
	Close() error
}

// Broadcaster distributes flag-change events to subscribers. Publishing is
// best-effort: slow consumers have events dropped rather than blocking the
// mutation path.
type Broadcaster interface {
	// Publish sends a change event to all subscribers.
	Publish(ctx context.Context, change Change) error

	// Subscribe registers a new subscriber. The subscription is cleaned
	// up when the context is cancelled or Close is called.
	Subscribe(ctx context.Context) (Subscription, error)

	// Close shuts down the broadcaster and all subscriptions.
	Close() error
}

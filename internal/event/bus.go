package event

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/crewline/crewline/internal/logging"
)

// Handler is a function that handles an event. A returned error is logged
// and isolated: it never stops delivery to other handlers or the monitor loop.
type Handler func(Event) error

// subscription represents a registered event handler.
type subscription struct {
	id      string
	kind    Kind
	handler Handler
}

// wildcardKind subscribes a handler to every event kind.
const wildcardKind Kind = "*"

// DefaultCapacity is the bounded queue size used when none is configured.
const DefaultCapacity = 1000

// Bus is a bounded, ordered, asynchronous pub-sub event bus.
// Producers push events into a FIFO queue; a monitor loop (or a direct
// Pop caller) drains them and dispatches to registered handlers.
//
// Delivery is best-effort: when the queue is full, Push drops the event,
// records a warning, and increments the dropped counter. A ring buffer of
// the same bound retains recent history for inspection regardless of
// consumption.
//
// Ordering: within a single producer goroutine, events are delivered FIFO.
// Across producers no total order is guaranteed.
type Bus struct {
	queue chan Event

	mu            sync.RWMutex
	subscriptions map[Kind][]subscription
	history       []Event // ring buffer of recent events
	historyStart  int     // index of oldest entry in history
	dropped       atomic.Int64

	logger *logging.Logger
}

// Option configures a Bus.
type Option func(*busConfig)

type busConfig struct {
	capacity int
	logger   *logging.Logger
}

// WithCapacity sets the bounded queue (and history ring) size.
func WithCapacity(n int) Option {
	return func(c *busConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger sets the logger used for dropped-event warnings and
// handler failures.
func WithLogger(logger *logging.Logger) Option {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewBus creates a Bus with the given options.
func NewBus(opts ...Option) *Bus {
	cfg := &busConfig{
		capacity: DefaultCapacity,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Bus{
		queue:         make(chan Event, cfg.capacity),
		subscriptions: make(map[Kind][]subscription),
		history:       make([]Event, 0, cfg.capacity),
		logger:        cfg.logger,
	}
}

// Capacity returns the bounded queue size.
func (b *Bus) Capacity() int {
	return cap(b.queue)
}

// Len returns the number of events currently waiting in the queue.
func (b *Bus) Len() int {
	return len(b.queue)
}

// Dropped returns how many events have been discarded because the queue
// was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Push appends an event to the queue. If the queue is full the event is
// dropped, a warning is logged, and Push returns false. The event is
// recorded in the history ring either way.
func (b *Bus) Push(e Event) bool {
	b.recordHistory(e)

	select {
	case b.queue <- e:
		return true
	default:
		b.dropped.Add(1)
		b.logger.Warn("event dropped: queue full",
			"kind", string(e.Kind),
			"source", e.Source,
			"capacity", cap(b.queue),
		)
		return false
	}
}

// Pop removes and returns the oldest queued event, blocking up to timeout.
// A non-positive timeout blocks until an event arrives. Returns false on
// timeout; it never panics or errors.
func (b *Bus) Pop(timeout time.Duration) (Event, bool) {
	if timeout <= 0 {
		e := <-b.queue
		return e, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e := <-b.queue:
		return e, true
	case <-timer.C:
		return Event{}, false
	}
}

// Subscribe registers a handler for a specific event kind.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(kind Kind, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.generateID()
	b.subscriptions[kind] = append(b.subscriptions[kind], subscription{
		id:      id,
		kind:    kind,
		handler: handler,
	})
	return id
}

// SubscribeAll registers a handler for all event kinds.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcardKind, handler)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for kind, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[kind] = append(subs[:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}

// Notify dispatches an event to all handlers registered for its kind.
// Specific handlers are called first, followed by wildcard handlers; within
// each group, handlers are called in registration order. A handler's error
// or panic is logged and does not stop the others. It also marks the
// event's history entry as processed.
func (b *Bus) Notify(e Event) {
	b.mu.RLock()
	specific := make([]subscription, len(b.subscriptions[e.Kind]))
	copy(specific, b.subscriptions[e.Kind])
	wildcard := make([]subscription, len(b.subscriptions[wildcardKind]))
	copy(wildcard, b.subscriptions[wildcardKind])
	b.mu.RUnlock()

	e.Processed = true

	for _, sub := range specific {
		b.safeCall(sub.handler, e)
	}
	for _, sub := range wildcard {
		b.safeCall(sub.handler, e)
	}

	b.markProcessed(e.ID)
}

// safeCall invokes a handler and isolates errors and panics.
// Panics are logged with stack traces so one misbehaving handler cannot
// block event delivery to other handlers.
func (b *Bus) safeCall(handler Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"kind", string(e.Kind),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := handler(e); err != nil {
		b.logger.Warn("event handler failed",
			"kind", string(e.Kind),
			"source", e.Source,
			"error", err,
		)
	}
}

// History returns a copy of the retained event history, oldest first.
func (b *Bus) History() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Event, 0, len(b.history))
	for i := 0; i < len(b.history); i++ {
		out = append(out, b.history[(b.historyStart+i)%len(b.history)])
	}
	return out
}

// recordHistory appends an event to the ring buffer, evicting the oldest
// entry once the bound is reached.
func (b *Bus) recordHistory(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) < cap(b.history) {
		b.history = append(b.history, e)
		return
	}
	b.history[b.historyStart] = e
	b.historyStart = (b.historyStart + 1) % len(b.history)
}

// markProcessed flips the processed flag on the history entry for an event.
func (b *Bus) markProcessed(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.history {
		if b.history[i].ID == id {
			b.history[i].Processed = true
			return
		}
	}
}

// generateID creates a unique subscription ID.
func (b *Bus) generateID() string {
	return uuid.NewString()
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[Kind][]subscription)
}

package alertbus

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sqlsentry/internal/logging"
)

// sendTimeout bounds how long Publish waits on one subscriber's channel
// before dropping that delivery and closing the subscriber, per spec.md
// §5's "Subscriber push: 1 s" timeout.
const sendTimeout = 1 * time.Second

// Subscriber is an opaque handle into the Bus's registry. Its Alerts
// channel receives one Alert per publish in the order publishes are
// made; Close releases the subscription.
type Subscriber struct {
	ID     string
	Alerts <-chan Alert

	send   chan Alert
	closed bool
	mu     sync.Mutex
}

func (s *Subscriber) closeOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// Close unregisters nothing by itself (the Bus still holds the handle
// until Unsubscribe is called) but stops any further delivery from being
// observable: its channel is closed.
func (s *Subscriber) Close() {
	s.closeOnce()
}

// Bus fans alerts out to every currently-subscribed Subscriber. Publish
// is non-blocking from the caller's perspective: each subscriber send is
// bounded by sendTimeout, and a subscriber whose send fails or times out
// is closed and removed from the registry, per spec.md §4.11. This
// directly generalizes the teacher's GlassBoxEventBus.EmitImmediate
// direct-dispatch fanout (internal/transparency/event_bus.go) — the
// batching path is intentionally not carried over (see DESIGN.md).
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]*Subscriber

	// pubMu serializes Publish calls so one alert's deliveries finish
	// before the next alert's deliveries begin.
	pubMu sync.Mutex
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string]*Subscriber)}
}

// Subscribe registers a new Subscriber and returns its handle.
func (b *Bus) Subscribe() *Subscriber {
	ch := make(chan Alert, 16)
	sub := &Subscriber{ID: uuid.NewString(), Alerts: ch, send: ch}

	b.mu.Lock()
	b.subscribers[sub.ID] = sub
	b.mu.Unlock()

	logging.AlertBusDebug("subscriber %s registered", sub.ID)
	return sub
}

// Unsubscribe removes and closes a Subscriber. Safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	delete(b.subscribers, sub.ID)
	b.mu.Unlock()
	sub.closeOnce()
	logging.AlertBusDebug("subscriber %s unsubscribed", sub.ID)
}

// Publish delivers alert to every currently-registered subscriber, in a
// single pass so that every subscriber observes the same relative order
// across publishes (spec.md §8 invariant 9). It never raises; a
// subscriber that cannot keep up is dropped, not the publisher blocked
// indefinitely.
func (b *Bus) Publish(alert Alert) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	targets := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	var dead []*Subscriber
	for _, sub := range targets {
		if !b.deliver(sub, alert) {
			dead = append(dead, sub)
		}
	}

	if len(dead) == 0 {
		return
	}
	b.mu.Lock()
	for _, sub := range dead {
		delete(b.subscribers, sub.ID)
	}
	b.mu.Unlock()
	for _, sub := range dead {
		sub.closeOnce()
		logging.AlertBusDebug("subscriber %s dropped (send timeout/closed)", sub.ID)
	}
}

// deliver attempts one bounded send, reporting whether the subscriber is
// still healthy (false means it should be removed from the registry).
func (b *Bus) deliver(sub *Subscriber, alert Alert) (ok bool) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return false
	}
	ch := sub.send
	sub.mu.Unlock()

	defer func() {
		// recover guards a send racing Close's channel-close between the
		// closed check above and the select below.
		if r := recover(); r != nil {
			ok = false
		}
	}()

	select {
	case ch <- alert:
		return true
	case <-time.After(sendTimeout):
		return false
	}
}

// SubscriberCount reports the number of currently-registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close unregisters and closes every subscriber. Call when the owning
// AnomalySentry stops.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.subscribers = make(map[string]*Subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.closeOnce()
	}
}

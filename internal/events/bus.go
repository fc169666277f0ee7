package events

import (
	"sync"

	logger "github.com/PolarWolf314/sealnote/internal/logging"
	"github.com/google/uuid"
)

// Bus fans events out to subscribers. Delivery is synchronous, in subscription
// order. Handlers must not block; they may subscribe or dispose during delivery,
// but such changes only take effect from the next Publish.
type Bus struct {
	log logger.Logger

	mu   sync.Mutex
	subs []*Subscriber
}

// NewBus creates a bus that reports handler panics through log.
func NewBus(log logger.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe creates a listener handle. It delivers nothing until Start is called.
func (b *Bus) Subscribe() *Subscriber {
	s := &Subscriber{
		id:       uuid.New(),
		bus:      b,
		handlers: make(map[Kind][]func(Event)),
	}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s
}

// Publish delivers ev to every started subscriber with a handler for its kind.
// A panicking handler is logged and skipped; remaining handlers still run.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]*Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		for _, h := range s.handlersFor(ev.Kind()) {
			b.deliver(s, h, ev)
		}
	}
}

func (b *Bus) deliver(s *Subscriber, h func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("subscriber %s panicked handling %s: %v", s.id, ev.Kind(), r)
		}
	}()
	h(ev)
}

// Len returns the number of attached subscribers, started or not.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close disposes every subscriber.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, s := range subs {
		s.mu.Lock()
		s.disposed = true
		s.mu.Unlock()
	}
}

func (b *Bus) remove(target *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == target {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

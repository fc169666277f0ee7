package events

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber is an independent listener handle returned by Bus.Subscribe.
// Register handlers, then Start it; Dispose stops delivery for good.
type Subscriber struct {
	id  uuid.UUID
	bus *Bus

	mu       sync.Mutex
	handlers map[Kind][]func(Event)
	started  bool
	disposed bool
}

func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// On registers fn for events of kind k.
func (s *Subscriber) On(k Kind, fn func(Event)) *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[k] = append(s.handlers[k], fn)
	return s
}

func (s *Subscriber) OnKeyListUpdated(fn func(KeyListUpdated)) *Subscriber {
	return s.On(KindKeyListUpdated, func(ev Event) { fn(ev.(KeyListUpdated)) })
}

func (s *Subscriber) OnKeyCreated(fn func(KeyCreated)) *Subscriber {
	return s.On(KindKeyCreated, func(ev Event) { fn(ev.(KeyCreated)) })
}

func (s *Subscriber) OnKeyDeleted(fn func(KeyDeleted)) *Subscriber {
	return s.On(KindKeyDeleted, func(ev Event) { fn(ev.(KeyDeleted)) })
}

func (s *Subscriber) OnAuthorizationRequested(fn func(AuthorizationRequested)) *Subscriber {
	return s.On(KindAuthorizationRequested, func(ev Event) { fn(ev.(AuthorizationRequested)) })
}

// Start enables delivery. Events published earlier are not replayed.
func (s *Subscriber) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.disposed {
		s.started = true
	}
}

// Dispose detaches the subscriber from its bus. It is safe to call twice.
func (s *Subscriber) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.started = false
	s.mu.Unlock()

	s.bus.remove(s)
}

// Active reports whether the subscriber currently receives events.
func (s *Subscriber) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.disposed
}

func (s *Subscriber) handlersFor(k Kind) []func(Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.disposed {
		return nil
	}
	hs := s.handlers[k]
	out := make([]func(Event), len(hs))
	copy(out, hs)
	return out
}

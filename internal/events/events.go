package events

import "github.com/PolarWolf314/sealnote/internal/keys"

// Kind tags an event's payload type.
type Kind int

const (
	KindKeyListUpdated Kind = iota + 1
	KindKeyCreated
	KindKeyDeleted
	KindAuthorizationRequested
)

func (k Kind) String() string {
	switch k {
	case KindKeyListUpdated:
		return "key-list-updated"
	case KindKeyCreated:
		return "key-created"
	case KindKeyDeleted:
		return "key-deleted"
	case KindAuthorizationRequested:
		return "authorization-requested"
	default:
		return "unknown"
	}
}

// Event is one of the key-lifecycle payloads below.
type Event interface {
	Kind() Kind
}

// KeyListUpdated carries a snapshot of every stored key after a change.
type KeyListUpdated struct {
	Keys []keys.Record
}

// KeyCreated reports a newly generated key.
type KeyCreated struct {
	KeyID string
}

// KeyDeleted reports a key removed from the store.
type KeyDeleted struct {
	KeyID string
}

// AuthorizationRequested is published on every authorize attempt, whether or
// not a prompt follows.
type AuthorizationRequested struct {
	KeyID string
}

func (KeyListUpdated) Kind() Kind         { return KindKeyListUpdated }
func (KeyCreated) Kind() Kind             { return KindKeyCreated }
func (KeyDeleted) Kind() Kind             { return KindKeyDeleted }
func (AuthorizationRequested) Kind() Kind { return KindAuthorizationRequested }

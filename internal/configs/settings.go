package configs

import (
	"fmt"
	"maps"
	"strings"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
)

// DefaultKeyIDProperty is the front matter property that tags a document with its key id.
const DefaultKeyIDProperty = ".kid"

// DefaultIdleTimeout is how long, in seconds, an authorization survives without use.
const DefaultIdleTimeout = 60

// Settings is the persisted application state.
type Settings struct {
	// KeyIDProperty names the document property holding the key id.
	KeyIDProperty string `toml:"key_id_property"`

	// IdleTimeout is the default authorization idle timeout in seconds. 0 never expires.
	IdleTimeout int `toml:"idle_timeout"`

	// Keys maps key id to record.
	Keys map[string]keys.Record `toml:"keys"`
}

func DefaultSettings() *Settings {
	return &Settings{
		KeyIDProperty: DefaultKeyIDProperty,
		IdleTimeout:   DefaultIdleTimeout,
		Keys:          make(map[string]keys.Record),
	}
}

// Validate reports the first invalid value in s, wrapped in ErrInvalidSettings.
// Records saved without an id inherit their map key.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.KeyIDProperty) == "" {
		return fmt.Errorf("%w: key_id_property must not be empty", kerrors.ErrInvalidSettings)
	}
	if s.IdleTimeout < 0 {
		return fmt.Errorf("%w: idle_timeout must not be negative, got %d", kerrors.ErrInvalidSettings, s.IdleTimeout)
	}

	for id, rec := range s.Keys {
		if rec.ID == "" {
			rec.ID = id
			s.Keys[id] = rec
		}
		if rec.ID != id {
			return fmt.Errorf("%w: key %q is stored under id %q", kerrors.ErrInvalidSettings, rec.ID, id)
		}
		if rec.SealedKey == "" {
			return fmt.Errorf("%w: key %s has no sealed_key", kerrors.ErrInvalidSettings, keys.ShortID(id))
		}
		if rec.IdleTimeout != nil && *rec.IdleTimeout < 0 {
			return fmt.Errorf("%w: key %s has a negative idle_timeout", kerrors.ErrInvalidSettings, keys.ShortID(id))
		}
	}
	return nil
}

// Clone returns a deep copy of s.
func (s *Settings) Clone() *Settings {
	out := *s
	out.Keys = make(map[string]keys.Record, len(s.Keys))
	for id, rec := range s.Keys {
		out.Keys[id] = rec.Clone()
	}
	return &out
}

// KeyMap returns a copy of the key map, never nil.
func (s *Settings) KeyMap() map[string]keys.Record {
	if s.Keys == nil {
		return make(map[string]keys.Record)
	}
	return maps.Clone(s.Keys)
}

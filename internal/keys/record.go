package keys

import "time"

// Record identifies one cryptographic key. Records are immutable once stored;
// changing a key means replacing its record.
type Record struct {
	// ID is the unpadded base64url SHA-256 of the PKIX-encoded public key.
	ID string `toml:"id"`

	// SealedKey is the passphrase-sealed private key in PEM form.
	SealedKey string `toml:"sealed_key"`

	Name string `toml:"name,omitempty"`
	Hint string `toml:"hint,omitempty"`

	// IdleTimeout overrides the default authorization idle timeout, in seconds.
	// Nil means "use the default"; zero means authorizations never expire.
	IdleTimeout *int `toml:"idle_timeout,omitempty"`
}

// Label returns a short human-facing label for the key.
func (r Record) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return ShortID(r.ID)
}

// IdleTimeoutOr resolves the idle timeout for this key. The key's override wins,
// otherwise defaultSeconds applies. A zero result means no expiry.
func (r Record) IdleTimeoutOr(defaultSeconds int) time.Duration {
	seconds := defaultSeconds
	if r.IdleTimeout != nil {
		seconds = *r.IdleTimeout
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r.IdleTimeout != nil {
		v := *r.IdleTimeout
		r.IdleTimeout = &v
	}
	return r
}

// ShortID abbreviates a key id for display.
func ShortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6] + "..."
}

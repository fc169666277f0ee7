package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
	logger "github.com/PolarWolf314/sealnote/internal/logging"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultDerivedKeyTTL bounds how long a derived symmetric key is reused
// before the sealed private key is unsealed again.
const DefaultDerivedKeyTTL = 5 * time.Minute

// KeyLookup finds key records by id.
type KeyLookup interface {
	Get(id string) (keys.Record, bool)
}

// SecretLookup reads cached passphrases. Implementations must not prompt.
type SecretLookup interface {
	// PeekSecret returns the passphrase and idle timeout for keyID without
	// renewing it, or "" when the key is not authorized.
	PeekSecret(keyID string) (passphrase string, idle time.Duration)
	// Renew slides the key's authorization after a successful use.
	Renew(keyID string) bool
}

// Engine encrypts and decrypts document bodies for authorized keys.
type Engine struct {
	keys    KeyLookup
	secrets SecretLookup
	log     logger.Logger

	// Derived caches symmetric keys by key id and passphrase fingerprint so
	// repeated transforms skip the Argon2id unseal. Entries never outlive
	// the authorization's idle timeout.
	Derived *gocache.Cache
	ttl     time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	ttl time.Duration
	log logger.Logger
}

// WithDerivedKeyTTL sets how long derived keys are cached. Zero disables caching.
func WithDerivedKeyTTL(ttl time.Duration) EngineOption {
	return func(o *engineOptions) { o.ttl = ttl }
}

func WithEngineLogger(log logger.Logger) EngineOption {
	return func(o *engineOptions) { o.log = log }
}

func NewEngine(lookup KeyLookup, secrets SecretLookup, opts ...EngineOption) *Engine {
	o := engineOptions{ttl: DefaultDerivedKeyTTL}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{keys: lookup, secrets: secrets, log: o.log, ttl: o.ttl}
	if o.ttl > 0 {
		e.Derived = gocache.New(o.ttl, 2*o.ttl)
	}
	return e
}

// Encrypt seals plaintext under keyID's derived symmetric key. Only a
// successful transform renews the key's authorization.
//
// Returns ErrUnknownKey if no record exists for keyID.
// Returns ErrNotAuthorized if the key has no valid authorization.
// Returns ErrTransformFailed if derivation or encryption fails.
func (e *Engine) Encrypt(keyID string, plaintext []byte) ([]byte, error) {
	key, err := e.symmetricKey(keyID)
	if err != nil {
		return nil, err
	}
	out, err := Seal(key.value, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypting with key %s: %w", kerrors.ErrTransformFailed, keys.ShortID(keyID), err)
	}
	e.used(keyID, key)
	e.log.Debugf("Encrypted %d bytes with key %s", len(plaintext), keys.ShortID(keyID))
	return out, nil
}

// Decrypt opens ciphertext produced by Encrypt with the same key.
// Preconditions and errors match Encrypt.
func (e *Engine) Decrypt(keyID string, ciphertext []byte) ([]byte, error) {
	key, err := e.symmetricKey(keyID)
	if err != nil {
		return nil, err
	}
	out, err := Open(key.value, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypting with key %s: %w", kerrors.ErrTransformFailed, keys.ShortID(keyID), err)
	}
	e.used(keyID, key)
	e.log.Debugf("Decrypted %d bytes with key %s", len(out), keys.ShortID(keyID))
	return out, nil
}

// Forget drops cached derived keys for keyID.
func (e *Engine) Forget(keyID string) {
	if e.Derived == nil {
		return
	}
	prefix := keyID + "|"
	for k := range e.Derived.Items() {
		if strings.HasPrefix(k, prefix) {
			e.Derived.Delete(k)
		}
	}
}

// Flush drops every cached derived key.
func (e *Engine) Flush() {
	if e.Derived != nil {
		e.Derived.Flush()
	}
}

type derivedKey struct {
	value    SymmetricKey
	cacheKey string
	idle     time.Duration
}

func (e *Engine) symmetricKey(keyID string) (derivedKey, error) {
	rec, ok := e.keys.Get(keyID)
	if !ok {
		return derivedKey{}, fmt.Errorf("key %s: %w", keys.ShortID(keyID), kerrors.ErrUnknownKey)
	}

	passphrase, idle := e.secrets.PeekSecret(keyID)
	if passphrase == "" {
		return derivedKey{}, fmt.Errorf("key %s: %w", rec.Label(), kerrors.ErrNotAuthorized)
	}

	key := derivedKey{cacheKey: derivedCacheKey(keyID, passphrase), idle: idle}
	if e.Derived != nil {
		if v, found := e.Derived.Get(key.cacheKey); found {
			key.value = v.(SymmetricKey)
			return key, nil
		}
	}

	value, err := DeriveSymmetricKey(rec, passphrase)
	if err != nil {
		return derivedKey{}, fmt.Errorf("%w: deriving key %s: %w", kerrors.ErrTransformFailed, rec.Label(), err)
	}
	key.value = value
	return key, nil
}

// used renews the authorization after a successful transform and caches the
// derived key for no longer than the authorization's idle timeout.
func (e *Engine) used(keyID string, key derivedKey) {
	e.secrets.Renew(keyID)
	if e.Derived == nil {
		return
	}
	ttl := e.ttl
	if key.idle > 0 && key.idle < ttl {
		ttl = key.idle
	}
	e.Derived.Set(key.cacheKey, key.value, ttl)
}

func derivedCacheKey(keyID, passphrase string) string {
	sum := sha256.Sum256([]byte(passphrase))
	return keyID + "|" + hex.EncodeToString(sum[:])
}

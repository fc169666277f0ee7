package authz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PolarWolf314/sealnote/internal/configs"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/events"
	"github.com/PolarWolf314/sealnote/internal/keys"
	logger "github.com/PolarWolf314/sealnote/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Prompter asks a human for a key's passphrase. ok is false when the prompt
// was dismissed without input.
type Prompter interface {
	PromptPassphrase(ctx context.Context, rec keys.Record) (passphrase string, ok bool, err error)
}

// KeyLookup finds key records by id.
type KeyLookup interface {
	Get(id string) (keys.Record, bool)
}

// Publisher receives authorization-requested events.
type Publisher interface {
	Publish(ev events.Event)
}

type authorization struct {
	secret    string
	ttl       time.Duration
	expiresAt time.Time // zero means no expiry
}

func (a *authorization) validAt(now time.Time) bool {
	return a.expiresAt.IsZero() || now.Before(a.expiresAt)
}

func (a *authorization) renew(now time.Time) {
	if !a.expiresAt.IsZero() {
		a.expiresAt = now.Add(a.ttl)
	}
}

// Cache holds time-bounded unlocks of key passphrases. Every successful read
// slides the entry's expiry forward by its idle timeout. Nothing is persisted.
type Cache struct {
	keys   KeyLookup
	prompt Prompter
	pub    Publisher

	verify         func(keys.Record, string) error
	defaultTimeout func() int
	now            func() time.Time
	onExpire       func(keyID string)
	log            logger.Logger

	flights singleflight.Group

	mu      sync.Mutex
	entries map[string]*authorization
	// generation changes on Clear so prompts already open cannot grant.
	generation uint64
	closed     bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithDefaultIdleTimeout supplies the default idle timeout in seconds. It is
// read each time an authorization is granted; zero means no expiry.
func WithDefaultIdleTimeout(seconds func() int) Option {
	return func(c *Cache) { c.defaultTimeout = seconds }
}

// WithVerifier replaces the check that a prompted passphrase unlocks the key.
func WithVerifier(verify func(keys.Record, string) error) Option {
	return func(c *Cache) { c.verify = verify }
}

// WithExpiryHook registers fn to run when an authorization is found expired
// and evicted. fn runs under the cache lock and must not call back into it.
func WithExpiryHook(fn func(keyID string)) Option {
	return func(c *Cache) { c.onExpire = fn }
}

func WithLogger(log logger.Logger) Option {
	return func(c *Cache) { c.log = log }
}

func New(lookup KeyLookup, prompt Prompter, pub Publisher, opts ...Option) *Cache {
	c := &Cache{
		keys:           lookup,
		prompt:         prompt,
		pub:            pub,
		verify:         keys.Verify,
		defaultTimeout: func() int { return configs.DefaultIdleTimeout },
		now:            time.Now,
		entries:        make(map[string]*authorization),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authorize reports whether keyID is usable, prompting for its passphrase if
// there is no valid authorization. It returns (false, nil) for an unknown key
// or a dismissed prompt. Concurrent calls for the same key share one prompt;
// the first caller's ctx governs it.
func (c *Cache) Authorize(ctx context.Context, keyID string) (bool, error) {
	if c.pub != nil {
		c.pub.Publish(events.AuthorizationRequested{KeyID: keyID})
	}

	if c.lookup(keyID) {
		c.log.Debugf("Key %s already authorized", keys.ShortID(keyID))
		return true, nil
	}

	rec, ok := c.keys.Get(keyID)
	if !ok {
		c.log.Debugf("Key %s is not in the key store", keys.ShortID(keyID))
		return false, nil
	}

	v, err, shared := c.flights.Do(keyID, func() (any, error) {
		// Another flight may have finished between the check above and now.
		if c.lookup(keyID) {
			return true, nil
		}

		c.mu.Lock()
		generation := c.generation
		c.mu.Unlock()

		passphrase, ok, err := c.prompt.PromptPassphrase(ctx, rec)
		if err != nil {
			return false, fmt.Errorf("prompting for passphrase of key %s: %w", rec.Label(), err)
		}
		if !ok {
			c.log.Infof("Passphrase prompt for key %s dismissed", rec.Label())
			return false, nil
		}
		if err := c.verify(rec, passphrase); err != nil {
			return false, fmt.Errorf("authorizing key %s: %w", rec.Label(), err)
		}

		if err := c.grant(rec, passphrase, &generation); err != nil {
			c.log.Infof("Dropped passphrase for key %s: %v", rec.Label(), err)
			if errors.Is(err, kerrors.ErrShutdown) {
				return false, err
			}
			return false, nil
		}
		return true, nil
	})
	if shared {
		c.log.Debugf("Shared passphrase prompt for key %s", rec.Label())
	}
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Grant records an authorization for rec, replacing any existing one. The
// expiry comes from the key's override, else the default idle timeout.
// It does nothing once the cache is closed.
func (c *Cache) Grant(rec keys.Record, passphrase string) {
	if err := c.grant(rec, passphrase, nil); err != nil {
		c.log.Debugf("Not granting key %s: %v", rec.Label(), err)
	}
}

// grant stores the authorization unless the cache is closed. With a
// generation it also refuses when the cache was cleared since, or when rec
// was removed or replaced in the key store.
func (c *Cache) grant(rec keys.Record, passphrase string, generation *uint64) error {
	a := &authorization{
		secret: passphrase,
		ttl:    rec.IdleTimeoutOr(c.defaultTimeout()),
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return kerrors.ErrShutdown
	case generation != nil && *generation != c.generation:
		c.mu.Unlock()
		return errors.New("authorizations were cleared while prompting")
	case generation != nil && !c.current(rec):
		c.mu.Unlock()
		return fmt.Errorf("key %s: %w", keys.ShortID(rec.ID), kerrors.ErrUnknownKey)
	}
	if a.ttl > 0 {
		a.expiresAt = c.now().Add(a.ttl)
	}
	c.entries[rec.ID] = a
	c.mu.Unlock()

	if a.ttl > 0 {
		c.log.Infof("Authorized key %s for %s idle", rec.Label(), a.ttl)
	} else {
		c.log.Infof("Authorized key %s with no expiry", rec.Label())
	}
	return nil
}

// current reports whether the key store still holds rec unchanged.
func (c *Cache) current(rec keys.Record) bool {
	cur, ok := c.keys.Get(rec.ID)
	return ok && cur.SealedKey == rec.SealedKey
}

// PeekSecret returns the cached passphrase for keyID and its idle timeout
// without renewing it, or "" if there is no valid authorization. An idle
// timeout of zero means the authorization does not expire. It never prompts.
func (c *Cache) PeekSecret(keyID string) (string, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.validLocked(keyID)
	if a == nil {
		return "", 0
	}
	return a.secret, a.ttl
}

// Renew slides the expiry of keyID's authorization forward by its idle
// timeout. It reports false if there is no valid authorization.
func (c *Cache) Renew(keyID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.validLocked(keyID)
	if a == nil {
		return false
	}
	a.renew(c.now())
	return true
}

// Valid reports whether keyID holds an unexpired authorization without
// renewing it.
func (c *Cache) Valid(keyID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validLocked(keyID) != nil
}

// Evict drops the authorization for keyID.
func (c *Cache) Evict(keyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, keyID)
}

// Retain keeps only the authorizations whose key id satisfies keep and
// returns how many were evicted.
func (c *Cache) Retain(keep func(keyID string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id := range c.entries {
		if !keep(id) {
			delete(c.entries, id)
			evicted++
		}
	}
	return evicted
}

// Clear drops every authorization. Prompts already open when Clear runs
// cannot grant.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Close clears the cache and refuses every later grant.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.clearLocked()
}

func (c *Cache) clearLocked() {
	c.generation++
	for id, a := range c.entries {
		a.secret = ""
		delete(c.entries, id)
	}
}

// Len returns the number of cached entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup renews and reports a valid authorization for keyID.
func (c *Cache) lookup(keyID string) bool {
	return c.Renew(keyID)
}

// validLocked returns the valid entry for keyID, evicting it if expired.
func (c *Cache) validLocked(keyID string) *authorization {
	a, ok := c.entries[keyID]
	if !ok {
		return nil
	}
	if !a.validAt(c.now()) {
		a.secret = ""
		delete(c.entries, keyID)
		if c.onExpire != nil {
			c.onExpire(keyID)
		}
		return nil
	}
	return a
}

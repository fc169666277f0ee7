package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PolarWolf314/sealnote/internal/authz"
	"github.com/PolarWolf314/sealnote/internal/configs"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/events"
	"github.com/PolarWolf314/sealnote/internal/keys"
	logger "github.com/PolarWolf314/sealnote/internal/logging"
	"github.com/PolarWolf314/sealnote/internal/secrets"
)

// SettingsStore loads and saves the persisted settings.
type SettingsStore interface {
	Load() (*configs.Settings, error)
	Save(*configs.Settings) error
}

// KeyParametersPrompter gathers the parameters for a new key. ok is false
// when the prompt was dismissed.
type KeyParametersPrompter interface {
	PromptKeyParameters(ctx context.Context, settings *configs.Settings) (req keys.Request, ok bool, err error)
}

// Options holds the collaborators of a Service. Store and Passphrases are required.
type Options struct {
	// Settings, when set, is used instead of an initial Store.Load.
	Settings *configs.Settings

	Store         SettingsStore
	Passphrases   authz.Prompter
	KeyParameters KeyParametersPrompter

	Logger logger.Logger

	// Clock replaces time.Now for authorization expiry.
	Clock func() time.Time

	// KDF seals newly generated keys. The zero value selects keys.DefaultKDF.
	KDF keys.KDFParams

	// DerivedKeyTTL overrides secrets.DefaultDerivedKeyTTL. Negative disables the cache.
	DerivedKeyTTL time.Duration
}

// Service owns the key store, the authorization cache, the cipher engine and
// the event bus. All methods are safe for concurrent use.
type Service struct {
	log       logger.Logger
	persist   SettingsStore
	keyParams KeyParametersPrompter
	kdf       keys.KDFParams

	bus    *events.Bus
	store  *keys.Store
	authz  *authz.Cache
	engine *secrets.Engine

	idleTimeout atomic.Int64
	closed      atomic.Bool

	// mu serializes changes to the key store and settings with their persistence.
	mu            sync.Mutex
	keyIDProperty string
}

// New builds a Service from opts, loading settings from opts.Store unless
// opts.Settings is given.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("service: a settings store is required")
	}
	if opts.Passphrases == nil {
		return nil, errors.New("service: a passphrase prompter is required")
	}

	settings := opts.Settings
	if settings == nil {
		var err error
		settings, err = opts.Store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
	} else {
		settings = settings.Clone()
		if err := settings.Validate(); err != nil {
			return nil, err
		}
	}

	s := &Service{
		log:           opts.Logger,
		persist:       opts.Store,
		keyParams:     opts.KeyParameters,
		kdf:           opts.KDF,
		bus:           events.NewBus(opts.Logger),
		store:         keys.NewStore(settings.KeyMap()),
		keyIDProperty: settings.KeyIDProperty,
	}
	if s.kdf == (keys.KDFParams{}) {
		s.kdf = keys.DefaultKDF
	}
	s.idleTimeout.Store(int64(settings.IdleTimeout))

	authzOpts := []authz.Option{
		authz.WithLogger(opts.Logger),
		authz.WithDefaultIdleTimeout(func() int { return int(s.idleTimeout.Load()) }),
		authz.WithExpiryHook(func(keyID string) { s.engine.Forget(keyID) }),
	}
	if opts.Clock != nil {
		authzOpts = append(authzOpts, authz.WithClock(opts.Clock))
	}
	s.authz = authz.New(s.store, opts.Passphrases, s.bus, authzOpts...)

	engineOpts := []secrets.EngineOption{secrets.WithEngineLogger(opts.Logger)}
	switch {
	case opts.DerivedKeyTTL < 0:
		engineOpts = append(engineOpts, secrets.WithDerivedKeyTTL(0))
	case opts.DerivedKeyTTL > 0:
		engineOpts = append(engineOpts, secrets.WithDerivedKeyTTL(opts.DerivedKeyTTL))
	}
	s.engine = secrets.NewEngine(s.store, s.authz, engineOpts...)

	s.log.Debugf("Service ready with %d keys", s.store.Len())
	return s, nil
}

// Subscribe returns a new event bus handle. It delivers nothing until started.
func (s *Service) Subscribe() *events.Subscriber {
	return s.bus.Subscribe()
}

// Authorize makes keyID usable, prompting for its passphrase if needed.
// It returns false for an unknown key or a dismissed prompt.
func (s *Service) Authorize(ctx context.Context, keyID string) (bool, error) {
	if s.closed.Load() {
		return false, kerrors.ErrShutdown
	}
	return s.authz.Authorize(ctx, keyID)
}

// Authorized reports whether keyID currently holds a valid authorization.
func (s *Service) Authorized(keyID string) bool {
	return s.authz.Valid(keyID)
}

// CreateKey prompts for key parameters and creates the key. A dismissed
// prompt returns "" and no error.
func (s *Service) CreateKey(ctx context.Context) (string, error) {
	if s.closed.Load() {
		return "", kerrors.ErrShutdown
	}
	if s.keyParams == nil {
		return "", errors.New("no key parameters prompt configured")
	}

	req, ok, err := s.keyParams.PromptKeyParameters(ctx, s.Settings())
	if err != nil {
		return "", fmt.Errorf("prompting for key parameters: %w", err)
	}
	if !ok {
		s.log.Infof("Key creation dismissed")
		return "", nil
	}
	return s.CreateKeyWithRequest(ctx, req)
}

// CreateKeyWithRequest generates a key from req, stores and persists it,
// authorizes it with req's passphrase and publishes key-list-updated then
// key-created. If persisting fails nothing is kept and no events fire.
func (s *Service) CreateKeyWithRequest(ctx context.Context, req keys.Request) (string, error) {
	if s.closed.Load() {
		return "", kerrors.ErrShutdown
	}

	rec, err := keys.Generate(req, keys.WithKDF(s.kdf))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.store.Has(rec.ID) {
		s.mu.Unlock()
		return "", fmt.Errorf("key %s: %w", keys.ShortID(rec.ID), kerrors.ErrKeyExists)
	}
	s.store.Put(rec)
	if err := s.saveLocked(); err != nil {
		s.store.Delete(rec.ID)
		s.mu.Unlock()
		return "", err
	}
	snapshot := s.store.Snapshot()
	s.mu.Unlock()

	s.authz.Grant(rec, req.Passphrase)
	s.log.Infof("Created key %s", rec.Label())

	s.bus.Publish(events.KeyListUpdated{Keys: snapshot})
	s.bus.Publish(events.KeyCreated{KeyID: rec.ID})
	return rec.ID, nil
}

// DeleteKey removes keyID, drops its authorization and derived keys, persists
// the change and publishes key-list-updated then key-deleted.
func (s *Service) DeleteKey(keyID string) error {
	if s.closed.Load() {
		return kerrors.ErrShutdown
	}

	s.mu.Lock()
	rec, ok := s.store.Get(keyID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("key %s: %w", keys.ShortID(keyID), kerrors.ErrUnknownKey)
	}
	s.store.Delete(keyID)
	if err := s.saveLocked(); err != nil {
		s.store.Put(rec)
		s.mu.Unlock()
		return err
	}
	snapshot := s.store.Snapshot()
	s.mu.Unlock()

	s.authz.Evict(keyID)
	s.engine.Forget(keyID)
	s.log.Infof("Deleted key %s", rec.Label())

	s.bus.Publish(events.KeyListUpdated{Keys: snapshot})
	s.bus.Publish(events.KeyDeleted{KeyID: keyID})
	return nil
}

// Encrypt seals plaintext under keyID. The key must already be authorized.
func (s *Service) Encrypt(keyID string, plaintext []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, kerrors.ErrShutdown
	}
	return s.engine.Encrypt(keyID, plaintext)
}

// Decrypt opens ciphertext under keyID. The key must already be authorized.
func (s *Service) Decrypt(keyID string, ciphertext []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, kerrors.ErrShutdown
	}
	return s.engine.Decrypt(keyID, ciphertext)
}

// Keys returns every key record sorted by label.
func (s *Service) Keys() []keys.Record {
	return s.store.Snapshot()
}

// Key returns the record for keyID.
func (s *Service) Key(keyID string) (keys.Record, bool) {
	return s.store.Get(keyID)
}

// Resolve finds a key by id, name or id prefix.
func (s *Service) Resolve(ref string) (keys.Record, error) {
	return s.store.Resolve(ref)
}

// Settings returns a copy of the current settings including the key map.
func (s *Service) Settings() *configs.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked()
}

// UpdateSettings applies fn to a copy of the settings, validates and saves
// it. Only scalar settings are taken from the result; keys are managed with
// CreateKey and DeleteKey.
func (s *Service) UpdateSettings(fn func(*configs.Settings)) error {
	if s.closed.Load() {
		return kerrors.ErrShutdown
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settingsLocked()
	fn(next)
	next.Keys = s.store.Map()
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.persist.Save(next); err != nil {
		return err
	}

	s.keyIDProperty = next.KeyIDProperty
	s.idleTimeout.Store(int64(next.IdleTimeout))
	s.log.Debugf("Settings updated: key_id_property=%q idle_timeout=%d", next.KeyIDProperty, next.IdleTimeout)
	return nil
}

// Reload replaces the key store and settings from the settings store.
// Authorizations and derived keys for keys that disappeared or changed are
// dropped. It publishes key-list-updated.
func (s *Service) Reload() error {
	if s.closed.Load() {
		return kerrors.ErrShutdown
	}

	s.mu.Lock()
	settings, err := s.persist.Load()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to reload settings: %w", err)
	}

	previous := s.store.Map()
	next := settings.KeyMap()
	s.store.Replace(next)
	s.keyIDProperty = settings.KeyIDProperty
	s.idleTimeout.Store(int64(settings.IdleTimeout))
	snapshot := s.store.Snapshot()
	s.mu.Unlock()

	stale := make(map[string]bool)
	for id, old := range previous {
		if cur, ok := next[id]; !ok || cur.SealedKey != old.SealedKey {
			stale[id] = true
			s.engine.Forget(id)
		}
	}
	evicted := s.authz.Retain(func(id string) bool {
		_, ok := next[id]
		return ok && !stale[id]
	})
	s.log.Debugf("Reloaded %d keys, dropped %d authorizations", len(snapshot), evicted)

	s.bus.Publish(events.KeyListUpdated{Keys: snapshot})
	return nil
}

// ClearAuthorizations drops every cached authorization and derived key.
func (s *Service) ClearAuthorizations() {
	s.authz.Clear()
	s.engine.Flush()
}

// Shutdown clears all authorizations and derived keys and disposes every
// subscriber. Later calls are no-ops; other operations fail with ErrShutdown.
func (s *Service) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.authz.Close()
	s.engine.Flush()
	s.bus.Close()
	s.log.Debugf("Service shut down")
}

func (s *Service) settingsLocked() *configs.Settings {
	return &configs.Settings{
		KeyIDProperty: s.keyIDProperty,
		IdleTimeout:   int(s.idleTimeout.Load()),
		Keys:          s.store.Map(),
	}
}

func (s *Service) saveLocked() error {
	if err := s.persist.Save(s.settingsLocked()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

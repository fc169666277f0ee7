package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"unicode/utf8"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
)

// MaxPassphraseLength is the longest accepted passphrase, in characters.
const MaxPassphraseLength = 64

// Request carries the parameters for a new key.
type Request struct {
	Passphrase string
	Name       string
	Hint       string

	// IdleTimeout is an optional per-key override in seconds; zero means never expire.
	IdleTimeout *int
}

type generateOptions struct {
	kdf KDFParams
}

// GenerateOption customizes Generate.
type GenerateOption func(*generateOptions)

// WithKDF overrides the Argon2id parameters used to seal the private key.
func WithKDF(p KDFParams) GenerateOption {
	return func(o *generateOptions) {
		o.kdf = p
	}
}

// ValidatePassphrase enforces the passphrase length rules for new keys.
func ValidatePassphrase(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase is required and cannot be empty: %w", kerrors.ErrInvalidPassphrase)
	}
	if n := utf8.RuneCountInString(passphrase); n > MaxPassphraseLength {
		return fmt.Errorf("passphrase is %d characters, the limit is %d: %w", n, MaxPassphraseLength, kerrors.ErrInvalidPassphrase)
	}
	return nil
}

// Generate creates a new key pair, seals the private key with the request's
// passphrase and returns the assembled record. The passphrase is not stored.
func Generate(req Request, opts ...GenerateOption) (Record, error) {
	o := generateOptions{kdf: DefaultKDF}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ValidatePassphrase(req.Passphrase); err != nil {
		return Record{}, err
	}
	if req.IdleTimeout != nil && *req.IdleTimeout < 0 {
		return Record{}, fmt.Errorf("idle timeout %d: %w", *req.IdleTimeout, kerrors.ErrInvalidIdleTimeout)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Record{}, fmt.Errorf("failed to generate key pair: %w", err)
	}
	defer zero(priv)

	sealed, err := Seal(priv, req.Passphrase, o.kdf)
	if err != nil {
		return Record{}, fmt.Errorf("failed to seal private key: %w", err)
	}

	id, err := IDFor(pub)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		ID:        id,
		SealedKey: sealed,
		Name:      req.Name,
		Hint:      req.Hint,
	}
	if req.IdleTimeout != nil {
		v := *req.IdleTimeout
		r.IdleTimeout = &v
	}
	return r, nil
}

package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPEMType = "SEALNOTE PRIVATE KEY"
	kdfName       = "argon2id"

	saltSize  = 16
	nonceSize = 24
	kekSize   = 32

	// Upper bounds on KDF parameters read back from sealed material.
	maxKDFTime   = 64
	maxKDFMemory = 4 * 1024 * 1024 // KiB
)

// KDFParams configures the Argon2id derivation of the key-wrapping key.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF follows the second recommended option of RFC 9106 with a smaller
// memory footprint suited to interactive use.
var DefaultKDF = KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}

func (p KDFParams) String() string {
	return fmt.Sprintf("t=%d,m=%d,p=%d", p.Time, p.Memory, p.Threads)
}

func (p KDFParams) validate() error {
	if p.Time < 1 || p.Time > maxKDFTime {
		return fmt.Errorf("argon2 time %d out of range", p.Time)
	}
	if p.Threads < 1 {
		return fmt.Errorf("argon2 threads must be positive")
	}
	if p.Memory < 8*uint32(p.Threads) || p.Memory > maxKDFMemory {
		return fmt.Errorf("argon2 memory %d KiB out of range", p.Memory)
	}
	return nil
}

func parseKDFParams(s string) (KDFParams, error) {
	var t, m, p uint32
	if _, err := fmt.Sscanf(s, "t=%d,m=%d,p=%d", &t, &m, &p); err != nil {
		return KDFParams{}, fmt.Errorf("parsing KDF params %q: %w", s, err)
	}
	if p > 255 {
		return KDFParams{}, fmt.Errorf("argon2 threads %d out of range", p)
	}
	params := KDFParams{Time: t, Memory: m, Threads: uint8(p)}
	if err := params.validate(); err != nil {
		return KDFParams{}, err
	}
	return params, nil
}

func deriveKEK(passphrase string, salt []byte, p KDFParams) *[kekSize]byte {
	derived := argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, kekSize)
	var kek [kekSize]byte
	copy(kek[:], derived)
	zero(derived)
	return &kek
}

// Seal encrypts the private key under a passphrase and returns it as PEM text.
// The block body is salt || nonce || secretbox(PKCS#8 DER).
func Seal(priv ed25519.PrivateKey, passphrase string, p KDFParams) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer zero(der)

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to read salt: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}

	kek := deriveKEK(passphrase, salt, p)
	defer zero(kek[:])

	body := make([]byte, 0, saltSize+nonceSize+len(der)+secretbox.Overhead)
	body = append(body, salt...)
	body = append(body, nonce[:]...)
	body = secretbox.Seal(body, der, &nonce, kek)

	block := &pem.Block{
		Type: sealedPEMType,
		Headers: map[string]string{
			"KDF":        kdfName,
			"KDF-Params": p.String(),
		},
		Bytes: body,
	}
	return string(pem.EncodeToMemory(block)), nil
}

// Unseal recovers the private key from sealed PEM text.
// It returns ErrPassphraseRejected when the passphrase does not open the seal
// and ErrSealedKeyInvalid when the material itself is malformed.
func Unseal(sealed string, passphrase string) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode([]byte(sealed))
	if block == nil || block.Type != sealedPEMType {
		return nil, fmt.Errorf("failed to decode PEM block containing sealed key: %w", kerrors.ErrSealedKeyInvalid)
	}
	if block.Headers["KDF"] != kdfName {
		return nil, fmt.Errorf("unsupported KDF %q: %w", block.Headers["KDF"], kerrors.ErrSealedKeyInvalid)
	}
	params, err := parseKDFParams(block.Headers["KDF-Params"])
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, kerrors.ErrSealedKeyInvalid)
	}
	if len(block.Bytes) < saltSize+nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("sealed key is truncated: %w", kerrors.ErrSealedKeyInvalid)
	}

	salt := block.Bytes[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], block.Bytes[saltSize:saltSize+nonceSize])

	kek := deriveKEK(passphrase, salt, params)
	defer zero(kek[:])

	der, ok := secretbox.Open(nil, block.Bytes[saltSize+nonceSize:], &nonce, kek)
	if !ok {
		return nil, kerrors.ErrPassphraseRejected
	}
	defer zero(der)

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %v: %w", err, kerrors.ErrSealedKeyInvalid)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("sealed key is %T, not ed25519: %w", parsed, kerrors.ErrSealedKeyInvalid)
	}
	return priv, nil
}

// IDFor computes the stable key id of a public key.
func IDFor(pub ed25519.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// Verify checks that passphrase unseals the record's key and that the key
// matches the record's id.
func Verify(r Record, passphrase string) error {
	_, err := UnsealRecord(r, passphrase)
	return err
}

// UnsealRecord unseals the record's private key and checks it hashes to r.ID.
func UnsealRecord(r Record, passphrase string) (ed25519.PrivateKey, error) {
	priv, err := Unseal(r.SealedKey, passphrase)
	if err != nil {
		return nil, err
	}
	id, err := IDFor(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	if id != r.ID {
		return nil, fmt.Errorf("sealed key does not match id %s: %w", ShortID(r.ID), kerrors.ErrSealedKeyInvalid)
	}
	return priv, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

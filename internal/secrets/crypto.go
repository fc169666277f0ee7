package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
)

// ivSize is the AES-GCM nonce length prefixed to every ciphertext.
const ivSize = 12

// randReader supplies IVs.
var randReader io.Reader = rand.Reader

// SymmetricKey is the hex-encoded SHA-256 digest that keys the document cipher.
type SymmetricKey string

// Bytes decodes the key to its 32 raw bytes.
func (k SymmetricKey) Bytes() ([]byte, error) {
	b, err := hex.DecodeString(string(k))
	if err != nil {
		return nil, fmt.Errorf("decoding symmetric key: %w", err)
	}
	if len(b) != sha256.Size {
		return nil, fmt.Errorf("invalid symmetric key length: expected %d bytes, got %d bytes", sha256.Size, len(b))
	}
	return b, nil
}

// DeriveSymmetricKey unseals the record's private key with passphrase, signs
// the passphrase with it and hashes the signature. Ed25519 signatures are
// deterministic, so the same record and passphrase always give the same key.
func DeriveSymmetricKey(rec keys.Record, passphrase string) (SymmetricKey, error) {
	priv, err := keys.UnsealRecord(rec, passphrase)
	if err != nil {
		return "", err
	}
	defer func() {
		for i := range priv {
			priv[i] = 0
		}
	}()
	return deriveFromPrivateKey(priv, passphrase), nil
}

func deriveFromPrivateKey(priv ed25519.PrivateKey, passphrase string) SymmetricKey {
	sig := ed25519.Sign(priv, []byte(passphrase))
	sum := sha256.Sum256(sig)
	return SymmetricKey(hex.EncodeToString(sum[:]))
}

// Seal encrypts plaintext with AES-256-GCM under a fresh random IV.
// The IV is prepended to the output: iv || ciphertext || tag.
func Seal(key SymmetricKey, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivSize, ivSize+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(randReader, iv); err != nil {
		return nil, fmt.Errorf("failed to read IV: %w", err)
	}

	return aead.Seal(iv, iv, plaintext, nil), nil
}

// Open reverses Seal, reading the IV from the front of ciphertext.
func Open(key SymmetricKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < ivSize {
		return nil, kerrors.ErrCiphertextTooShort
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	// Extract the IV from the beginning of the ciphertext
	iv := ciphertext[:ivSize]
	plaintext, err := aead.Open(nil, iv, ciphertext[ivSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt ciphertext: %w", err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newAEAD(key SymmetricKey) (cipher.AEAD, error) {
	raw, err := key.Bytes()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return aead, nil
}

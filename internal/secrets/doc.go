// Package secrets derives document keys from sealed private keys and runs
// the document cipher.
//
// # Key Derivation
//
// A key's symmetric key is never stored. It is recomputed on demand:
//
//  1. The sealed Ed25519 private key is unsealed with the key's passphrase
//  2. The passphrase is signed with the private key
//  3. The SHA-256 digest of the signature, hex-encoded, is the symmetric key
//
// Ed25519 signatures are deterministic, so a key and passphrase always yield
// the same symmetric key and documents stay readable across sessions.
//
// # Cipher
//
// Documents are sealed with AES-256-GCM. Each call draws a fresh 12-byte IV
// which is prepended to the output, so Open needs nothing but the key and the
// sealed bytes.
//
// # Engine
//
// Engine ties derivation to the authorization cache. Encrypt and Decrypt only
// proceed for known keys that hold a live authorization, and derived keys are
// cached briefly so that bulk operations do not rerun Argon2id per document.
package secrets

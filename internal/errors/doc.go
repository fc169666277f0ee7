// Package errors provides typed error values for sealnote.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Key errors: the key id is unknown or ambiguous (ErrUnknownKey, ErrAmbiguousKey)
//   - Authorization errors: no unlocked passphrase (ErrNotAuthorized, ErrPassphraseRejected)
//   - Generation errors: bad key parameters (ErrInvalidPassphrase, ErrInvalidIdleTimeout)
//   - Crypto errors: unsealing or transform failures (ErrSealedKeyInvalid, ErrTransformFailed)
//   - Document errors: document state issues (ErrNoKeyID, ErrNotEncrypted, ErrNoFilesFound)
//
// A dismissed prompt is not an error. Prompts report it with ok=false and the
// service turns it into a negative result.
//
// # Usage
//
//	ciphertext, err := svc.Encrypt(keyID, body)
//	if errors.Is(err, kerrors.ErrNotAuthorized) {
//	    // authorize and retry
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("loading key %s: %w", id, kerrors.ErrUnknownKey)
package errors

package errors

import "errors"

// Key errors indicate a problem locating or identifying a key record.
var (
	// ErrUnknownKey indicates no key record exists for the given id.
	ErrUnknownKey = errors.New("unknown key")

	// ErrKeyExists indicates a key record with the same id is already stored.
	ErrKeyExists = errors.New("key already exists")

	// ErrAmbiguousKey indicates a key reference matched more than one key record.
	ErrAmbiguousKey = errors.New("key reference is ambiguous")
)

// Authorization errors indicate the key's passphrase is not available.
var (
	// ErrNotAuthorized indicates there is no valid cached passphrase for the key.
	// Callers must authorize the key first; encryption never prompts on its own.
	ErrNotAuthorized = errors.New("key is not authorized")

	// ErrPassphraseRejected indicates the supplied passphrase does not unlock the key.
	ErrPassphraseRejected = errors.New("passphrase does not unlock key")
)

// Generation errors indicate invalid key creation parameters.
var (
	// ErrInvalidPassphrase indicates the passphrase is empty or too long.
	ErrInvalidPassphrase = errors.New("invalid passphrase")

	// ErrInvalidIdleTimeout indicates a negative idle timeout.
	ErrInvalidIdleTimeout = errors.New("invalid idle timeout")
)

// Cryptographic errors indicate failures in key unsealing or the cipher transform.
var (
	// ErrSealedKeyInvalid indicates the sealed private key material is malformed.
	ErrSealedKeyInvalid = errors.New("sealed key material is invalid")

	// ErrTransformFailed indicates encryption or decryption failed.
	ErrTransformFailed = errors.New("cipher transform failed")

	// ErrCiphertextTooShort indicates the ciphertext cannot hold an initialization vector.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Document errors indicate issues with the documents being transformed.
var (
	// ErrNoKeyID indicates the document is not tagged with a key id and none was given.
	ErrNoKeyID = errors.New("document has no key id")

	// ErrNotEncrypted indicates the document body is plaintext.
	ErrNotEncrypted = errors.New("document is not encrypted")

	// ErrAlreadyEncrypted indicates the document body is already encrypted.
	ErrAlreadyEncrypted = errors.New("document is already encrypted")

	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFrontMatter indicates the document front matter is not a YAML mapping.
	ErrInvalidFrontMatter = errors.New("invalid front matter")
)

// Settings errors indicate a malformed configuration.
var (
	// ErrInvalidSettings indicates the settings file is malformed or holds invalid values.
	ErrInvalidSettings = errors.New("settings are invalid")

	// ErrUnknownSetting indicates a setting name that cannot be changed from the command line.
	ErrUnknownSetting = errors.New("unknown setting")
)

// Audit log errors.
var (
	// ErrInvalidDateFormat indicates a date filter is not in YYYY-MM-DD form.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Lifecycle errors.
var (
	// ErrShutdown indicates the service has been shut down.
	ErrShutdown = errors.New("service is shut down")
)

package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/sealnote/internal/audit"
	"github.com/PolarWolf314/sealnote/internal/document"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// Patterns specifies documents to encrypt. If empty, every markdown file under Root.
	Patterns []string

	// Root resolves relative patterns. Defaults to the working directory.
	Root string

	// KeyRef selects the key by id, name or id prefix. If empty, each
	// document's own key id property is used.
	KeyRef string

	// DryRun previews which documents would be encrypted without making changes.
	DryRun bool

	// Audit, when set, records the encrypted files.
	Audit AuditLogger
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// Encrypted lists the documents that were (or would be) encrypted.
	Encrypted []string

	// Skipped lists documents left untouched.
	Skipped []SkippedFile

	// KeyIDs maps each encrypted document to its key id.
	KeyIDs map[string]string

	// DryRun indicates whether this was a dry-run (no files modified).
	DryRun bool
}

// Encrypt encrypts document bodies in place.
//
// Each document is tagged with its key id in the front matter property named
// by the settings, then its body is replaced with armored ciphertext. Each
// key is authorized once before any document is written.
//
// Returns ErrNoFilesFound if no documents match the patterns.
// Returns ErrUnknownKey or ErrAmbiguousKey if KeyRef does not name one key.
// Returns ErrNotAuthorized if a key prompt is dismissed.
func Encrypt(ctx context.Context, svc KeyService, opts EncryptOptions) (*EncryptResult, error) {
	files, err := resolveDocuments(opts.Patterns, opts.Root)
	if err != nil {
		return nil, err
	}

	forcedKey := ""
	if opts.KeyRef != "" {
		rec, err := svc.Resolve(opts.KeyRef)
		if err != nil {
			return nil, err
		}
		forcedKey = rec.ID
	}

	prop := svc.Settings().KeyIDProperty
	result := &EncryptResult{DryRun: opts.DryRun, KeyIDs: make(map[string]string)}

	var planned []plannedFile
	for _, path := range files {
		doc, err := document.ReadFile(path)
		if err == nil && doc.IsEncrypted() {
			err = kerrors.ErrAlreadyEncrypted
		}

		keyID := forcedKey
		if err == nil && keyID == "" {
			keyID, err = documentKey(svc, doc, prop)
		}

		if err != nil {
			if !skippable(err) {
				return nil, err
			}
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Reason: err})
			continue
		}
		planned = append(planned, plannedFile{path: path, doc: doc, keyID: keyID})
	}

	for _, p := range planned {
		result.KeyIDs[p.path] = p.keyID
	}

	if opts.DryRun {
		result.Encrypted = paths(planned)
		return result, nil
	}

	if err := authorizeKeys(ctx, svc, planned); err != nil {
		return nil, err
	}

	for _, p := range planned {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ciphertext, err := svc.Encrypt(p.keyID, p.doc.Body)
		if err != nil {
			return result, fmt.Errorf("encrypting %s: %w", p.path, err)
		}
		p.doc.SetKeyID(prop, p.keyID)
		p.doc.SetSealedBody(ciphertext)

		if err := document.WriteFile(p.path, p.doc); err != nil {
			return result, err
		}
		result.Encrypted = append(result.Encrypted, p.path)
	}

	if opts.Audit != nil && len(result.Encrypted) > 0 {
		opts.Audit.Log(audit.Entry{Operation: "encrypt", Files: result.Encrypted})
	}

	return result, nil
}

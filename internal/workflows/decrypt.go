package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/sealnote/internal/audit"
	"github.com/PolarWolf314/sealnote/internal/document"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
)

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// Patterns specifies documents to decrypt. If empty, every markdown file under Root.
	Patterns []string

	// Root resolves relative patterns. Defaults to the working directory.
	Root string

	// DryRun previews which documents would be decrypted without making changes.
	DryRun bool

	// Audit, when set, records the decrypted files.
	Audit AuditLogger
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	// Decrypted lists the documents that were (or would be) decrypted.
	Decrypted []string

	// Skipped lists documents left untouched.
	Skipped []SkippedFile

	// DryRun indicates whether this was a dry-run (no files modified).
	DryRun bool
}

// Decrypt restores document bodies encrypted by Encrypt. The key id property
// is kept so the document can be encrypted again with the same key.
//
// Returns ErrNoFilesFound if no documents match the patterns.
// Returns ErrNotAuthorized if a key prompt is dismissed.
// Returns ErrTransformFailed if a body cannot be decrypted.
func Decrypt(ctx context.Context, svc KeyService, opts DecryptOptions) (*DecryptResult, error) {
	files, err := resolveDocuments(opts.Patterns, opts.Root)
	if err != nil {
		return nil, err
	}

	prop := svc.Settings().KeyIDProperty
	result := &DecryptResult{DryRun: opts.DryRun}

	var planned []plannedFile
	for _, path := range files {
		doc, err := document.ReadFile(path)
		if err == nil && !doc.IsEncrypted() {
			err = kerrors.ErrNotEncrypted
		}

		var keyID string
		if err == nil {
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

	if opts.DryRun {
		result.Decrypted = paths(planned)
		return result, nil
	}

	if err := authorizeKeys(ctx, svc, planned); err != nil {
		return nil, err
	}

	for _, p := range planned {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		sealed, err := p.doc.SealedBody()
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", p.path, err)
		}
		plaintext, err := svc.Decrypt(p.keyID, sealed)
		if err != nil {
			return result, fmt.Errorf("decrypting %s: %w", p.path, err)
		}
		p.doc.Body = plaintext

		if err := document.WriteFile(p.path, p.doc); err != nil {
			return result, err
		}
		result.Decrypted = append(result.Decrypted, p.path)
	}

	if opts.Audit != nil && len(result.Decrypted) > 0 {
		opts.Audit.Log(audit.Entry{Operation: "decrypt", Files: result.Decrypted})
	}

	return result, nil
}

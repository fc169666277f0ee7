package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/PolarWolf314/sealnote/internal/document"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
)

// SkippedFile is a document left untouched, with the reason.
type SkippedFile struct {
	Path   string
	Reason error
}

// plannedFile is a document that will be transformed with KeyID.
type plannedFile struct {
	path  string
	doc   *document.Document
	keyID string
}

// resolveDocuments finds the documents named by patterns, defaulting to every
// markdown file under root.
func resolveDocuments(patterns []string, root string) ([]string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	files, err := document.ResolveFiles(patterns, root)
	if err != nil {
		return nil, fmt.Errorf("resolving file patterns: %w", err)
	}
	return files, nil
}

// authorizeKeys authorizes each distinct key once, in order of first use.
func authorizeKeys(ctx context.Context, svc KeyService, planned []plannedFile) error {
	seen := make(map[string]bool)
	for _, p := range planned {
		if seen[p.keyID] {
			continue
		}
		seen[p.keyID] = true

		ok, err := svc.Authorize(ctx, p.keyID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %s was not unlocked: %w", keyLabel(svc, p.keyID), kerrors.ErrNotAuthorized)
		}
	}
	return nil
}

// documentKey returns the key id a document is tagged with, checking it is known.
func documentKey(svc KeyService, doc *document.Document, prop string) (string, error) {
	id := doc.KeyID(prop)
	if id == "" {
		return "", kerrors.ErrNoKeyID
	}
	if _, ok := svc.Key(id); !ok {
		return "", fmt.Errorf("key %s: %w", keys.ShortID(id), kerrors.ErrUnknownKey)
	}
	return id, nil
}

func keyLabel(svc KeyService, keyID string) string {
	if rec, ok := svc.Key(keyID); ok {
		return rec.Label()
	}
	return keys.ShortID(keyID)
}

// skippable reports whether err only disqualifies one document.
func skippable(err error) bool {
	return errors.Is(err, kerrors.ErrNoKeyID) ||
		errors.Is(err, kerrors.ErrUnknownKey) ||
		errors.Is(err, kerrors.ErrNotEncrypted) ||
		errors.Is(err, kerrors.ErrAlreadyEncrypted) ||
		errors.Is(err, kerrors.ErrInvalidFrontMatter)
}

func paths(planned []plannedFile) []string {
	out := make([]string, len(planned))
	for i, p := range planned {
		out[i] = p.path
	}
	return out
}

package workflows

import (
	"context"
	"time"

	"github.com/PolarWolf314/sealnote/internal/keys"
)

// CreateKeyResult contains the outcome of a create-key operation.
type CreateKeyResult struct {
	// Key is the new key record. Zero when Dismissed.
	Key keys.Record

	// Dismissed is true when the parameters prompt was abandoned.
	Dismissed bool
}

// CreateKey prompts for key parameters and creates the key. The new key is
// left authorized.
func CreateKey(ctx context.Context, svc KeyService) (*CreateKeyResult, error) {
	id, err := svc.CreateKey(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return &CreateKeyResult{Dismissed: true}, nil
	}

	rec, _ := svc.Key(id)
	return &CreateKeyResult{Key: rec}, nil
}

// KeyInfo describes one key for listing.
type KeyInfo struct {
	Record keys.Record

	// Authorized is true while the key holds an unexpired authorization.
	Authorized bool

	// IdleTimeout is the effective timeout; zero means never.
	IdleTimeout time.Duration

	// Overridden is true when the key sets its own idle timeout.
	Overridden bool
}

// ListKeysResult contains every known key.
type ListKeysResult struct {
	Keys []KeyInfo

	// DefaultIdleTimeout is the settings default in seconds.
	DefaultIdleTimeout int
}

// ListKeys returns every key sorted by label, with its authorization state.
func ListKeys(ctx context.Context, svc KeyService) (*ListKeysResult, error) {
	defaultTimeout := svc.Settings().IdleTimeout
	result := &ListKeysResult{DefaultIdleTimeout: defaultTimeout}

	for _, rec := range svc.Keys() {
		result.Keys = append(result.Keys, KeyInfo{
			Record:      rec,
			Authorized:  svc.Authorized(rec.ID),
			IdleTimeout: rec.IdleTimeoutOr(defaultTimeout),
			Overridden:  rec.IdleTimeout != nil,
		})
	}
	return result, nil
}

// DeleteKeyOptions configures the delete-key workflow.
type DeleteKeyOptions struct {
	// Ref selects the key by id, name or id prefix.
	Ref string
}

// DeleteKeyResult contains the removed key.
type DeleteKeyResult struct {
	Key keys.Record
}

// DeleteKey removes a key. Documents encrypted with it can no longer be decrypted.
//
// Returns ErrUnknownKey or ErrAmbiguousKey if Ref does not name one key.
func DeleteKey(ctx context.Context, svc KeyService, opts DeleteKeyOptions) (*DeleteKeyResult, error) {
	rec, err := svc.Resolve(opts.Ref)
	if err != nil {
		return nil, err
	}
	if err := svc.DeleteKey(rec.ID); err != nil {
		return nil, err
	}
	return &DeleteKeyResult{Key: rec}, nil
}

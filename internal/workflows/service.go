package workflows

import (
	"context"

	"github.com/PolarWolf314/sealnote/internal/audit"
	"github.com/PolarWolf314/sealnote/internal/configs"
	"github.com/PolarWolf314/sealnote/internal/keys"
)

// KeyService is the part of service.Service the workflows use.
type KeyService interface {
	Authorize(ctx context.Context, keyID string) (bool, error)
	Authorized(keyID string) bool
	Encrypt(keyID string, plaintext []byte) ([]byte, error)
	Decrypt(keyID string, ciphertext []byte) ([]byte, error)

	CreateKey(ctx context.Context) (string, error)
	DeleteKey(keyID string) error
	Key(keyID string) (keys.Record, bool)
	Keys() []keys.Record
	Resolve(ref string) (keys.Record, error)

	Settings() *configs.Settings
	UpdateSettings(fn func(*configs.Settings)) error
}

// AuditLogger receives audit entries for document operations.
type AuditLogger interface {
	Log(entry audit.Entry)
}

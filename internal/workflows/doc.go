// Package workflows provides high-level orchestration for sealnote commands.
//
// Workflows coordinate the service, documents and the audit log to implement
// complete user-facing features. Each workflow handles a single command's
// business logic, independent of CLI concerns like flag parsing, spinners,
// and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Resolving document paths and key references
//   - Authorizing each key once before touching any document
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Encrypt: encrypts document bodies and tags them with their key id
//   - Decrypt: restores encrypted document bodies
//   - CreateKey, ListKeys, DeleteKey: key management
//   - SetConfig: changes a scalar setting
//   - Log: reads and filters the audit log
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package. Use
// errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Encrypt(ctx, svc, opts)
//	if errors.Is(err, kerrors.ErrNotAuthorized) {
//	    // The passphrase prompt was dismissed
//	}
//
// Documents that cannot be processed on their own (no key id, already
// encrypted, unknown key) are reported in the result's Skipped list rather
// than failing the whole run.
package workflows

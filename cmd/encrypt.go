package cmd

import (
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/utils"
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	encryptKey    string
	encryptDryRun bool
)

func init() {
	encryptCmd.Flags().StringVarP(&encryptKey, "key", "k", "", "key name, id or id prefix to encrypt with")
	encryptCmd.Flags().BoolVar(&encryptDryRun, "dry-run", false, "preview which documents would be encrypted")

	if err := encryptCmd.RegisterFlagCompletionFunc("key", completeKeyRefs); err != nil {
		panic(err)
	}
}

// resetEncryptState resets the encrypt command's global state for testing.
func resetEncryptState() {
	encryptKey = ""
	encryptDryRun = false
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt [paths...]",
	Short: "Encrypt document bodies",
	Long: `Encrypts the body of markdown documents in place.

Each document is encrypted with the key named in its front matter. Use --key
to choose the key instead; the key id is then written into the front matter.
Paths may be files, directories or glob patterns and default to every
markdown file under the current directory.

Examples:
  sealnote encrypt                     # Every tagged document here
  sealnote encrypt diary.md --key work # One document with the work key
  sealnote encrypt "notes/**/*.md"     # Glob
  sealnote encrypt --dry-run           # Preview`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")

		s, err := getService()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		spinner, cleanup := startSpinner("Encrypting documents...")
		defer cleanup()

		result, err := workflows.Encrypt(cmd.Context(), s, workflows.EncryptOptions{
			Patterns: args,
			KeyRef:   encryptKey,
			DryRun:   encryptDryRun,
			Audit:    auditLogger(),
		})
		if err != nil {
			Logger.Errorf("Encrypt failed: %v", err)
			return reportError(spinner, err)
		}

		spinner.FinalMSG = formatTransformResult("encrypted", result.Encrypted, result.Skipped, result.DryRun)
		return nil
	},
}

// formatTransformResult summarizes an encrypt or decrypt run.
func formatTransformResult(verb string, done []string, skipped []workflows.SkippedFile, dryRun bool) string {
	var msg string
	switch {
	case dryRun:
		msg = ui.Warning.Sprint("[dry-run]") + fmt.Sprintf(" Would have %s %d document(s):", verb, len(done)) + utils.FormatPaths(done)
	case len(done) == 0:
		msg = ui.Warning.Sprint("⚠") + " No documents were " + verb + "\n"
	default:
		msg = ui.Success.Sprint("✓") + fmt.Sprintf(" %d document(s) %s:", len(done), verb) + utils.FormatPaths(done)
	}

	for _, sk := range skipped {
		msg += ui.Muted.Sprint("skipped") + " " + ui.Path.Sprint(utils.DisplayPath(sk.Path)) + ": " + skipReason(sk.Reason) + "\n"
	}
	return msg
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoKeyID):
		return "no key id, use --key"
	case errors.Is(err, kerrors.ErrAlreadyEncrypted):
		return "already encrypted"
	case errors.Is(err, kerrors.ErrNotEncrypted):
		return "not encrypted"
	case errors.Is(err, kerrors.ErrUnknownKey):
		return "unknown key"
	default:
		return err.Error()
	}
}

package cmd

import (
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/spf13/cobra"
)

var decryptDryRun bool

func init() {
	decryptCmd.Flags().BoolVar(&decryptDryRun, "dry-run", false, "preview which documents would be decrypted")
}

// resetDecryptState resets the decrypt command's global state for testing.
func resetDecryptState() {
	decryptDryRun = false
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [paths...]",
	Short: "Decrypt document bodies",
	Long: `Decrypts markdown documents encrypted by sealnote, in place.

The key id stays in the front matter so the document can be encrypted again
with the same key. Each key's passphrase is asked for at most once.

Examples:
  sealnote decrypt                # Every encrypted document here
  sealnote decrypt diary.md       # One document
  sealnote decrypt --dry-run      # Preview`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")

		s, err := getService()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		spinner, cleanup := startSpinner("Decrypting documents...")
		defer cleanup()

		result, err := workflows.Decrypt(cmd.Context(), s, workflows.DecryptOptions{
			Patterns: args,
			DryRun:   decryptDryRun,
			Audit:    auditLogger(),
		})
		if err != nil {
			Logger.Errorf("Decrypt failed: %v", err)
			return reportError(spinner, err)
		}

		spinner.FinalMSG = formatTransformResult("decrypted", result.Decrypted, result.Skipped, result.DryRun)
		return nil
	},
}

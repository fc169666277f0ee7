package cmd

import (
	"github.com/PolarWolf314/sealnote/internal/keys"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/spf13/cobra"
)

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a key",
	Long: `Deletes a key, named by its name, id or id prefix.

Documents still encrypted with the key can no longer be decrypted.
Decrypt them first.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeKeyRefs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys delete command")

		s, err := getService()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		spinner, cleanup := startSpinner("Deleting key...")
		defer cleanup()

		result, err := workflows.DeleteKey(cmd.Context(), s, workflows.DeleteKeyOptions{Ref: args[0]})
		if err != nil {
			return reportError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Deleted key " + ui.Highlight.Sprint(result.Key.Label()) + " " + ui.KeyID.Sprint(keys.ShortID(result.Key.ID))
		return nil
	},
}

package cmd

import (
	"github.com/PolarWolf314/sealnote/internal/keys"
	"github.com/PolarWolf314/sealnote/internal/prompt"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	createName        string
	createHint        string
	createIdleTimeout int
)

func init() {
	keysCreateCmd.Flags().StringVar(&createName, "name", "", "name for the new key")
	keysCreateCmd.Flags().StringVar(&createHint, "hint", "", "passphrase hint shown when the key is unlocked")
	keysCreateCmd.Flags().IntVar(&createIdleTimeout, "idle-timeout", 0, "seconds the key stays unlocked while idle, 0 for never")
}

// resetKeysCreateState resets the create command's global state for testing.
func resetKeysCreateState() {
	createName = ""
	createHint = ""
	createIdleTimeout = 0
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new key",
	Long: `Creates a new key protected by a passphrase you choose.

When --name, --hint or --idle-timeout is given, only the passphrase is asked for.
Otherwise the name, hint and idle timeout are asked for too. A key without its
own idle timeout uses the idle_timeout setting.

The new key stays unlocked for the rest of the command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys create command")

		s, err := getService()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		flags := cmd.Flags()
		if flags.Changed("name") || flags.Changed("hint") || flags.Changed("idle-timeout") {
			details := &prompt.KeyDetails{Name: createName, Hint: createHint}
			if flags.Changed("idle-timeout") {
				timeout := createIdleTimeout
				details.IdleTimeout = &timeout
			}
			if terminal != nil {
				terminal.Details = details
			}
		}

		spinner, cleanup := startSpinner("Creating key...")
		defer cleanup()

		result, err := workflows.CreateKey(cmd.Context(), s)
		if err != nil {
			Logger.Errorf("Key creation failed: %v", err)
			return reportError(spinner, err)
		}

		if result.Dismissed {
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " Key creation cancelled"
			return nil
		}

		rec := result.Key
		Logger.Infof("Created key %s", rec.ID)
		msg := ui.Success.Sprint("✓") + " Created key " + ui.Highlight.Sprint(rec.Label()) + " " + ui.KeyID.Sprint(keys.ShortID(rec.ID)) + "\n"
		if rec.IdleTimeout != nil {
			msg += ui.Info.Sprint("→") + " Stays unlocked while idle for " + ui.IdleTimeout(rec.IdleTimeoutOr(0)) + "\n"
		}
		msg += ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealnote encrypt --key "+keyRef(rec.Name, rec.ID)) + " to encrypt documents with it"
		spinner.FinalMSG = msg
		return nil
	},
}

// keyRef returns the shortest reference that names a key on the command line.
func keyRef(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

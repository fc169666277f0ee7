package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/sealnote/internal/keys"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/spf13/cobra"
)

var keysListJSON bool

func init() {
	keysListCmd.Flags().BoolVar(&keysListJSON, "json", false, "output as JSON")
}

func resetKeysListState() {
	keysListJSON = false
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys list command")

		s, err := getService()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		result, err := workflows.ListKeys(cmd.Context(), s)
		if err != nil {
			return err
		}
		Logger.Debugf("Found %d keys", len(result.Keys))

		if keysListJSON {
			return outputKeysJSON(result)
		}

		if len(result.Keys) == 0 {
			fmt.Println(ui.Warning.Sprint("⚠") + " No keys yet")
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealnote keys create") + " to create one")
			return nil
		}

		for _, k := range result.Keys {
			timeout := ui.IdleTimeout(k.IdleTimeout)
			if !k.Overridden {
				timeout += " " + ui.Muted.Sprint("default")
			}
			fmt.Printf("%s %-20s %s  idle %s\n", ui.Status(k.Authorized), ui.Highlight.Sprint(k.Record.Label()), ui.KeyID.Sprint(keys.ShortID(k.Record.ID)), timeout)
			if k.Record.Hint != "" {
				fmt.Printf("  hint: %s\n", ui.Muted.Sprint(k.Record.Hint))
			}
		}
		return nil
	},
}

type keyJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Hint        string `json:"hint,omitempty"`
	IdleTimeout int    `json:"idle_timeout"`
	Overridden  bool   `json:"idle_timeout_overridden"`
}

func outputKeysJSON(result *workflows.ListKeysResult) error {
	out := make([]keyJSON, 0, len(result.Keys))
	for _, k := range result.Keys {
		out = append(out, keyJSON{
			ID:          k.Record.ID,
			Name:        k.Record.Name,
			Hint:        k.Record.Hint,
			IdleTimeout: int(k.IdleTimeout.Seconds()),
			Overridden:  k.Overridden,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keys to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

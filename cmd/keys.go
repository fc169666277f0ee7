package cmd

import (
	"github.com/PolarWolf314/sealnote/internal/keys"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
	Long: `Creates, lists and deletes the passphrase-protected keys used to encrypt documents.

Examples:
  sealnote keys create --name work
  sealnote keys list
  sealnote keys delete work`,
}

func init() {
	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysDeleteCmd)
}

// completeKeyRefs offers key names and ids for shell completion.
func completeKeyRefs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	s, err := getService()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for _, rec := range s.Keys() {
		if rec.Name != "" {
			out = append(out, rec.Name+"\t"+keys.ShortID(rec.ID))
		} else {
			out = append(out, rec.ID)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sealnote settings",
	Long: `Shows and changes the settings stored in settings.toml.

Settings:
  idle-timeout   seconds a key stays unlocked while idle, 0 for never
  key-property   front matter property that holds a document's key id

Examples:
  sealnote config show
  sealnote config set idle-timeout 300
  sealnote config set key-property secret_key`,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

package cmd

import (
	"strings"
	"time"

	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/spf13/cobra"
)

var configSetCmd = &cobra.Command{
	Use:       "set <setting> <value>",
	Short:     "Change a setting",
	Args:      cobra.ExactArgs(2),
	ValidArgs: workflows.SettingNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config set command")
		Logger.Debugf("Setting %s to %q", args[0], args[1])

		s, err := getService()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		spinner, cleanup := startSpinner("Saving settings...")
		defer cleanup()

		settings, err := workflows.SetConfig(cmd.Context(), s, workflows.SetConfigOptions{Name: args[0], Value: args[1]})
		if err != nil {
			return reportError(spinner, err)
		}

		value := settings.KeyIDProperty
		if strings.EqualFold(args[0], workflows.SettingIdleTimeout) {
			value = ui.IdleTimeout(time.Duration(settings.IdleTimeout) * time.Second)
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Set " + ui.Highlight.Sprint(args[0]) + " to " + value
		return nil
	},
}

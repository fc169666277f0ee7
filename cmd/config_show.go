package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/PolarWolf314/sealnote/internal/configs"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

func resetConfigShowState() {
	configShowJSON = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		s, err := getService()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}
		settings := s.Settings()

		dir, err := configs.ConfigDir(configDir)
		if err != nil {
			return err
		}
		store := configs.FileStore{Dir: dir}

		if configShowJSON {
			out := struct {
				Path          string `json:"path"`
				KeyIDProperty string `json:"key_id_property"`
				IdleTimeout   int    `json:"idle_timeout"`
				Keys          int    `json:"keys"`
			}{store.Path(), settings.KeyIDProperty, settings.IdleTimeout, len(settings.Keys)}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal settings to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(ui.Info.Sprint("Settings") + " " + ui.Muted.Sprint(store.Path()))
		fmt.Println()
		fmt.Printf("  %-14s %s\n", "key-property:", ui.Highlight.Sprint(settings.KeyIDProperty))
		fmt.Printf("  %-14s %s\n", "idle-timeout:", ui.IdleTimeout(time.Duration(settings.IdleTimeout)*time.Second))
		fmt.Printf("  %-14s %d\n", "keys:", len(settings.Keys))
		return nil
	},
}

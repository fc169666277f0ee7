package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/sealnote/internal/audit"
	"github.com/PolarWolf314/sealnote/internal/configs"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logKey       string
	logSince     string
	logUntil     string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logKey, "key", "", "filter by key id prefix")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogState resets the log command's global state for testing.
func resetLogState() {
	logLimit = 0
	logReverse = false
	logOperation = ""
	logKey = ""
	logSince = ""
	logUntil = ""
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of key and document operations.

Examples:
  sealnote log                              # View full log
  sealnote log -n 10                        # Last 10 entries
  sealnote log --reverse                    # Most recent first
  sealnote log --operation encrypt,decrypt  # Filter by operation
  sealnote log --since 2024-01-01           # Filter by date
  sealnote log --json                       # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	dir, err := configs.ConfigDir(configDir)
	if err != nil {
		return err
	}

	opts := workflows.LogOptions{
		Path:       filepath.Join(dir, configs.AuditFileName),
		Limit:      logLimit,
		Reverse:    logReverse,
		Operations: logOperation,
		KeyID:      logKey,
		Since:      logSince,
		Until:      logUntil,
	}

	result, err := workflows.Log(cmd.Context(), opts)
	if err != nil {
		fmt.Println(formatLogError(err))
		if errors.Is(err, kerrors.ErrNoFilesFound) || errors.Is(err, kerrors.ErrInvalidDateFormat) {
			return nil
		}
		return err
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Println("No audit log entries found.")
		} else {
			fmt.Println("No audit log entries found matching the filters.")
		}
		return nil
	}

	if logJSON {
		return outputLogJSON(result.Entries)
	}

	for _, e := range result.Entries {
		datetime := workflows.FormatDateTime(e.Timestamp)
		details := workflows.FormatDetails(e)
		fmt.Printf("%-19s  %-12s  %-23s  %s\n", datetime, e.User, e.Operation, details)
	}
	return nil
}

// formatLogError formats a log error for display to the user.
func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Info.Sprint("ℹ") + " No audit log found. Operations are logged once keys are created or used."
	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return ui.Error.Sprint("✗") + " " + err.Error()
	default:
		return ui.Error.Sprint("✗") + " Failed to read audit log: " + err.Error()
	}
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

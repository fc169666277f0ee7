package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/PolarWolf314/sealnote/internal/audit"
	"github.com/PolarWolf314/sealnote/internal/configs"
	"github.com/PolarWolf314/sealnote/internal/keys"
	logger "github.com/PolarWolf314/sealnote/internal/logging"
	"github.com/PolarWolf314/sealnote/internal/prompt"
	"github.com/PolarWolf314/sealnote/internal/service"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/workflows"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose   bool
	debug     bool
	configDir string
	Logger    logger.Logger

	RootCmd = &cobra.Command{
		Use:   "sealnote",
		Short: "Sealnote - passphrase-protected encryption for markdown notes",
		Long: `Sealnote encrypts the body of markdown documents with keys that are
unlocked by a passphrase. A document names its key in its front matter, so
the right passphrase is asked for when it is decrypted.

Unlocked keys stay unlocked until they have been idle for their timeout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner := figure.NewColorFigure("sealnote", "small", "cyan", true)
			banner.Print()
			fmt.Println()
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealnote --help") + " to see available commands")
		},
	}
)

// Process-wide service, built on first use.
var (
	svcOnce  sync.Once
	svc      *service.Service
	svcErr   error
	recorder *audit.Recorder
	terminal *prompt.Terminal

	// promptInput replaces stdin for prompts when set.
	promptInput io.Reader

	// kdfParams seals new keys. The zero value selects keys.DefaultKDF.
	kdfParams keys.KDFParams
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding settings and the audit log (default $"+configs.ConfigDirEnv+" or the user config dir)")

	RootCmd.AddCommand(keysCmd)
	RootCmd.AddCommand(encryptCmd)
	RootCmd.AddCommand(decryptCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(logCmd)
}

// Execute runs the root command. Interrupts cancel the command's context,
// and the service is shut down before returning.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer shutdownService()

	return RootCmd.ExecuteContext(ctx)
}

// getService returns the process-wide service, building it on first call.
func getService() (*service.Service, error) {
	svcOnce.Do(func() {
		svc, svcErr = buildService()
	})
	return svc, svcErr
}

func buildService() (*service.Service, error) {
	dir, err := configs.ConfigDir(configDir)
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Using config directory %s", dir)

	terminal = prompt.NewTerminal()
	if promptInput != nil {
		terminal.In = promptInput
	}
	prompter := pausingPrompter{inner: terminal}

	s, err := service.New(service.Options{
		Store:         configs.FileStore{Dir: dir, Log: Logger},
		Passphrases:   prompter,
		KeyParameters: prompter,
		Logger:        Logger,
		KDF:           kdfParams,
	})
	if err != nil {
		return nil, err
	}

	recorder = audit.NewRecorder(filepath.Join(dir, configs.AuditFileName), Logger)
	recorder.Attach(s)
	return s, nil
}

func shutdownService() {
	if svc != nil {
		svc.Shutdown()
	}
}

// auditLogger returns the recorder, or nil when there is none.
func auditLogger() workflows.AuditLogger {
	if recorder == nil {
		return nil
	}
	return recorder
}

// ResetGlobalState shuts down the service and resets every flag for testing.
func ResetGlobalState() {
	shutdownService()
	svcOnce = sync.Once{}
	svc = nil
	svcErr = nil
	recorder = nil
	terminal = nil

	verbose = false
	debug = false
	configDir = ""
	Logger = logger.Logger{}

	resetKeysCreateState()
	resetKeysListState()
	resetEncryptState()
	resetDecryptState()
	resetLogState()
	resetConfigShowState()
	resetCobraFlagState(RootCmd)
}

// resetCobraFlagState clears Changed on every flag so tests do not leak into each other.
func resetCobraFlagState(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCobraFlagState(sub)
	}
}

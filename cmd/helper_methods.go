package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/PolarWolf314/sealnote/internal/authz"
	"github.com/PolarWolf314/sealnote/internal/configs"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
	"github.com/PolarWolf314/sealnote/internal/prompt"
	"github.com/PolarWolf314/sealnote/internal/service"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/briandowns/spinner"
)

var (
	spinnerMu     sync.Mutex
	activeSpinner *spinner.Spinner
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	spinnerMu.Lock()
	activeSpinner = s
	spinnerMu.Unlock()

	cleanup := func() {
		spinnerMu.Lock()
		activeSpinner = nil
		spinnerMu.Unlock()

		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// pauseSpinner stops the running spinner, if any, and returns a function
// that restarts it.
func pauseSpinner() func() {
	spinnerMu.Lock()
	s := activeSpinner
	spinnerMu.Unlock()

	if s == nil || !s.Active() {
		return func() {}
	}
	s.Stop()
	return s.Start
}

// pausingPrompter keeps the spinner off the screen while a prompt waits for input.
type pausingPrompter struct {
	inner *prompt.Terminal
}

var (
	_ authz.Prompter                = pausingPrompter{}
	_ service.KeyParametersPrompter = pausingPrompter{}
)

func (p pausingPrompter) PromptPassphrase(ctx context.Context, rec keys.Record) (string, bool, error) {
	resume := pauseSpinner()
	defer resume()
	return p.inner.PromptPassphrase(ctx, rec)
}

func (p pausingPrompter) PromptKeyParameters(ctx context.Context, settings *configs.Settings) (keys.Request, bool, error) {
	resume := pauseSpinner()
	defer resume()
	return p.inner.PromptKeyParameters(ctx, settings)
}

// formatError formats a workflow error for display to the user.
func formatError(err error) string {
	cross := ui.Error.Sprint("✗")
	arrow := ui.Info.Sprint("→")

	switch {
	case errors.Is(err, kerrors.ErrNotAuthorized):
		return cross + " A key was not unlocked, nothing was changed\n" +
			arrow + " Run the command again and enter the passphrase"

	case errors.Is(err, kerrors.ErrPassphraseRejected):
		return cross + " Wrong passphrase, nothing was changed"

	case errors.Is(err, kerrors.ErrUnknownKey), errors.Is(err, kerrors.ErrAmbiguousKey):
		return cross + " " + err.Error() + "\n" +
			arrow + " Run " + ui.Code.Sprint("sealnote keys list") + " to see your keys"

	case errors.Is(err, kerrors.ErrNoFilesFound):
		return cross + " No documents found"

	case errors.Is(err, kerrors.ErrFileNotFound):
		return cross + " " + err.Error()

	case errors.Is(err, kerrors.ErrInvalidPassphrase), errors.Is(err, prompt.ErrPassphraseMismatch):
		return cross + " " + err.Error()

	case errors.Is(err, kerrors.ErrTransformFailed):
		return cross + " " + err.Error() + "\n" +
			arrow + " The document may be corrupted or was encrypted with a different key"

	case errors.Is(err, kerrors.ErrInvalidSettings), errors.Is(err, kerrors.ErrUnknownSetting):
		return cross + " " + err.Error()

	default:
		return cross + " " + err.Error()
	}
}

// isUnexpectedError returns true if the error is unexpected and should cause a non-zero exit.
func isUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrNotAuthorized),
		errors.Is(err, kerrors.ErrPassphraseRejected),
		errors.Is(err, kerrors.ErrUnknownKey),
		errors.Is(err, kerrors.ErrAmbiguousKey),
		errors.Is(err, kerrors.ErrNoFilesFound),
		errors.Is(err, kerrors.ErrFileNotFound),
		errors.Is(err, kerrors.ErrInvalidPassphrase),
		errors.Is(err, prompt.ErrPassphraseMismatch),
		errors.Is(err, kerrors.ErrInvalidSettings),
		errors.Is(err, kerrors.ErrUnknownSetting),
		errors.Is(err, kerrors.ErrInvalidDateFormat):
		return false
	default:
		return true
	}
}

// reportError sets the spinner's final message for err and returns err only
// when it is unexpected.
func reportError(s *spinner.Spinner, err error) error {
	s.FinalMSG = formatError(err)
	if isUnexpectedError(err) {
		return err
	}
	return nil
}

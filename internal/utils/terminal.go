package utils

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalFd returns the file descriptor behind r when r is an interactive terminal.
func TerminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// ReadPassphrase prompts on out and reads a passphrase from the terminal fd
// without echoing input.
func ReadPassphrase(fd int, out io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(out, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(out) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	return passphrase, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsOutputTerminal returns true if stderr is a terminal.
func IsOutputTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

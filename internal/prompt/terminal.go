package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/PolarWolf314/sealnote/internal/configs"
	"github.com/PolarWolf314/sealnote/internal/keys"
	"github.com/PolarWolf314/sealnote/internal/ui"
	"github.com/PolarWolf314/sealnote/internal/utils"
)

// maxAttempts bounds how often a mistyped new passphrase is asked again.
const maxAttempts = 3

// ErrPassphraseMismatch is returned when the confirmation never matched.
var ErrPassphraseMismatch = errors.New("passphrases did not match")

// KeyDetails pre-answers the optional questions asked when creating a key.
type KeyDetails struct {
	Name        string
	Hint        string
	IdleTimeout *int
}

// Terminal asks questions on Out and reads answers from In. Passphrases are
// read without echo when In is a terminal. An empty answer or end of input
// dismisses a prompt.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	// Details, when set, replaces the name, hint and idle timeout questions.
	Details *KeyDetails

	mu     sync.Mutex
	reader *bufio.Reader
}

// NewTerminal prompts on stderr and reads from stdin.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

// PromptPassphrase asks for the passphrase of rec.
func (t *Terminal) PromptPassphrase(ctx context.Context, rec keys.Record) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	fmt.Fprintf(t.Out, "%s Key %s is locked\n", ui.Info.Sprint("→"), ui.Highlight.Sprint(rec.Label()))
	if rec.Hint != "" {
		fmt.Fprintf(t.Out, "  Hint: %s\n", ui.Muted.Sprint(rec.Hint))
	}

	passphrase, err := t.read("Passphrase: ", true)
	if errors.Is(err, io.EOF) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if passphrase == "" {
		return "", false, nil
	}
	return passphrase, true, nil
}

// PromptKeyParameters asks for a new key's passphrase, twice, then for its
// name, hint and idle timeout unless Details is set.
func (t *Terminal) PromptKeyParameters(ctx context.Context, settings *configs.Settings) (keys.Request, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return keys.Request{}, false, err
	}

	passphrase, ok, err := t.newPassphrase()
	if err != nil || !ok {
		return keys.Request{}, false, err
	}
	req := keys.Request{Passphrase: passphrase}

	if t.Details != nil {
		req.Name = t.Details.Name
		req.Hint = t.Details.Hint
		req.IdleTimeout = t.Details.IdleTimeout
		return req, true, nil
	}

	if req.Name, err = t.readOptional("Name (optional): "); err != nil {
		return keys.Request{}, false, err
	}
	if req.Hint, err = t.readOptional("Passphrase hint (optional): "); err != nil {
		return keys.Request{}, false, err
	}
	if req.IdleTimeout, err = t.idleTimeout(settings.IdleTimeout); err != nil {
		return keys.Request{}, false, err
	}
	return req, true, nil
}

func (t *Terminal) newPassphrase() (string, bool, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		passphrase, err := t.read("New passphrase: ", true)
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		if passphrase == "" {
			return "", false, nil
		}
		if err := keys.ValidatePassphrase(passphrase); err != nil {
			fmt.Fprintf(t.Out, "%s %v\n", ui.Error.Sprint("✗"), err)
			continue
		}

		confirm, err := t.read("Confirm passphrase: ", true)
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		if confirm == passphrase {
			return passphrase, true, nil
		}
		fmt.Fprintf(t.Out, "%s Passphrases do not match\n", ui.Error.Sprint("✗"))
	}
	return "", false, ErrPassphraseMismatch
}

func (t *Terminal) idleTimeout(defaultSeconds int) (*int, error) {
	question := fmt.Sprintf("Idle timeout in seconds, 0 for never (blank for default %d): ", defaultSeconds)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		answer, err := t.readOptional(question)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}
		seconds, err := strconv.Atoi(answer)
		if err == nil && seconds >= 0 {
			return &seconds, nil
		}
		fmt.Fprintf(t.Out, "%s Enter a whole number of seconds\n", ui.Error.Sprint("✗"))
	}
	return nil, fmt.Errorf("invalid idle timeout")
}

// readOptional reads a visible answer; end of input counts as blank.
func (t *Terminal) readOptional(question string) (string, error) {
	answer, err := t.read(question, false)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return strings.TrimSpace(answer), err
}

func (t *Terminal) read(question string, hidden bool) (string, error) {
	if hidden {
		if fd, ok := utils.TerminalFd(t.In); ok {
			b, err := utils.ReadPassphrase(fd, t.Out, question)
			return string(b), err
		}
	}

	fmt.Fprint(t.Out, question)
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	line, err := t.reader.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	if hidden {
		fmt.Fprintln(t.Out)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

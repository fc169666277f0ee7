package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

// Formatter renders text in a color, or with a plain prefix and suffix when
// color is off.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...interface{}) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// noColor returns true if color output should be disabled.
func noColor() bool {
	// https://no-color.org/
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Code formats runnable commands. `backticks` without color.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats document and settings paths.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Flag formats CLI flags like --key or --dry-run.
	Flag = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats user values like key names. 'single quotes' without color.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats secondary text like hints. (parentheses) without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}

	// KeyID formats key ids. [brackets] without color.
	KeyID = Formatter{color.New(color.FgMagenta), "[", "]"}
)

// IdleTimeout renders an idle timeout for display. Zero reads as "never".
func IdleTimeout(d time.Duration) string {
	if d <= 0 {
		return "never"
	}
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

// Status renders a check mark or a cross.
func Status(ok bool) string {
	if ok {
		return Success.Sprint("✓")
	}
	return Error.Sprint("✗")
}

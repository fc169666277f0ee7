package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes leveled messages. Out and Err default to stdout and stderr.
type Logger struct {
	Verbose bool
	Debug   bool

	Out io.Writer
	Err io.Writer
}

var (
	infoPrefix  = color.New(color.FgGreen).SprintFunc()
	debugPrefix = color.New(color.FgCyan).SprintFunc()
	warnPrefix  = color.New(color.FgYellow).SprintFunc()
	errorPrefix = color.New(color.FgRed).SprintFunc()
)

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		l.write(l.out(), infoPrefix("[info] "), msg, args)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		l.write(l.out(), debugPrefix("[debug] "), msg, args)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	if l.Verbose || l.Debug {
		l.WarnfAlways(msg, args...)
	}
}

// WarnfAlways prints a warning regardless of verbosity.
func (l Logger) WarnfAlways(msg string, args ...any) {
	l.write(l.err(), warnPrefix("[warn] "), msg, args)
}

func (l Logger) Errorf(msg string, args ...any) {
	if l.Debug {
		l.write(l.err(), errorPrefix("[error] "), msg, args)
	}
}

// ErrorfAndReturn logs the message at error level and returns it as an error.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	l.Errorf(msg, args...)
	return fmt.Errorf(msg, args...)
}

func (l Logger) write(w io.Writer, prefix, msg string, args []any) {
	fmt.Fprintln(w, prefix+fmt.Sprintf(msg, args...))
}

func (l Logger) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) err() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}

package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerLevels(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	testCases := []struct {
		name    string
		logger  Logger
		wantOut []string
		wantErr []string
	}{
		{"Quiet", Logger{}, nil, []string{"[warn] always"}},
		{"Verbose", Logger{Verbose: true}, []string{"[info] info 1"}, []string{"[warn] warn", "[warn] always"}},
		{"Debug", Logger{Debug: true}, []string{"[info] info 1", "[debug] debug"}, []string{"[warn] warn", "[warn] always", "[error] error"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := tc.logger
			l.Out, l.Err = &out, &errOut

			l.Infof("info %d", 1)
			l.Debugf("debug")
			l.Warnf("warn")
			l.WarnfAlways("always")
			l.Errorf("error")

			if got := lines(out.String()); strings.Join(got, "|") != strings.Join(tc.wantOut, "|") {
				t.Errorf("stdout = %q, want %q", got, tc.wantOut)
			}
			if got := lines(errOut.String()); strings.Join(got, "|") != strings.Join(tc.wantErr, "|") {
				t.Errorf("stderr = %q, want %q", got, tc.wantErr)
			}
		})
	}
}

func TestErrorfAndReturn(t *testing.T) {
	var errOut bytes.Buffer
	l := Logger{Err: &errOut}

	err := l.ErrorfAndReturn("failed to load %s", "settings")
	if err == nil || err.Error() != "failed to load settings" {
		t.Errorf("err = %v", err)
	}
	if errOut.Len() != 0 {
		t.Error("Errorf should be silent without --debug")
	}
	if errors.Unwrap(err) != nil {
		t.Error("Expected a plain error")
	}
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

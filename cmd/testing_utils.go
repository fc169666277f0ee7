package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/PolarWolf314/sealnote/internal/keys"
)

var testKDF = keys.KDFParams{Time: 1, Memory: 64, Threads: 1}

// testCLI runs commands against a private config directory, as separate
// processes would.
type testCLI struct {
	t         *testing.T
	configDir string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	t.Cleanup(func() {
		ResetGlobalState()
		promptInput = nil
		kdfParams = keys.KDFParams{}
	})
	return &testCLI{t: t, configDir: t.TempDir()}
}

// run executes args with input fed to the prompts and returns the combined output.
func (c *testCLI) run(input string, args ...string) (string, error) {
	c.t.Helper()
	ResetGlobalState()
	promptInput = strings.NewReader(input)
	kdfParams = testKDF

	RootCmd.SetArgs(append([]string{"--config-dir", c.configDir}, args...))
	return captureOutput(func() error {
		defer shutdownService()
		return RootCmd.ExecuteContext(context.Background())
	})
}

// mustRun is run that fails the test on error.
func (c *testCLI) mustRun(input string, args ...string) string {
	c.t.Helper()
	out, err := c.run(input, args...)
	if err != nil {
		c.t.Fatalf("sealnote %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, stdoutReader)
		stdoutChan <- buf.String()
	}()
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, stderrReader)
		stderrChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, err
}

// Package e2e runs the skilltrigger CLI end to end against isolated skill
// roots.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/skilltrigger/internal/cli"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	Stdout string
	Stderr string
	Err    error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness runs CLI commands with HOME, SKILLTRIGGER_HOME and every scope
// root pointed into a per-test directory. Plugins are disabled unless a
// test sets SKILLTRIGGER_PLUGINS_ENABLED.
type Harness struct {
	t       *testing.T
	homeDir string
	env     map[string]string
}

// NewHarness creates an isolated harness.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()
	h := &Harness{
		t:       t,
		homeDir: homeDir,
		env:     make(map[string]string),
	}

	h.SetEnv("HOME", homeDir)
	h.SetEnv("SKILLTRIGGER_HOME", filepath.Join(homeDir, ".skilltrigger"))
	h.SetEnv("SKILLTRIGGER_REPOSITORY_PATHS", filepath.Join(homeDir, "repo", "skills"))
	h.SetEnv("SKILLTRIGGER_KNOWLEDGE_PATHS", filepath.Join(homeDir, "knowledge"))
	h.SetEnv("SKILLTRIGGER_AGENT_PATHS", filepath.Join(homeDir, "agents"))
	h.SetEnv("SKILLTRIGGER_PLUGINS_ENABLED", "false")

	return h
}

// SetEnv sets an environment variable for commands run through this
// harness. The previous value is restored when the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.env[key] = value
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated home directory.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// Run executes a CLI command and captures its output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()
	return h.run(nil, args)
}

// RunWithStdin executes a CLI command with stdin connected to input.
func (h *Harness) RunWithStdin(input string, args ...string) *Result {
	h.t.Helper()
	return h.run(&input, args)
}

func (h *Harness) run(input *string, args []string) *Result {
	h.t.Helper()

	args = append([]string{"skilltrigger", "--no-color"}, args...)

	if input != nil {
		stdinR, stdinW, err := os.Pipe()
		if err != nil {
			h.t.Fatalf("failed to create stdin pipe: %v", err)
		}
		go func() {
			_, _ = stdinW.WriteString(*input)
			_ = stdinW.Close()
		}()
		oldStdin := os.Stdin
		os.Stdin = stdinR
		defer func() {
			os.Stdin = oldStdin
			_ = stdinR.Close()
		}()
	}

	stdout, restoreStdout := h.capture(&os.Stdout)
	stderr, restoreStderr := h.capture(&os.Stderr)

	cmdErr := cli.Run(context.Background(), args)

	restoreStdout()
	restoreStderr()

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}
	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

// capture redirects *f to a pipe drained concurrently so large outputs
// cannot fill the pipe buffer. The returned func restores *f and waits for
// the drain to finish.
func (h *Harness) capture(f **os.File) (*bytes.Buffer, func()) {
	h.t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create pipe: %v", err)
	}
	old := *f
	*f = w

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(&buf, r)
		done <- err
	}()

	return &buf, func() {
		if err := w.Close(); err != nil {
			h.t.Fatalf("failed to close pipe writer: %v", err)
		}
		*f = old
		if err := <-done; err != nil {
			h.t.Fatalf("failed to read captured output: %v", err)
		}
	}
}

package e2e

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAssertHelpers(t *testing.T) {
	r := &Result{Stdout: "ok", Stderr: "warn", Err: nil, ExitCode: 0}

	AssertSuccess(t, r)
	AssertExitCode(t, r, 0)
	AssertOutputEquals(t, r, "ok")
	AssertStderrContains(t, r, "warn")

	failed := &Result{Err: errors.New("load failed"), ExitCode: 1}
	AssertError(t, failed)
	AssertErrorContains(t, failed, "load")
}

func TestAssertFileEquals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	AssertFileExists(t, path)
	AssertFileEquals(t, path, "content")
}

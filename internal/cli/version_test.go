package cli

import (
	"runtime"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	output, _, err := runApp(t, "version")
	if err != nil {
		t.Fatalf("version command should return nil error, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines of output, got %d: %q", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "skilltrigger version ") {
		t.Errorf("first line should start with 'skilltrigger version ', got %q", lines[0])
	}
	for i, line := range lines[1:] {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("line %d should be indented with 2 spaces, got %q", i+2, line)
		}
	}

	for _, want := range []string{Version, Commit, BuildDate, runtime.Version()} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got %q", want, output)
		}
	}
}

func TestVersionCommandDefinition(t *testing.T) {
	cmd := versionCommand()

	if cmd.Name != "version" {
		t.Errorf("command name = %q, want %q", cmd.Name, "version")
	}
	if !strings.Contains(cmd.Usage, "version") {
		t.Errorf("usage should mention version, got %q", cmd.Usage)
	}
	if cmd.Action == nil {
		t.Error("command should have an action function")
	}
}

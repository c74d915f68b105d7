package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture writes skill documents under a base directory.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a fixture rooted at baseDir.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{t: t, baseDir: baseDir}
}

// WriteFile writes content to relPath, creating parent directories.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		f.t.Fatalf("failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
	return fullPath
}

// WriteSkill writes a skill document. Empty name and trigger are left out
// of the frontmatter so the name falls back to the file name and the skill
// is always active.
func (f *Fixture) WriteSkill(relPath, name, trigger, body string) string {
	f.t.Helper()

	var b strings.Builder
	if name != "" || trigger != "" {
		b.WriteString("---\n")
		if name != "" {
			b.WriteString("name: " + name + "\n")
		}
		if trigger != "" {
			b.WriteString("trigger: " + trigger + "\n")
		}
		b.WriteString("---\n")
	}
	b.WriteString(body)

	return f.WriteFile(relPath, b.String())
}

// Remove deletes relPath.
func (f *Fixture) Remove(relPath string) {
	f.t.Helper()
	if err := os.Remove(filepath.Join(f.baseDir, relPath)); err != nil {
		f.t.Fatalf("failed to remove %s: %v", relPath, err)
	}
}

// Path returns the full path for relPath.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// RepositoryFixture returns a fixture over the repository scope root.
func (h *Harness) RepositoryFixture() *Fixture {
	return h.envFixture("SKILLTRIGGER_REPOSITORY_PATHS")
}

// KnowledgeFixture returns a fixture over the knowledge scope root.
func (h *Harness) KnowledgeFixture() *Fixture {
	return h.envFixture("SKILLTRIGGER_KNOWLEDGE_PATHS")
}

// AgentFixture returns a fixture over the agent scope root.
func (h *Harness) AgentFixture() *Fixture {
	return h.envFixture("SKILLTRIGGER_AGENT_PATHS")
}

// TempFixture returns a fixture over a new temporary directory.
func (h *Harness) TempFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.t.TempDir())
}

// envFixture returns a fixture over the first path in the named
// colon-separated path variable.
func (h *Harness) envFixture(key string) *Fixture {
	h.t.Helper()
	dir, _, _ := strings.Cut(h.env[key], ":")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		h.t.Fatalf("failed to create %s: %v", dir, err)
	}
	return NewFixture(h.t, dir)
}

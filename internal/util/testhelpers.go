//nolint:revive // var-naming - package name is meaningful
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteFile writes content to a file in the test directory
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// WriteSkill writes a markdown skill document with optional YAML
// frontmatter fields under dir and returns its path.
func WriteSkill(t *testing.T, dir, file string, fields map[string]string, body string) string {
	t.Helper()
	path := filepath.Join(dir, file)

	var b strings.Builder
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("---\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %q\n", k, fields[k])
		}
		b.WriteString("---\n")
	}
	b.WriteString(body)

	WriteFile(t, path, b.String())
	return path
}

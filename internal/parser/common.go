package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a frontmatter block.
type Format string

const (
	// FormatNone means the document had no frontmatter block.
	FormatNone Format = ""
	// FormatYAML is a block delimited by "---".
	FormatYAML Format = "yaml"
	// FormatTOML is a block delimited by "+++".
	FormatTOML Format = "toml"
)

// FrontmatterResult contains the parsed frontmatter and remaining content.
type FrontmatterResult struct {
	// Frontmatter contains the raw frontmatter bytes
	Frontmatter []byte
	// Content contains the remaining content after frontmatter
	Content string
	// HasFrontmatter indicates whether frontmatter was found
	HasFrontmatter bool
	// Format is the frontmatter encoding implied by the delimiter
	Format Format
}

// SplitFrontmatter extracts the leading frontmatter block from content.
// "---" opens a YAML block and "+++" a TOML block. A block without a closing
// delimiter is not frontmatter; the whole input is returned as content.
func SplitFrontmatter(content []byte) FrontmatterResult {
	if bytes.HasPrefix(content, []byte("---\n")) || bytes.HasPrefix(content, []byte("---\r\n")) {
		return extractFrontmatter(content, []byte("---"), FormatYAML)
	}

	if bytes.HasPrefix(content, []byte("+++\n")) || bytes.HasPrefix(content, []byte("+++\r\n")) {
		return extractFrontmatter(content, []byte("+++"), FormatTOML)
	}

	return FrontmatterResult{Content: string(content)}
}

// extractFrontmatter extracts frontmatter between delimiters.
func extractFrontmatter(content, delimiter []byte, format Format) FrontmatterResult {
	remaining := content[len(delimiter):]

	if bytes.HasPrefix(remaining, []byte("\r\n")) {
		remaining = remaining[2:]
	} else if bytes.HasPrefix(remaining, []byte("\n")) {
		remaining = remaining[1:]
	}

	var frontmatter []byte
	var bodyStart int
	delimFound := false

	if bytes.HasPrefix(remaining, delimiter) {
		// Empty block: ---\n---\n
		frontmatter = []byte{}
		bodyStart = len(delimiter)
		delimFound = true
	} else {
		closingDelim := append([]byte("\n"), delimiter...)
		if idx := bytes.Index(remaining, closingDelim); idx != -1 {
			frontmatter = remaining[:idx]
			bodyStart = idx + len(closingDelim)
			delimFound = true
		}
	}

	if !delimFound {
		return FrontmatterResult{Content: string(content)}
	}

	clean := bytes.ReplaceAll(frontmatter, []byte("\r\n"), []byte("\n"))
	clean = bytes.TrimRight(clean, "\r")

	if bodyStart < len(remaining) {
		if bytes.HasPrefix(remaining[bodyStart:], []byte("\r\n")) {
			bodyStart += 2
		} else if bytes.HasPrefix(remaining[bodyStart:], []byte("\n")) {
			bodyStart++
		}
	}

	var body string
	if bodyStart < len(remaining) {
		body = string(remaining[bodyStart:])
	}

	return FrontmatterResult{
		Frontmatter:    clean,
		Content:        body,
		HasFrontmatter: true,
		Format:         format,
	}
}

// ParseYAMLFrontmatter parses YAML frontmatter into a map.
// A block that decodes to anything other than a mapping is an error.
func ParseYAMLFrontmatter(frontmatter []byte) (map[string]any, error) {
	result := make(map[string]any)
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return result, nil
	}

	if err := yaml.Unmarshal(frontmatter, &result); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrMalformedMetadata, err)
	}
	if result == nil {
		// A block of only comments decodes to null.
		result = make(map[string]any)
	}

	return result, nil
}

// ParseTOMLFrontmatter parses TOML frontmatter into a map.
func ParseTOMLFrontmatter(frontmatter []byte) (map[string]any, error) {
	result := make(map[string]any)
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return result, nil
	}

	if _, err := toml.Decode(string(frontmatter), &result); err != nil {
		return nil, fmt.Errorf("%w: toml: %w", ErrMalformedMetadata, err)
	}

	return result, nil
}

// ParseFrontmatter decodes a split result according to its format.
func ParseFrontmatter(result FrontmatterResult) (map[string]any, error) {
	switch result.Format {
	case FormatYAML:
		return ParseYAMLFrontmatter(result.Frontmatter)
	case FormatTOML:
		return ParseTOMLFrontmatter(result.Frontmatter)
	default:
		return make(map[string]any), nil
	}
}

// ValidateSkillName checks if a skill name is valid.
// Valid names contain only alphanumeric characters, hyphens, underscores,
// colons (plugin namespaces) and slashes.
func ValidateSkillName(name string) error {
	if name == "" {
		return fmt.Errorf("skill name cannot be empty")
	}

	if strings.TrimSpace(name) != name {
		return fmt.Errorf("skill name cannot have leading/trailing whitespace: %q", name)
	}

	for _, r := range name {
		if !isValidNameChar(r) {
			return fmt.Errorf("skill name contains invalid character %q: %q", r, name)
		}
	}

	return nil
}

func isValidNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '-' || r == '_' || r == ':' || r == '/' || r == '.'
}

// NormalizeContent trims surrounding whitespace and normalizes line endings.
func NormalizeContent(content string) string {
	return strings.ReplaceAll(strings.TrimSpace(content), "\r\n", "\n")
}

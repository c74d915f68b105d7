package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/trigger"
)

// ErrMalformedMetadata is returned when a frontmatter block is present but
// cannot be decoded into recognized key-value metadata.
var ErrMalformedMetadata = errors.New("malformed metadata")

// CommandMarker is the prefix of slash-style commands. Trigger values may be
// written with it ("/city-weather:now"); it is stripped when parsed.
const CommandMarker = model.CommandMarker

// skillFileName is the conventional name of an agent skill bundle entry point.
const skillFileName = "SKILL.md"

// Recognized frontmatter keys.
const (
	KeyName        = "name"
	KeyDescription = "description"
	KeyTrigger     = "trigger"
	KeyScope       = "scope"
)

var knownKeys = map[string]bool{
	KeyName:        true,
	KeyDescription: true,
	KeyTrigger:     true,
	KeyScope:       true,
}

// Parse turns a raw document into a skill.
//
// Without frontmatter the whole text is the body, the name is derived from
// the file path, and the skill is always active in the document's origin
// scope. Plugin command documents default their name and trigger to
// "plugin:command". Any decode or validation failure wraps
// ErrMalformedMetadata.
func Parse(doc model.SkillDocument) (model.Skill, error) {
	result := SplitFrontmatter([]byte(doc.RawText))

	fm, err := ParseFrontmatter(result)
	if err != nil {
		return model.Skill{}, fmt.Errorf("failed to parse frontmatter in %q: %w", doc.Path, err)
	}

	meta, err := ParseMetadata(fm)
	if err != nil {
		return model.Skill{}, fmt.Errorf("invalid metadata in %q: %w", doc.Path, err)
	}

	applyDefaults(&meta, doc)

	if err := ValidateSkillName(meta.Name); err != nil {
		return model.Skill{}, fmt.Errorf("%w: invalid skill name in %q: %w", ErrMalformedMetadata, doc.Path, err)
	}

	return model.Skill{
		Metadata:   meta,
		Body:       NormalizeContent(result.Content),
		Path:       doc.Path,
		ModifiedAt: doc.ModifiedAt,
	}, nil
}

// ParseMetadata maps decoded frontmatter onto Metadata. Unrecognized keys
// are stringified into Extra.
func ParseMetadata(fm map[string]any) (model.Metadata, error) {
	meta := model.Metadata{}

	name, err := stringField(fm, KeyName)
	if err != nil {
		return meta, err
	}
	meta.Name = strings.TrimSpace(name)

	if meta.Description, err = stringField(fm, KeyDescription); err != nil {
		return meta, err
	}

	if v, ok := fm[KeyTrigger]; ok && v != nil {
		raw, err := stringField(fm, KeyTrigger)
		if err != nil {
			return meta, err
		}
		pattern, err := NormalizeTrigger(raw)
		if err != nil {
			return meta, err
		}
		meta.Trigger = &pattern
	}

	scopeStr, err := stringField(fm, KeyScope)
	if err != nil {
		return meta, err
	}
	if scopeStr != "" {
		scope, err := model.ParseScope(scopeStr)
		if err != nil {
			return meta, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
		}
		meta.Scope = scope
	}

	meta.Extra = extraFields(fm)

	return meta, nil
}

// NormalizeTrigger validates a trigger value and strips a leading command
// marker. A pattern must be a single non-empty token.
func NormalizeTrigger(raw string) (string, error) {
	pattern := strings.TrimPrefix(strings.TrimSpace(raw), CommandMarker)
	if pattern == "" {
		return "", fmt.Errorf("%w: trigger must not be empty", ErrMalformedMetadata)
	}
	if strings.IndexFunc(pattern, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: trigger %q must not contain whitespace", ErrMalformedMetadata, raw)
	}
	return pattern, nil
}

// DeriveName returns the default skill name for a path: the file name
// without extension, or the parent directory for SKILL.md bundles.
func DeriveName(path string) string {
	base := filepath.Base(path)
	if strings.EqualFold(base, skillFileName) {
		return filepath.Base(filepath.Dir(path))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func applyDefaults(meta *model.Metadata, doc model.SkillDocument) {
	if doc.Origin.IsCommand() {
		pattern := trigger.FormatPattern(doc.Origin.Plugin, doc.Origin.Command)
		if meta.Name == "" {
			meta.Name = pattern
		}
		if meta.Trigger == nil {
			meta.Trigger = &pattern
		}
	}

	if meta.Name == "" {
		meta.Name = DeriveName(doc.Path)
	}

	if meta.Scope == "" {
		meta.Scope = doc.Origin.Scope.OrDefault()
	}
}

// stringField reads a scalar field. Missing keys yield "". Mappings and
// lists are rejected since recognized keys are plain strings.
func stringField(fm map[string]any, key string) (string, error) {
	val, ok := fm[key]
	if !ok || val == nil {
		return "", nil
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrMalformedMetadata, key, val)
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func extraFields(fm map[string]any) map[string]string {
	var extra map[string]string
	for key, val := range fm {
		if knownKeys[key] {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		if strVal, ok := val.(string); ok {
			extra[key] = strVal
		} else {
			extra[key] = fmt.Sprintf("%v", val)
		}
	}
	return extra
}

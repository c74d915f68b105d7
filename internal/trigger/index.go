// Package trigger indexes skills by activation rule and matches slash
// commands against keyword patterns.
package trigger

import (
	"strings"
	"unicode"

	"github.com/klauern/skilltrigger/internal/model"
)

// CommandMarker prefixes every keyword command.
const CommandMarker = model.CommandMarker

// NamespaceSeparator joins a plugin name and command name in a pattern.
const NamespaceSeparator = ":"

// Command is a parsed slash command.
type Command struct {
	// Name is the token after the marker, e.g. "city-weather:now".
	Name string `json:"name"`
	// Arguments is the trimmed text after the token, possibly empty.
	Arguments string `json:"arguments"`
}

// ParseCommand splits text into a command token and its arguments. The
// trimmed input must start with the command marker immediately followed by
// a non-empty token; anything after the first whitespace is arguments.
func ParseCommand(text string) (Command, bool) {
	trimmed := strings.TrimSpace(text)
	rest, ok := strings.CutPrefix(trimmed, CommandMarker)
	if !ok {
		return Command{}, false
	}

	name, args := rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], strings.TrimSpace(rest[i:])
	}
	if name == "" {
		return Command{}, false
	}

	return Command{Name: name, Arguments: args}, true
}

// FormatPattern builds the namespaced pattern for a plugin command.
func FormatPattern(plugin, command string) string {
	if plugin == "" {
		return command
	}
	return plugin + NamespaceSeparator + command
}

// SkillSource supplies skills in registration order.
type SkillSource interface {
	All() []model.Skill
}

// Match is a keyword-triggered skill and the arguments that followed its
// pattern.
type Match struct {
	Skill     model.Skill
	Arguments string
}

// Index is a read-only view of skills by trigger rule. Build a new one
// whenever the registry changes.
type Index struct {
	always   []model.Skill
	keywords map[string][]model.Skill
	patterns []string
	size     int
}

// Build indexes every skill from src.
func Build(src SkillSource) *Index {
	idx := &Index{keywords: make(map[string][]model.Skill)}

	for _, s := range src.All() {
		idx.size++
		rule := s.Rule()
		if rule.IsAlways() {
			idx.always = append(idx.always, s)
			continue
		}
		if _, seen := idx.keywords[rule.Pattern]; !seen {
			idx.patterns = append(idx.patterns, rule.Pattern)
		}
		idx.keywords[rule.Pattern] = append(idx.keywords[rule.Pattern], s)
	}

	return idx
}

// AlwaysActive returns the unconditional skills in registration order.
func (idx *Index) AlwaysActive() []model.Skill {
	if idx == nil {
		return nil
	}
	return append([]model.Skill(nil), idx.always...)
}

// MatchKeyword returns every keyword skill whose pattern equals the
// command token of text, in registration order. Matching is exact and
// case-sensitive; a miss returns an empty result.
func (idx *Index) MatchKeyword(text string) []Match {
	if idx == nil {
		return nil
	}

	cmd, ok := ParseCommand(text)
	if !ok {
		return nil
	}

	skills := idx.keywords[cmd.Name]
	if len(skills) == 0 {
		return nil
	}

	matches := make([]Match, len(skills))
	for i, s := range skills {
		matches[i] = Match{Skill: s, Arguments: cmd.Arguments}
	}
	return matches
}

// Patterns returns the distinct keyword patterns in first-registration order.
func (idx *Index) Patterns() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.patterns...)
}

// Len returns the number of indexed skills.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.size
}

package model

import "fmt"

// CommandMarker prefixes slash-style commands such as "/city-weather:now".
const CommandMarker = "/"

// TriggerKind distinguishes the two activation rules a skill can carry.
type TriggerKind string

const (
	// TriggerAlways activates the skill on every turn.
	TriggerAlways TriggerKind = "always"

	// TriggerKeyword activates the skill when a message starts with the
	// command marker followed by the rule's pattern.
	TriggerKeyword TriggerKind = "keyword"
)

// IsValid returns true if the trigger kind is recognized.
func (k TriggerKind) IsValid() bool {
	switch k {
	case TriggerAlways, TriggerKeyword:
		return true
	default:
		return false
	}
}

// TriggerRule is the single activation rule attached to a skill.
// Pattern is empty for TriggerAlways.
type TriggerRule struct {
	Kind    TriggerKind `json:"kind"`
	Pattern string      `json:"pattern,omitempty"`
}

// AlwaysActive returns a rule that activates unconditionally.
func AlwaysActive() TriggerRule {
	return TriggerRule{Kind: TriggerAlways}
}

// KeywordTrigger returns a rule that activates on the given command pattern.
func KeywordTrigger(pattern string) TriggerRule {
	return TriggerRule{Kind: TriggerKeyword, Pattern: pattern}
}

// IsAlways reports whether the rule activates unconditionally.
// The zero rule is treated as always active.
func (r TriggerRule) IsAlways() bool {
	return r.Kind == TriggerAlways || r.Kind == ""
}

// IsKeyword reports whether the rule is a keyword trigger.
func (r TriggerRule) IsKeyword() bool {
	return r.Kind == TriggerKeyword
}

// String returns a short description such as "always" or "keyword(city-weather:now)".
func (r TriggerRule) String() string {
	if r.IsKeyword() {
		return fmt.Sprintf("keyword(%s)", r.Pattern)
	}
	return string(TriggerAlways)
}

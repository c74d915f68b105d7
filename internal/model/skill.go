package model

import "time"

// Metadata is the structured header of a skill document.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Trigger is nil when the document declares no trigger, which makes the
	// skill always active.
	Trigger *string `json:"trigger,omitempty"`
	Scope   Scope   `json:"scope"`
	// Extra keeps unrecognized frontmatter keys. Nothing downstream reads them.
	Extra map[string]string `json:"extra,omitempty"`
}

// Rule derives the activation rule from the trigger field.
func (m Metadata) Rule() TriggerRule {
	if m.Trigger == nil {
		return AlwaysActive()
	}
	return KeywordTrigger(*m.Trigger)
}

// Skill is a parsed, activatable instruction bundle.
type Skill struct {
	Metadata   Metadata  `json:"metadata"`
	Body       string    `json:"body"`
	Path       string    `json:"path"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Name returns the skill's unique name within its scope.
func (s Skill) Name() string {
	return s.Metadata.Name
}

// Scope returns the scope the skill is registered under.
func (s Skill) Scope() Scope {
	return s.Metadata.Scope.OrDefault()
}

// Rule returns the skill's activation rule.
func (s Skill) Rule() TriggerRule {
	return s.Metadata.Rule()
}

// Key identifies a skill across scopes, e.g. "knowledge/city-weather:now".
func (s Skill) Key() string {
	return string(s.Scope()) + "/" + s.Name()
}

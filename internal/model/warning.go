package model

import "fmt"

// WarningKind classifies a recovered, per-document load problem.
type WarningKind string

const (
	// WarningUnreadable means the file could not be opened or read.
	WarningUnreadable WarningKind = "unreadable"
	// WarningMalformed means the frontmatter block could not be decoded.
	WarningMalformed WarningKind = "malformed"
	// WarningDuplicate means a later skill displaced one with the same name.
	WarningDuplicate WarningKind = "duplicate"
)

// Warning records a document that was skipped or displaced during loading.
type Warning struct {
	Kind  WarningKind `json:"kind"`
	Path  string      `json:"path"`
	Scope Scope       `json:"scope,omitempty"`
	Skill string      `json:"skill,omitempty"`
	Err   error       `json:"-"`
}

// Error implements error.
func (w Warning) Error() string {
	switch {
	case w.Err != nil && w.Skill != "":
		return fmt.Sprintf("%s: %s (%s): %v", w.Kind, w.Skill, w.Path, w.Err)
	case w.Err != nil:
		return fmt.Sprintf("%s: %s: %v", w.Kind, w.Path, w.Err)
	case w.Skill != "":
		return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Skill, w.Path)
	default:
		return fmt.Sprintf("%s: %s", w.Kind, w.Path)
	}
}

// Unwrap returns the underlying cause.
func (w Warning) Unwrap() error {
	return w.Err
}

// Message returns the warning text without the kind prefix.
func (w Warning) Message() string {
	if w.Err != nil {
		return w.Err.Error()
	}
	return w.Path
}

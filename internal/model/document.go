package model

import "time"

// Origin describes where a document was discovered.
type Origin struct {
	// Root is the directory the document was found under.
	Root string `json:"root"`
	// Scope is the scope assigned to the root. Frontmatter may override it.
	Scope Scope `json:"scope,omitempty"`
	// Plugin and Command are set for plugin command files; together they
	// form the default keyword pattern "plugin:command".
	Plugin  string `json:"plugin,omitempty"`
	Command string `json:"command,omitempty"`
}

// IsCommand reports whether the document is a plugin command.
func (o Origin) IsCommand() bool {
	return o.Plugin != "" && o.Command != ""
}

// SkillDocument is a raw skill file as read from disk.
type SkillDocument struct {
	Path       string    `json:"path"`
	RawText    string    `json:"-"`
	ModifiedAt time.Time `json:"modified_at"`
	Origin     Origin    `json:"origin"`
}

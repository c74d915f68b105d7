package model

import (
	"fmt"
	"strings"
)

// Scope is the namespace partition a skill is registered under.
// Names are unique within a scope; scopes share the same activation rules.
type Scope string

const (
	// ScopeRepository holds skills that ship with the repository being worked on.
	ScopeRepository Scope = "repository"

	// ScopeKnowledge holds knowledge skills, typically keyword-triggered commands.
	ScopeKnowledge Scope = "knowledge"

	// ScopeAgent holds agent-level skills (SKILL.md bundles).
	ScopeAgent Scope = "agent"
)

// scopeOrder is the canonical listing order for scopes.
var scopeOrder = map[Scope]int{
	ScopeRepository: 0,
	ScopeKnowledge:  1,
	ScopeAgent:      2,
}

// IsValid returns true if the scope is recognized.
func (s Scope) IsValid() bool {
	_, ok := scopeOrder[s]
	return ok
}

// AllScopes returns all scopes in canonical order.
func AllScopes() []Scope {
	return []Scope{ScopeRepository, ScopeKnowledge, ScopeAgent}
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}

// Description returns a human-readable description of the scope.
func (s Scope) Description() string {
	switch s {
	case ScopeRepository:
		return "Repository-level skills local to a specific project"
	case ScopeKnowledge:
		return "Knowledge skills activated by keyword commands"
	case ScopeAgent:
		return "Agent-level skill bundles"
	default:
		return "Unknown scope"
	}
}

// OrDefault returns s, or ScopeRepository when s is empty.
func (s Scope) OrDefault() Scope {
	if s == "" {
		return ScopeRepository
	}
	return s
}

// ParseScope converts a string to a Scope.
// Returns an error if the scope is not recognized.
func ParseScope(s string) (Scope, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	scope := Scope(normalized)
	if scope.IsValid() {
		return scope, nil
	}

	switch normalized {
	case "repo", "project", "local":
		return ScopeRepository, nil
	case "knowledge-base", "kb", "microagent":
		return ScopeKnowledge, nil
	case "agents", "agent-skill", "agentskill":
		return ScopeAgent, nil
	default:
		return "", fmt.Errorf("unknown scope %q (valid: repository, knowledge, agent)", s)
	}
}

// Package registry holds parsed skills partitioned by scope.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/model"
)

var (
	// ErrNotFound is returned by Lookup when no skill has the name in the scope.
	ErrNotFound = errors.New("skill not found")
	// ErrDuplicateName is wrapped by the warning recorded when a registration
	// displaces an earlier skill of the same name.
	ErrDuplicateName = errors.New("duplicate skill name")
)

type entry struct {
	skill model.Skill
	seq   uint64
}

type partition struct {
	entries []entry
	byName  map[string]int
}

func newPartition() *partition {
	return &partition{byName: make(map[string]int)}
}

func (p *partition) remove(i int) {
	p.entries = slices.Delete(p.entries, i, i+1)
	for j := i; j < len(p.entries); j++ {
		p.byName[p.entries[j].skill.Name()] = j
	}
}

// Registry maps skill names to skills, one namespace per scope, preserving
// registration order. It is built once during a load pass and is not safe
// for concurrent mutation; treat it as read-only afterwards.
type Registry struct {
	scopes   map[model.Scope]*partition
	seq      uint64
	warnings []model.Warning
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{scopes: make(map[model.Scope]*partition)}
	for _, s := range model.AllScopes() {
		r.scopes[s] = newPartition()
	}
	return r
}

// Register adds a skill under its scope. If the scope already holds a skill
// with the same name, the new one replaces it, moves to the end of the
// iteration order, and a duplicate warning is recorded.
func (r *Registry) Register(skill model.Skill) {
	scope := skill.Scope()
	p, ok := r.scopes[scope]
	if !ok {
		p = newPartition()
		r.scopes[scope] = p
	}

	name := skill.Name()
	if i, exists := p.byName[name]; exists {
		displaced := p.entries[i].skill
		p.remove(i)

		w := model.Warning{
			Kind:  model.WarningDuplicate,
			Path:  skill.Path,
			Scope: scope,
			Skill: name,
			Err:   fmt.Errorf("%w: %q in %s scope replaces %s", ErrDuplicateName, name, scope, displaced.Path),
		}
		r.warnings = append(r.warnings, w)

		logging.Debug("skill displaced",
			logging.Skill(name),
			logging.Scope(string(scope)),
			logging.Path(displaced.Path),
		)
	}

	r.seq++
	p.entries = append(p.entries, entry{skill: skill, seq: r.seq})
	p.byName[name] = len(p.entries) - 1
}

// Lookup returns the skill registered under name in scope.
func (r *Registry) Lookup(scope model.Scope, name string) (model.Skill, error) {
	p, ok := r.scopes[scope.OrDefault()]
	if ok {
		if i, found := p.byName[name]; found {
			return p.entries[i].skill, nil
		}
	}
	return model.Skill{}, fmt.Errorf("%w: %q in %s scope", ErrNotFound, name, scope.OrDefault())
}

// AllInScope returns the skills of one scope in registration order.
func (r *Registry) AllInScope(scope model.Scope) []model.Skill {
	p, ok := r.scopes[scope.OrDefault()]
	if !ok {
		return nil
	}
	out := make([]model.Skill, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.skill
	}
	return out
}

// All returns every skill across scopes in global registration order.
func (r *Registry) All() []model.Skill {
	var entries []entry
	for _, p := range r.scopes {
		entries = append(entries, p.entries...)
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})

	out := make([]model.Skill, len(entries))
	for i, e := range entries {
		out[i] = e.skill
	}
	return out
}

// Len returns the number of registered skills.
func (r *Registry) Len() int {
	n := 0
	for _, p := range r.scopes {
		n += len(p.entries)
	}
	return n
}

// Warnings returns the duplicate warnings recorded so far, in order.
func (r *Registry) Warnings() []model.Warning {
	return slices.Clone(r.warnings)
}

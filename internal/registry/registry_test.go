package registry

import (
	"errors"
	"testing"

	"github.com/klauern/skilltrigger/internal/model"
)

func skill(name string, scope model.Scope, path string) model.Skill {
	return model.Skill{
		Metadata: model.Metadata{Name: name, Scope: scope},
		Body:     "body of " + name,
		Path:     path,
	}
}

func names(skills []model.Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = s.Name()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegisterPreservesOrder(t *testing.T) {
	r := New()
	r.Register(skill("zeta", model.ScopeRepository, "/z.md"))
	r.Register(skill("alpha", model.ScopeRepository, "/a.md"))
	r.Register(skill("kb", model.ScopeKnowledge, "/kb.md"))
	r.Register(skill("mid", model.ScopeRepository, "/m.md"))

	if got := names(r.AllInScope(model.ScopeRepository)); !equal(got, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("AllInScope(repository) = %v", got)
	}
	if got := names(r.AllInScope(model.ScopeKnowledge)); !equal(got, []string{"kb"}) {
		t.Errorf("AllInScope(knowledge) = %v", got)
	}
	if got := r.AllInScope(model.ScopeAgent); len(got) != 0 {
		t.Errorf("AllInScope(agent) = %v, want empty", names(got))
	}
	if got := names(r.All()); !equal(got, []string{"zeta", "alpha", "kb", "mid"}) {
		t.Errorf("All() = %v", got)
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
	if len(r.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", r.Warnings())
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	r.Register(skill("a", model.ScopeRepository, "/one/a.md"))
	r.Register(skill("b", model.ScopeRepository, "/one/b.md"))
	r.Register(skill("a", model.ScopeRepository, "/two/a.md"))

	got, err := r.Lookup(model.ScopeRepository, "a")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Path != "/two/a.md" {
		t.Errorf("Lookup() path = %q, want last registration", got.Path)
	}

	if order := names(r.AllInScope(model.ScopeRepository)); !equal(order, []string{"b", "a"}) {
		t.Errorf("AllInScope() = %v, want [b a]", order)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	warnings := r.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Warnings() = %v, want 1", warnings)
	}
	w := warnings[0]
	if w.Kind != model.WarningDuplicate || w.Skill != "a" || w.Path != "/two/a.md" || w.Scope != model.ScopeRepository {
		t.Errorf("warning = %+v", w)
	}
	if !errors.Is(w, ErrDuplicateName) {
		t.Errorf("warning should wrap ErrDuplicateName: %v", w)
	}
}

func TestSameNameDifferentScopes(t *testing.T) {
	r := New()
	r.Register(skill("shared", model.ScopeRepository, "/repo/shared.md"))
	r.Register(skill("shared", model.ScopeKnowledge, "/kb/shared.md"))
	r.Register(skill("shared", model.ScopeAgent, "/agent/shared.md"))

	if len(r.Warnings()) != 0 {
		t.Errorf("scopes are independent namespaces, got warnings %v", r.Warnings())
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}

	for _, scope := range model.AllScopes() {
		got, err := r.Lookup(scope, "shared")
		if err != nil {
			t.Errorf("Lookup(%s) error = %v", scope, err)
			continue
		}
		if got.Scope() != scope {
			t.Errorf("Lookup(%s) returned scope %s", scope, got.Scope())
		}
	}
}

func TestLookup(t *testing.T) {
	r := New()
	r.Register(skill("present", model.ScopeKnowledge, "/p.md"))

	tests := map[string]struct {
		scope   model.Scope
		name    string
		wantErr error
	}{
		"found":         {scope: model.ScopeKnowledge, name: "present"},
		"missing name":  {scope: model.ScopeKnowledge, name: "absent", wantErr: ErrNotFound},
		"wrong scope":   {scope: model.ScopeAgent, name: "present", wantErr: ErrNotFound},
		"case-mismatch": {scope: model.ScopeKnowledge, name: "Present", wantErr: ErrNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := r.Lookup(tt.scope, tt.name)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Lookup() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.Name() != tt.name {
				t.Errorf("Lookup() = %q, want %q", got.Name(), tt.name)
			}
		})
	}
}

func TestDefaultScope(t *testing.T) {
	r := New()
	r.Register(skill("unscoped", "", "/u.md"))

	if _, err := r.Lookup(model.ScopeRepository, "unscoped"); err != nil {
		t.Errorf("skill without scope should register as repository: %v", err)
	}
}

func TestWarningsReturnsCopy(t *testing.T) {
	r := New()
	r.Register(skill("a", model.ScopeRepository, "/1.md"))
	r.Register(skill("a", model.ScopeRepository, "/2.md"))

	w := r.Warnings()
	w[0].Skill = "mutated"

	if r.Warnings()[0].Skill != "a" {
		t.Error("Warnings() should not expose internal state")
	}
}

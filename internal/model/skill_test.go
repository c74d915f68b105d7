package model

import (
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestMetadataRule(t *testing.T) {
	tests := map[string]struct {
		meta Metadata
		want TriggerRule
	}{
		"no trigger is always active": {
			meta: Metadata{Name: "style"},
			want: AlwaysActive(),
		},
		"trigger becomes keyword rule": {
			meta: Metadata{Name: "now", Trigger: strPtr("city-weather:now")},
			want: KeywordTrigger("city-weather:now"),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.meta.Rule(); got != tt.want {
				t.Errorf("Rule() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSkillAccessors(t *testing.T) {
	s := Skill{Metadata: Metadata{Name: "city-weather:now", Trigger: strPtr("city-weather:now"), Scope: ScopeKnowledge}}

	if s.Name() != "city-weather:now" {
		t.Errorf("Name() = %q", s.Name())
	}
	if s.Key() != "knowledge/city-weather:now" {
		t.Errorf("Key() = %q, want %q", s.Key(), "knowledge/city-weather:now")
	}
	if !s.Rule().IsKeyword() {
		t.Errorf("Rule() = %v, want keyword", s.Rule())
	}

	unscoped := Skill{Metadata: Metadata{Name: "x"}}
	if unscoped.Scope() != ScopeRepository {
		t.Errorf("Scope() of unscoped skill = %q, want repository", unscoped.Scope())
	}
}

func TestTriggerRuleString(t *testing.T) {
	tests := map[string]struct {
		rule TriggerRule
		want string
	}{
		"always":     {rule: AlwaysActive(), want: "always"},
		"zero value": {rule: TriggerRule{}, want: "always"},
		"keyword":    {rule: KeywordTrigger("a:b"), want: "keyword(a:b)"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.rule.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTriggerKindIsValid(t *testing.T) {
	if !TriggerAlways.IsValid() || !TriggerKeyword.IsValid() {
		t.Error("known trigger kinds should be valid")
	}
	if TriggerKind("fuzzy").IsValid() {
		t.Error("unknown trigger kind should be invalid")
	}
}

func TestWarningError(t *testing.T) {
	cause := errors.New("permission denied")
	w := Warning{Kind: WarningUnreadable, Path: "/skills/a.md", Err: cause}

	if !errors.Is(w, cause) {
		t.Error("Warning should unwrap to its cause")
	}
	if !strings.Contains(w.Error(), "unreadable") || !strings.Contains(w.Error(), "/skills/a.md") {
		t.Errorf("Error() = %q, missing kind or path", w.Error())
	}

	dup := Warning{Kind: WarningDuplicate, Path: "/skills/b.md", Skill: "b"}
	if got := dup.Error(); got != "duplicate: b (/skills/b.md)" {
		t.Errorf("Error() = %q", got)
	}
}

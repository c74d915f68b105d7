package activation

import (
	"reflect"
	"testing"

	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/registry"
	"github.com/klauern/skilltrigger/internal/trigger"
)

func newIndex(skills ...model.Skill) *trigger.Index {
	reg := registry.New()
	for _, s := range skills {
		reg.Register(s)
	}
	return trigger.Build(reg)
}

func keywordSkill(name, pattern, body string) model.Skill {
	p := pattern
	return model.Skill{
		Metadata: model.Metadata{Name: name, Trigger: &p, Scope: model.ScopeKnowledge},
		Body:     body,
	}
}

func alwaysSkill(name, body string) model.Skill {
	return model.Skill{
		Metadata: model.Metadata{Name: name, Scope: model.ScopeRepository},
		Body:     body,
	}
}

func TestResolve(t *testing.T) {
	idx := newIndex(
		alwaysSkill("style", "Use tabs. $ARGUMENTS stays literal here."),
		keywordSkill("city-weather:now", "city-weather:now", "Fetch weather for $ARGUMENTS"),
		alwaysSkill("tone", "Be brief."),
	)

	tests := map[string]struct {
		input     string
		wantNames []string
		wantBody  string
	}{
		"keyword with argument": {
			input:     "/city-weather:now Tokyo",
			wantNames: []string{"style", "tone", "city-weather:now"},
			wantBody:  "Fetch weather for Tokyo",
		},
		"keyword without argument substitutes empty": {
			input:     "/city-weather:now",
			wantNames: []string{"style", "tone", "city-weather:now"},
			wantBody:  "Fetch weather for ",
		},
		"multi-word argument verbatim": {
			input:     "/city-weather:now  São Paulo & <Rio> ",
			wantNames: []string{"style", "tone", "city-weather:now"},
			wantBody:  "Fetch weather for São Paulo & <Rio>",
		},
		"no match yields always-active only": {
			input:     "/city-weather:later Tokyo",
			wantNames: []string{"style", "tone"},
		},
		"plain message": {
			input:     "hello",
			wantNames: []string{"style", "tone"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Resolve(idx, tt.input)

			gotNames := make([]string, len(got))
			for i, a := range got {
				gotNames[i] = a.Skill.Name()
			}
			if !reflect.DeepEqual(gotNames, tt.wantNames) {
				t.Fatalf("Resolve() skills = %v, want %v", gotNames, tt.wantNames)
			}

			if got[0].Body != "Use tabs. $ARGUMENTS stays literal here." {
				t.Errorf("always-active body altered: %q", got[0].Body)
			}
			if got[0].Triggered {
				t.Error("always-active activation marked as triggered")
			}

			triggered := Triggered(got)
			if tt.wantBody == "" {
				if len(triggered) != 0 {
					t.Errorf("unexpected triggered activations: %v", triggered)
				}
				return
			}
			if len(triggered) != 1 {
				t.Fatalf("Triggered() = %d, want 1", len(triggered))
			}
			if triggered[0].Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", triggered[0].Body, tt.wantBody)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	idx := newIndex(
		alwaysSkill("style", "Use tabs."),
		keywordSkill("city-weather:now", "city-weather:now", "Fetch weather for $ARGUMENTS"),
	)

	first := Resolve(idx, "/city-weather:now Tokyo")
	second := Resolve(idx, "/city-weather:now Tokyo")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve() not idempotent:\n%+v\n%+v", first, second)
	}

	// A different message in between must not leak into later results.
	_ = Resolve(idx, "/city-weather:now Paris")
	third := Resolve(idx, "/city-weather:now Tokyo")
	if !reflect.DeepEqual(first, third) {
		t.Errorf("Resolve() retained state between calls")
	}
}

func TestResolveDuplicatePatterns(t *testing.T) {
	idx := newIndex(
		keywordSkill("a", "deploy", "A deploys $ARGUMENTS"),
		keywordSkill("b", "deploy", "B deploys $ARGUMENTS"),
	)

	got := Resolve(idx, "/deploy prod")
	if len(got) != 2 {
		t.Fatalf("Resolve() = %d activations, want 2", len(got))
	}
	if got[0].Body != "A deploys prod" || got[1].Body != "B deploys prod" {
		t.Errorf("bodies = [%q %q]", got[0].Body, got[1].Body)
	}
}

func TestResolveNilMatcher(t *testing.T) {
	if got := Resolve(nil, "/x"); got != nil {
		t.Errorf("Resolve(nil) = %v, want nil", got)
	}
}

func TestSubstitute(t *testing.T) {
	tests := map[string]struct {
		body string
		args string
		want string
	}{
		"single":         {body: "Fetch weather for $ARGUMENTS", args: "Tokyo", want: "Fetch weather for Tokyo"},
		"every instance": {body: "$ARGUMENTS and $ARGUMENTS", args: "x", want: "x and x"},
		"empty args":     {body: "run $ARGUMENTS now", args: "", want: "run  now"},
		"no placeholder": {body: "static", args: "ignored", want: "static"},
		"no escaping":    {body: "echo $ARGUMENTS", args: "$(rm) \"q\"", want: "echo $(rm) \"q\""},
		"not recursive":  {body: "$ARGUMENTS", args: "$ARGUMENTS", want: "$ARGUMENTS"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Substitute(tt.body, tt.args); got != tt.want {
				t.Errorf("Substitute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	idx := newIndex(
		alwaysSkill("style", "Use tabs."),
		keywordSkill("city-weather:now", "city-weather:now", "Fetch weather for $ARGUMENTS"),
	)

	got := Render(Resolve(idx, "/city-weather:now Tokyo"))
	want := "<skill name=\"style\" scope=\"repository\">\nUse tabs.\n</skill>\n\n" +
		"<skill name=\"city-weather:now\" scope=\"knowledge\" trigger=\"city-weather:now\">\nFetch weather for Tokyo\n</skill>"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}

	if Render(nil) != "" {
		t.Error("Render(nil) should be empty")
	}
}

package trigger

import (
	"testing"

	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/registry"
)

func keyword(name, pattern string) model.Skill {
	p := pattern
	return model.Skill{
		Metadata: model.Metadata{Name: name, Trigger: &p, Scope: model.ScopeKnowledge},
		Body:     "Fetch weather for $ARGUMENTS",
	}
}

func always(name string, scope model.Scope) model.Skill {
	return model.Skill{
		Metadata: model.Metadata{Name: name, Scope: scope},
		Body:     name,
	}
}

func TestParseCommand(t *testing.T) {
	tests := map[string]struct {
		input  string
		want   Command
		wantOK bool
	}{
		"name only":             {input: "/city-weather:now", want: Command{Name: "city-weather:now"}, wantOK: true},
		"with arguments":        {input: "/city-weather:now Tokyo", want: Command{Name: "city-weather:now", Arguments: "Tokyo"}, wantOK: true},
		"arguments trimmed":     {input: "  /deploy   prod  eu \n", want: Command{Name: "deploy", Arguments: "prod  eu"}, wantOK: true},
		"tab separator":         {input: "/deploy\tprod", want: Command{Name: "deploy", Arguments: "prod"}, wantOK: true},
		"no marker":             {input: "city-weather:now Tokyo", wantOK: false},
		"marker mid-text":       {input: "please run /city-weather:now", wantOK: false},
		"marker only":           {input: "/", wantOK: false},
		"marker then space":     {input: "/ deploy", wantOK: false},
		"empty":                 {input: "", wantOK: false},
		"multiline arguments":   {input: "/note first\nsecond", want: Command{Name: "note", Arguments: "first\nsecond"}, wantOK: true},
		"trailing space no arg": {input: "/deploy   ", want: Command{Name: "deploy"}, wantOK: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseCommand(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseCommand(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatPattern(t *testing.T) {
	if got := FormatPattern("city-weather", "now"); got != "city-weather:now" {
		t.Errorf("FormatPattern() = %q", got)
	}
	if got := FormatPattern("", "deploy"); got != "deploy" {
		t.Errorf("FormatPattern() without plugin = %q", got)
	}
}

func TestMatchKeyword(t *testing.T) {
	reg := registry.New()
	reg.Register(keyword("city-weather:now", "city-weather:now"))
	reg.Register(always("style", model.ScopeRepository))
	idx := Build(reg)

	tests := map[string]struct {
		input    string
		wantHit  bool
		wantArgs string
	}{
		"exact with argument":     {input: "/city-weather:now Tokyo", wantHit: true, wantArgs: "Tokyo"},
		"exact without argument":  {input: "/city-weather:now", wantHit: true},
		"different command":       {input: "/city-weather:later Tokyo", wantHit: false},
		"longer token":            {input: "/city-weather:nowish Tokyo", wantHit: false},
		"prefix of pattern":       {input: "/city-weather Tokyo", wantHit: false},
		"case sensitive":          {input: "/City-Weather:now Tokyo", wantHit: false},
		"missing marker":          {input: "city-weather:now Tokyo", wantHit: false},
		"not at start":            {input: "hi /city-weather:now Tokyo", wantHit: false},
		"leading whitespace":      {input: "   /city-weather:now Osaka", wantHit: true, wantArgs: "Osaka"},
		"plain text no match":     {input: "what's the weather?", wantHit: false},
		"multi-word arguments":    {input: "/city-weather:now New York", wantHit: true, wantArgs: "New York"},
		"always-active not keyed": {input: "/style", wantHit: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := idx.MatchKeyword(tt.input)
			if (len(got) > 0) != tt.wantHit {
				t.Fatalf("MatchKeyword(%q) = %v, want hit %v", tt.input, got, tt.wantHit)
			}
			if tt.wantHit && got[0].Arguments != tt.wantArgs {
				t.Errorf("Arguments = %q, want %q", got[0].Arguments, tt.wantArgs)
			}
		})
	}
}

func TestMatchKeywordDuplicatesInOrder(t *testing.T) {
	reg := registry.New()
	first := keyword("first", "deploy")
	second := keyword("second", "deploy")
	second.Metadata.Scope = model.ScopeAgent
	reg.Register(first)
	reg.Register(keyword("other", "rollback"))
	reg.Register(second)

	idx := Build(reg)
	got := idx.MatchKeyword("/deploy prod")
	if len(got) != 2 {
		t.Fatalf("MatchKeyword() = %d matches, want 2", len(got))
	}
	if got[0].Skill.Name() != "first" || got[1].Skill.Name() != "second" {
		t.Errorf("matches = [%s %s], want [first second]", got[0].Skill.Name(), got[1].Skill.Name())
	}
	for _, m := range got {
		if m.Arguments != "prod" {
			t.Errorf("Arguments = %q, want prod", m.Arguments)
		}
	}

	patterns := idx.Patterns()
	if len(patterns) != 2 || patterns[0] != "deploy" || patterns[1] != "rollback" {
		t.Errorf("Patterns() = %v, want [deploy rollback]", patterns)
	}
}

func TestAlwaysActiveOrder(t *testing.T) {
	reg := registry.New()
	reg.Register(always("b", model.ScopeRepository))
	reg.Register(always("kb", model.ScopeKnowledge))
	reg.Register(keyword("cmd", "cmd"))
	reg.Register(always("a", model.ScopeRepository))

	idx := Build(reg)
	got := idx.AlwaysActive()

	want := []string{"b", "kb", "a"}
	if len(got) != len(want) {
		t.Fatalf("AlwaysActive() = %d skills, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Name() != want[i] {
			t.Errorf("AlwaysActive()[%d] = %q, want %q", i, s.Name(), want[i])
		}
	}
	if idx.Len() != 4 {
		t.Errorf("Len() = %d, want 4", idx.Len())
	}
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	if idx.AlwaysActive() != nil || idx.MatchKeyword("/x") != nil || idx.Patterns() != nil || idx.Len() != 0 {
		t.Error("nil index should behave as empty")
	}
}

func TestIndexIsolatedFromCallers(t *testing.T) {
	reg := registry.New()
	reg.Register(always("a", model.ScopeRepository))
	idx := Build(reg)

	got := idx.AlwaysActive()
	got[0].Body = "mutated"

	if idx.AlwaysActive()[0].Body != "a" {
		t.Error("AlwaysActive() should return a copy")
	}
}

// Package activation decides which skills join the agent context for a
// message and fills in their argument placeholders.
package activation

import (
	"fmt"
	"strings"

	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/trigger"
)

// Placeholder is replaced with command arguments in keyword skill bodies.
const Placeholder = "$ARGUMENTS"

// Matcher is the query side of a trigger index.
type Matcher interface {
	AlwaysActive() []model.Skill
	MatchKeyword(text string) []trigger.Match
}

// Activation is one skill surfaced for a message.
type Activation struct {
	Skill model.Skill
	// Body is the skill body with placeholders substituted.
	Body string
	// Arguments is the text that followed the command token.
	Arguments string
	// Triggered is true for keyword matches and false for always-active skills.
	Triggered bool
}

// Resolve returns the always-active skills followed by the keyword skills
// matched by text, each group in registration order. It holds no state, so
// the same index and text always produce the same result.
func Resolve(m Matcher, text string) []Activation {
	if m == nil {
		return nil
	}

	always := m.AlwaysActive()
	matches := m.MatchKeyword(text)

	out := make([]Activation, 0, len(always)+len(matches))
	for _, s := range always {
		out = append(out, Activation{Skill: s, Body: s.Body})
	}
	for _, match := range matches {
		out = append(out, Activation{
			Skill:     match.Skill,
			Body:      Substitute(match.Skill.Body, match.Arguments),
			Arguments: match.Arguments,
			Triggered: true,
		})
	}
	return out
}

// Substitute replaces every placeholder in body with args verbatim. A
// command without arguments substitutes the empty string.
func Substitute(body, args string) string {
	return strings.ReplaceAll(body, Placeholder, args)
}

// Triggered returns only the keyword-matched activations.
func Triggered(acts []Activation) []Activation {
	var out []Activation
	for _, a := range acts {
		if a.Triggered {
			out = append(out, a)
		}
	}
	return out
}

// Render formats activations as tagged blocks in the order given, ready to
// merge into an agent's context.
func Render(acts []Activation) string {
	var b strings.Builder
	for i, a := range acts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "<skill name=%q scope=%q", a.Skill.Name(), a.Skill.Scope())
		if a.Triggered {
			fmt.Fprintf(&b, " trigger=%q", a.Skill.Rule().Pattern)
		}
		b.WriteString(">\n")
		b.WriteString(a.Body)
		b.WriteString("\n</skill>")
	}
	return b.String()
}

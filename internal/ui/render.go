package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/klauern/skilltrigger/internal/model"
)

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 100

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	boxTitleStyle = lipgloss.NewStyle().Bold(true)

	titleCaser = cases.Title(language.English)
)

// TerminalWidth returns the width of f when it is a terminal, else fallback.
func TerminalWidth(f *os.File, fallback int) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Truncate shortens s to at most width display cells, ending with "..."
// when cut. Wide runes count as two cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// Pad truncates s to width cells and pads it with spaces to exactly width.
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// ScopeTitle returns a display heading for a scope, e.g. "Knowledge".
func ScopeTitle(s model.Scope) string {
	return titleCaser.String(string(s))
}

// Heading renders a section heading.
func Heading(text string) string {
	if !IsColorEnabled() {
		return text
	}
	return headingStyle.Render(text)
}

// Box renders body in a bordered box with a title line. When colors are
// disabled the box degrades to a plain title and body.
func Box(title, body string, width int) string {
	if !IsColorEnabled() {
		return title + "\n" + body
	}
	content := boxTitleStyle.Render(title) + "\n" + body
	style := boxStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(content)
}

// Package ui provides terminal output helpers for skilltrigger.
package ui

import (
	"github.com/fatih/color"

	"github.com/klauern/skilltrigger/internal/model"
)

// Color function types for styled output.
var (
	// Success is used for successful operations (green).
	Success = color.New(color.FgGreen).SprintFunc()
	// Error is used for errors and failures (red).
	Error = color.New(color.FgRed).SprintFunc()
	// Warning is used for warnings and cautions (yellow).
	Warning = color.New(color.FgYellow).SprintFunc()
	// Info is used for informational messages (cyan).
	Info = color.New(color.FgCyan).SprintFunc()
	// Bold is used for emphasis (bold white).
	Bold = color.New(color.Bold).SprintFunc()
	// Dim is used for secondary information (faint).
	Dim = color.New(color.Faint).SprintFunc()
	// Header is used for table headers (bold cyan).
	Header = color.New(color.FgCyan, color.Bold).SprintFunc()
)

var scopeColors = map[model.Scope]func(a ...any) string{
	model.ScopeRepository: color.New(color.FgBlue).SprintFunc(),
	model.ScopeKnowledge:  color.New(color.FgMagenta).SprintFunc(),
	model.ScopeAgent:      color.New(color.FgGreen).SprintFunc(),
}

// Status symbols with colors.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
	SymbolTrigger = "›"
)

// StatusSuccess returns a green checkmark with optional message.
func StatusSuccess(msg string) string {
	return status(Success(SymbolSuccess), msg)
}

// StatusError returns a red X with optional message.
func StatusError(msg string) string {
	return status(Error(SymbolError), msg)
}

// StatusWarning returns a yellow warning with optional message.
func StatusWarning(msg string) string {
	return status(Warning(SymbolWarning), msg)
}

// StatusSkipped returns a dimmed skip symbol with optional message.
func StatusSkipped(msg string) string {
	return status(Dim(SymbolSkipped), msg)
}

func status(symbol, msg string) string {
	if msg == "" {
		return symbol
	}
	return symbol + " " + msg
}

// Scope colors a scope name.
func Scope(s model.Scope) string {
	if fn, ok := scopeColors[s]; ok {
		return fn(string(s))
	}
	return string(s)
}

// RuleText returns the plain display form of a trigger rule: the command a
// user types for keyword rules, "always" otherwise.
func RuleText(r model.TriggerRule) string {
	if r.IsKeyword() {
		return model.CommandMarker + r.Pattern
	}
	return string(model.TriggerAlways)
}

// Rule formats a trigger rule: always-active rules are dimmed and keyword
// rules are highlighted.
func Rule(r model.TriggerRule) string {
	return ruleColor(r)(RuleText(r))
}

// RuleCell is Rule padded to width, for table columns.
func RuleCell(r model.TriggerRule, width int) string {
	return ruleColor(r)(Pad(RuleText(r), width))
}

func ruleColor(r model.TriggerRule) func(a ...any) string {
	if r.IsKeyword() {
		return Info
	}
	return Dim
}

// DisableColors disables all color output.
// This is useful for piping output or for users who prefer no colors.
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled returns whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}

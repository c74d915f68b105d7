package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skilltrigger/internal/config"
	"github.com/klauern/skilltrigger/internal/loader"
	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/ui"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, json (default from config)",
	}
}

// outputFormat returns the --format flag, falling back to config.
func outputFormat(ctx context.Context, cmd *cli.Command) (string, error) {
	format := cmd.String("format")
	if format == "" {
		format = configFrom(ctx).Output.Format
	}
	switch format {
	case config.FormatTable, config.FormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use table or json)", format)
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Load every skill and list them by scope",
		Description: `Run a load pass over the configured roots and plugins and list the
   registered skills with their triggers. Documents that were skipped or
   displaced are reported as warnings on stderr.

   Examples:
     skilltrigger list
     skilltrigger list --scope knowledge --format json
     skilltrigger list --root ./skills --root knowledge=~/kb`,
		Flags: append(loadFlags(),
			formatFlag(),
			&cli.StringFlag{
				Name:    "scope",
				Aliases: []string{"s"},
				Usage:   "Only list skills in this scope",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}

			scopes := model.AllScopes()
			if s := cmd.String("scope"); s != "" {
				scope, err := model.ParseScope(s)
				if err != nil {
					return err
				}
				scopes = []model.Scope{scope}
			}

			report, err := runLoad(ctx, cmd, format == config.FormatTable && ui.IsTerminal(os.Stderr))
			if err != nil {
				return err
			}

			if format == config.FormatJSON {
				return outputListJSON(stdout(cmd), report, scopes)
			}
			return outputListTable(stdout(cmd), report, scopes)
		},
	}
}

// skillEntry is the JSON form of a registered skill.
type skillEntry struct {
	Name        string      `json:"name"`
	Scope       model.Scope `json:"scope"`
	Trigger     string      `json:"trigger,omitempty"`
	Description string      `json:"description,omitempty"`
	Path        string      `json:"path"`
}

// warningEntry is the JSON form of a load warning.
type warningEntry struct {
	Kind    model.WarningKind `json:"kind"`
	Path    string            `json:"path"`
	Scope   model.Scope       `json:"scope,omitempty"`
	Skill   string            `json:"skill,omitempty"`
	Message string            `json:"message"`
}

type listOutput struct {
	Skills   []skillEntry   `json:"skills"`
	Warnings []warningEntry `json:"warnings"`
	Plugins  []string       `json:"plugins,omitempty"`
}

func newSkillEntry(s model.Skill) skillEntry {
	e := skillEntry{
		Name:        s.Name(),
		Scope:       s.Scope(),
		Description: s.Metadata.Description,
		Path:        s.Path,
	}
	if r := s.Rule(); r.IsKeyword() {
		e.Trigger = r.Pattern
	}
	return e
}

func newWarningEntries(warnings []model.Warning) []warningEntry {
	entries := make([]warningEntry, 0, len(warnings))
	for _, w := range warnings {
		entries = append(entries, warningEntry{
			Kind:    w.Kind,
			Path:    w.Path,
			Scope:   w.Scope,
			Skill:   w.Skill,
			Message: w.Message(),
		})
	}
	return entries
}

func outputListJSON(w io.Writer, report *loader.Report, scopes []model.Scope) error {
	out := listOutput{
		Skills:   []skillEntry{},
		Warnings: newWarningEntries(report.Warnings),
		Plugins:  report.Plugins,
	}
	for _, s := range report.Registry.All() {
		if slices.Contains(scopes, s.Scope()) {
			out.Skills = append(out.Skills, newSkillEntry(s))
		}
	}

	return writeJSON(w, out)
}

func outputListTable(w io.Writer, report *loader.Report, scopes []model.Scope) error {
	width := writerWidth(w)
	nameWidth, triggerWidth := 30, 24
	descWidth := max(width-nameWidth-triggerWidth-2, 20)

	total := 0
	for _, scope := range scopes {
		skills := report.Registry.AllInScope(scope)
		if len(skills) == 0 {
			continue
		}
		if total > 0 {
			_, _ = fmt.Fprintln(w)
		}
		total += len(skills)

		_, _ = fmt.Fprintf(w, "%s %s\n", ui.Heading(ui.ScopeTitle(scope)), ui.Dim(fmt.Sprintf("(%d)", len(skills))))
		_, _ = fmt.Fprintf(w, "%s %s %s\n",
			ui.Header(ui.Pad("NAME", nameWidth)),
			ui.Header(ui.Pad("TRIGGER", triggerWidth)),
			ui.Header("DESCRIPTION"))

		for _, s := range skills {
			_, _ = fmt.Fprintf(w, "%s %s %s\n",
				ui.Pad(s.Name(), nameWidth),
				ui.RuleCell(s.Rule(), triggerWidth),
				ui.Truncate(s.Metadata.Description, descWidth))
		}
	}

	if total == 0 {
		_, _ = fmt.Fprintln(w, "No skills found.")
		return nil
	}

	_, _ = fmt.Fprintf(w, "\nTotal: %d skill(s)", total)
	if n := len(report.Warnings); n > 0 {
		_, _ = fmt.Fprintf(w, ", %s", ui.Warning(fmt.Sprintf("%d warning(s)", n)))
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// writerWidth returns the terminal width when w is a terminal.
func writerWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		return ui.TerminalWidth(f, ui.DefaultWidth)
	}
	return ui.DefaultWidth
}

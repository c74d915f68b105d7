package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skilltrigger/internal/activation"
	"github.com/klauern/skilltrigger/internal/config"
	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/similarity"
	"github.com/klauern/skilltrigger/internal/trigger"
	"github.com/klauern/skilltrigger/internal/ui"
)

// messageText joins the command arguments into the message to resolve.
// A single "-" reads the message from stdin.
func messageText(cmd *cli.Command, stdin io.Reader) (string, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s requires a message", errUsage, cmd.Name)
	}
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read message from stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func matchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Show which keyword triggers a message fires",
		UsageText: "skilltrigger match [options] <message...>",
		Description: `Parse the message as a command and look up keyword-triggered skills
   whose pattern equals the command token. Unknown commands get
   suggestions for close matches. Always-active skills are counted but
   not listed; use 'resolve' to see everything that applies.

   Examples:
     skilltrigger match /city-weather:now Tokyo
     echo "/deploy prod" | skilltrigger match -`,
		Flags: append(loadFlags(), formatFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}
			text, err := messageText(cmd, os.Stdin)
			if err != nil {
				return err
			}

			report, err := runLoad(ctx, cmd, false)
			if err != nil {
				return err
			}

			command, isCommand := trigger.ParseCommand(text)
			matches := report.Index.MatchKeyword(text)
			always := report.Index.AlwaysActive()
			var suggestions []similarity.Suggestion
			if isCommand && len(matches) == 0 {
				suggestions = similarity.Suggester{Limit: 3}.Suggest(command.Name, report.Index.Patterns())
			}

			if format == config.FormatJSON {
				out := matchOutput{
					Matches:      make([]matchEntry, 0, len(matches)),
					AlwaysActive: make([]string, 0, len(always)),
					Suggestions:  suggestions,
				}
				if isCommand {
					out.Command = &command
				}
				for _, m := range matches {
					out.Matches = append(out.Matches, matchEntry{
						Name:      m.Skill.Name(),
						Scope:     m.Skill.Scope(),
						Trigger:   m.Skill.Rule().Pattern,
						Arguments: m.Arguments,
					})
				}
				for _, s := range always {
					out.AlwaysActive = append(out.AlwaysActive, s.Key())
				}
				return writeJSON(stdout(cmd), out)
			}

			w := stdout(cmd)
			switch {
			case !isCommand:
				_, _ = fmt.Fprintln(w, ui.StatusSkipped("Not a command; no keyword trigger can match."))
			case len(matches) == 0:
				_, _ = fmt.Fprintln(w, ui.StatusSkipped(fmt.Sprintf("No skill is triggered by %s", model.CommandMarker+command.Name)))
				for _, s := range suggestions {
					_, _ = fmt.Fprintf(w, "  did you mean %s?\n", ui.Info(model.CommandMarker+s.Name))
				}
			default:
				for _, m := range matches {
					line := fmt.Sprintf("%s %s %s", ui.Bold(m.Skill.Name()), ui.Dim("in"), ui.Scope(m.Skill.Scope()))
					if m.Arguments != "" {
						line += fmt.Sprintf(" %s %q", ui.Dim("with"), m.Arguments)
					}
					_, _ = fmt.Fprintln(w, ui.StatusSuccess(line))
				}
			}
			_, _ = fmt.Fprintln(w, ui.Dim(fmt.Sprintf("%d always-active skill(s) also apply", len(always))))
			return nil
		},
	}
}

type matchEntry struct {
	Name      string      `json:"name"`
	Scope     model.Scope `json:"scope"`
	Trigger   string      `json:"trigger"`
	Arguments string      `json:"arguments"`
}

type matchOutput struct {
	Command      *trigger.Command        `json:"command"`
	Matches      []matchEntry            `json:"matches"`
	AlwaysActive []string                `json:"always_active"`
	Suggestions  []similarity.Suggestion `json:"suggestions,omitempty"`
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Print the skill content a message would merge into context",
		UsageText: "skilltrigger resolve [options] <message...>",
		Description: `Resolve a message against the loaded skills: every always-active skill,
   then every keyword-triggered skill whose pattern matches, with
   $ARGUMENTS replaced by the text after the command.

   Examples:
     skilltrigger resolve /city-weather:now Tokyo
     skilltrigger resolve --format json "hello"`,
		Flags: append(loadFlags(),
			formatFlag(),
			&cli.BoolFlag{
				Name:  "triggered-only",
				Usage: "Omit always-active skills",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}
			text, err := messageText(cmd, os.Stdin)
			if err != nil {
				return err
			}

			report, err := runLoad(ctx, cmd, false)
			if err != nil {
				return err
			}

			acts := activation.Resolve(report.Index, text)
			if cmd.Bool("triggered-only") {
				acts = activation.Triggered(acts)
			}
			return outputActivations(stdout(cmd), format, acts)
		},
	}
}

type activationEntry struct {
	Name      string      `json:"name"`
	Scope     model.Scope `json:"scope"`
	Triggered bool        `json:"triggered"`
	Arguments string      `json:"arguments,omitempty"`
	Body      string      `json:"body"`
}

func outputActivations(w io.Writer, format string, acts []activation.Activation) error {
	if format == config.FormatJSON {
		entries := make([]activationEntry, 0, len(acts))
		for _, a := range acts {
			entries = append(entries, activationEntry{
				Name:      a.Skill.Name(),
				Scope:     a.Skill.Scope(),
				Triggered: a.Triggered,
				Arguments: a.Arguments,
				Body:      a.Body,
			})
		}
		return writeJSON(w, entries)
	}

	if len(acts) == 0 {
		_, _ = fmt.Fprintln(w, ui.StatusSkipped("No skills apply."))
		return nil
	}

	// Piped output gets the mergeable form.
	f, ok := w.(*os.File)
	if !ok || !ui.IsTerminal(f) || !ui.IsColorEnabled() {
		_, _ = fmt.Fprintln(w, activation.Render(acts))
		return nil
	}

	width := ui.TerminalWidth(f, ui.DefaultWidth)
	for _, a := range acts {
		title := fmt.Sprintf("%s  %s  %s", a.Skill.Name(), ui.Scope(a.Skill.Scope()), ui.Rule(a.Skill.Rule()))
		_, _ = fmt.Fprintln(w, ui.Box(title, a.Body, width))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

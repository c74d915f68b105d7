package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skilltrigger/internal/config"
	"github.com/klauern/skilltrigger/internal/plugin"
	"github.com/klauern/skilltrigger/internal/source"
	"github.com/klauern/skilltrigger/internal/ui"
	"github.com/klauern/skilltrigger/internal/util"
)

func pluginCommand() *cli.Command {
	return &cli.Command{
		Name:    "plugin",
		Aliases: []string{"plugins"},
		Usage:   "Inspect plugin sources",
		Description: `Plugins bundle commands, skills and agents in a single directory or
   git repository. Configured sources are loaded alongside the skill
   roots on every load pass.

   Examples:
     skilltrigger plugin list
     skilltrigger plugin fetch github:owner/repo//plugins/city-weather#main`,
		Commands: []*cli.Command{
			pluginListCommand(),
			pluginFetchCommand(),
		},
	}
}

func pluginListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List configured plugin sources",
		Flags:   []cli.Flag{formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}
			cfg := configFrom(ctx)
			sources, err := cfg.PluginSources()
			if err != nil {
				return err
			}

			if format == config.FormatJSON {
				if sources == nil {
					sources = []plugin.Source{}
				}
				return writeJSON(stdout(cmd), sources)
			}

			w := stdout(cmd)
			switch {
			case !cfg.Plugins.Enabled:
				_, _ = fmt.Fprintln(w, ui.StatusSkipped("Plugins are disabled."))
			case len(sources) == 0:
				_, _ = fmt.Fprintln(w, "No plugin sources configured.")
			default:
				for _, src := range sources {
					kind := "local"
					if src.IsRemote() {
						kind = "git"
					}
					_, _ = fmt.Fprintf(w, "%s %s\n", ui.Pad(src.String(), 60), ui.Dim(kind))
				}
			}
			return nil
		},
	}
}

type pluginEntry struct {
	Source    string `json:"source"`
	Name      string `json:"name"`
	Dir       string `json:"dir"`
	Version   string `json:"version,omitempty"`
	Documents int    `json:"documents"`
}

func pluginFetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch plugin sources and show what they provide",
		UsageText: "skilltrigger plugin fetch [options] <source...>",
		Flags:     []cli.Flag{formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("%w: fetch requires at least one source", errUsage)
			}

			cfg := configFrom(ctx)
			fetcher := plugin.NewFetcher(util.ExpandPath(cfg.Plugins.Dir))
			fetcher.Stderr = io.Discard
			if verbose(cmd, cfg) {
				fetcher.Stderr = stderr(cmd)
			}
			readOpts := []source.Option{
				source.WithExtensions(cfg.Load.Extensions...),
				source.WithIgnore(cfg.Load.Ignore...),
			}

			entries := []pluginEntry{}
			for _, raw := range cmd.Args().Slice() {
				src, err := plugin.ParseSource(raw)
				if err != nil {
					return err
				}
				dir, err := fetcher.Fetch(ctx, src)
				if err != nil {
					return err
				}
				plugins, warnings, err := plugin.LoadAll(ctx, dir, readOpts...)
				if err != nil {
					return err
				}
				printWarnings(stderr(cmd), warnings)
				for _, p := range plugins {
					entries = append(entries, pluginEntry{
						Source:    src.String(),
						Name:      p.Name,
						Dir:       p.Dir,
						Version:   p.Manifest.Version,
						Documents: len(p.Documents),
					})
				}
			}

			if format == config.FormatJSON {
				return writeJSON(stdout(cmd), entries)
			}
			w := stdout(cmd)
			for _, e := range entries {
				_, _ = fmt.Fprintln(w, ui.StatusSuccess(fmt.Sprintf("%s %s %d document(s) from %s",
					ui.Bold(e.Name), ui.Dim("with"), e.Documents, e.Source)))
			}
			return nil
		},
	}
}

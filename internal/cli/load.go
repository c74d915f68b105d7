package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skilltrigger/internal/cache"
	"github.com/klauern/skilltrigger/internal/config"
	"github.com/klauern/skilltrigger/internal/loader"
	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/plugin"
	"github.com/klauern/skilltrigger/internal/progress"
	"github.com/klauern/skilltrigger/internal/source"
	"github.com/klauern/skilltrigger/internal/ui"
	"github.com/klauern/skilltrigger/internal/util"
)

// loadFlags are shared by every command that runs a load pass.
func loadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Project directory relative roots are resolved against (default: working directory)",
		},
		&cli.StringSliceFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Skill root as [scope=]path; replaces configured roots (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:    "plugin",
			Aliases: []string{"p"},
			Usage:   "Additional plugin source, e.g. github:owner/repo//plugins/name#main (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "no-plugins",
			Usage: "Skip plugin loading",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Parse every document instead of using the parse cache",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Fail when a configured root does not exist",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Bound the load pass (default from config)",
		},
	}
}

// loadOptions builds loader options from config and flags.
func loadOptions(cmd *cli.Command, cfg *config.Config) (loader.Options, error) {
	baseDir := cmd.String("dir")
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return loader.Options{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	opts := loader.Options{
		Roots:      cfg.Roots(baseDir),
		PluginDir:  util.ExpandPath(cfg.Plugins.Dir),
		Extensions: cfg.Load.Extensions,
		Ignore:     cfg.Load.Ignore,
		Workers:    cfg.Load.Workers,
		Timeout:    cfg.Load.Timeout,
	}
	if cmd.Bool("strict") {
		for i := range opts.Roots {
			opts.Roots[i].Optional = false
		}
	}
	if cmd.IsSet("timeout") {
		opts.Timeout = cmd.Duration("timeout")
	}

	if flagRoots := cmd.StringSlice("root"); len(flagRoots) > 0 {
		roots, err := parseRoots(flagRoots, baseDir)
		if err != nil {
			return loader.Options{}, err
		}
		opts.Roots = roots
	}

	if !cmd.Bool("no-plugins") {
		sources, err := cfg.PluginSources()
		if err != nil {
			return loader.Options{}, err
		}
		for _, raw := range cmd.StringSlice("plugin") {
			src, err := plugin.ParseSource(raw)
			if err != nil {
				return loader.Options{}, err
			}
			sources = append(sources, src)
		}
		opts.Plugins = sources
	}

	if cfg.Cache.Enabled && !cmd.Bool("no-cache") {
		c, err := cache.New(util.ExpandPath(cfg.Cache.Location))
		if err != nil {
			// Parse everything when the cache cannot be opened.
			logging.Warn("parse cache unavailable", logging.Err(err))
		} else {
			if n := c.Expire(cfg.Cache.TTL); n > 0 {
				logging.Debug("expired parse cache entries", logging.Count(n))
			}
			opts.Cache = c
		}
	}

	return opts, nil
}

// parseRoots parses --root values of the form [scope=]path. Named roots
// are always required.
func parseRoots(values []string, baseDir string) ([]loader.Root, error) {
	roots := make([]loader.Root, 0, len(values))
	for _, v := range values {
		scope := model.ScopeRepository
		path := v
		if name, rest, ok := strings.Cut(v, "="); ok {
			parsed, err := model.ParseScope(name)
			if err != nil {
				return nil, fmt.Errorf("invalid --root %q: %w", v, err)
			}
			scope, path = parsed, rest
		}
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("invalid --root %q: empty path", v)
		}
		roots = append(roots, loader.Root{Path: util.ResolvePath(path, baseDir), Scope: scope})
	}
	return roots, nil
}

// runLoad runs a load pass with a progress indicator on interactive
// terminals, prints warnings, and returns the report.
func runLoad(ctx context.Context, cmd *cli.Command, showProgress bool) (*loader.Report, error) {
	cfg := configFrom(ctx)
	opts, err := loadOptions(cmd, cfg)
	if err != nil {
		return nil, err
	}

	if showProgress {
		popts := progress.DefaultOptions()
		popts.Writer = stderr(cmd)
		opts.Progress = progress.New(popts)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = plugin.NewFetcher(opts.PluginDir)
		opts.Fetcher.Stderr = io.Discard
		if verbose(cmd, cfg) {
			opts.Fetcher.Stderr = stderr(cmd)
		}
	}

	report, err := loader.Load(ctx, opts)
	if report != nil {
		printWarnings(stderr(cmd), report.Warnings)
	}
	if err != nil {
		if errors.Is(err, source.ErrSourceTimeout) {
			return report, fmt.Errorf("loading skills timed out after %s: %w", opts.Timeout, err)
		}
		return report, err
	}

	logging.Info("skills loaded",
		logging.Count(report.Registry.Len()),
		logging.Warnings(len(report.Warnings)),
		logging.Duration(report.Duration),
	)
	return report, nil
}

func printWarnings(w io.Writer, warnings []model.Warning) {
	for _, warn := range warnings {
		_, _ = fmt.Fprintln(w, ui.StatusWarning(warn.Error()))
	}
}

// verbose reports whether --verbose, --debug, or output.verbose is set.
func verbose(cmd *cli.Command, cfg *config.Config) bool {
	return cmd.Bool("verbose") || cmd.Bool("debug") || cfg.Output.Verbose
}

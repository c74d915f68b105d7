// Package cli provides the command-line interface for skilltrigger.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skilltrigger/internal/config"
	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	return newApp().Run(ctx, args)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "skilltrigger",
		Usage:   "Load agent skills and resolve which ones a message activates",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file (default: ~/.skilltrigger/config.yaml)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			if err := configureLogging(cmd, cfg); err != nil {
				return ctx, err
			}
			configureColors(cmd, cfg)
			return withConfig(ctx, cfg), nil
		},
		Commands: []*cli.Command{
			versionCommand(),
			configCommand(),
			listCommand(),
			matchCommand(),
			resolveCommand(),
			watchCommand(),
			pluginCommand(),
			cacheCommand(),
		},
	}
}

// configureColors sets up color output based on CLI flags and config.
func configureColors(cmd *cli.Command, cfg *config.Config) {
	switch {
	case cmd.Bool("no-color"), cfg.Output.Color == config.ColorNever:
		ui.DisableColors()
	case cfg.Output.Color == config.ColorAlways:
		ui.EnableColors()
	}
}

// configureLogging sets up the logging level from CLI flags, the
// environment, and output.verbose, in that order of precedence.
func configureLogging(cmd *cli.Command, cfg *config.Config) error {
	opts := logging.DefaultOptions()
	opts.Output = cmd.Root().ErrWriter
	opts.JSON = os.Getenv("SKILLTRIGGER_LOG_FORMAT") == "json"
	if env := os.Getenv("SKILLTRIGGER_LOG_LEVEL"); env != "" {
		level, err := logging.ParseLevel(env)
		if err != nil {
			return fmt.Errorf("invalid SKILLTRIGGER_LOG_LEVEL: %w", err)
		}
		opts.Level = level
	} else if cfg.Output.Verbose {
		opts.Level = slog.LevelInfo
	}

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadOrDefault(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the config loaded by the root command, or defaults.
func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func stdout(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

func stderr(cmd *cli.Command) io.Writer {
	return cmd.Root().ErrWriter
}

// errUsage marks argument errors.
var errUsage = errors.New("usage")

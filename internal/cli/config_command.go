package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/skilltrigger/internal/config"
	"github.com/klauern/skilltrigger/internal/ui"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect or initialize the configuration",
		Description: `Show the effective configuration (file, defaults and SKILLTRIGGER_*
   environment overrides merged), print the config file path, or write a
   default config file.

   Examples:
     skilltrigger config show
     skilltrigger config init --force`,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration as YAML",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					data, err := yaml.Marshal(configFrom(ctx))
					if err != nil {
						return fmt.Errorf("failed to encode config: %w", err)
					}
					_, err = stdout(cmd).Write(data)
					return err
				},
			},
			{
				Name:  "path",
				Usage: "Print the config file path",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, _ = fmt.Fprintln(stdout(cmd), configPath(cmd))
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write a config file with the default settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := configPath(cmd)
					_, err := os.Stat(path)
					switch {
					case err == nil && !cmd.Bool("force"):
						return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
					case err != nil && !errors.Is(err, os.ErrNotExist):
						return err
					}

					if err := config.Default().SaveToPath(path); err != nil {
						return fmt.Errorf("failed to write config: %w", err)
					}
					_, _ = fmt.Fprintln(stdout(cmd), ui.StatusSuccess("Wrote "+path))
					return nil
				},
			},
		},
	}
}

// configPath returns the --config path or the default location.
func configPath(cmd *cli.Command) string {
	if path := cmd.Root().String("config"); path != "" {
		return path
	}
	return config.FilePath()
}

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skilltrigger/internal/cache"
	"github.com/klauern/skilltrigger/internal/ui"
	"github.com/klauern/skilltrigger/internal/util"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the parse cache",
		Commands: []*cli.Command{
			{
				Name:  "info",
				Usage: "Show the cache location and entry count",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					c, err := openCache(ctx)
					if err != nil {
						return err
					}
					w := stdout(cmd)
					_, _ = fmt.Fprintf(w, "%s %s\n", ui.Bold("Path:"), c.Path())
					_, _ = fmt.Fprintf(w, "%s %d\n", ui.Bold("Entries:"), c.Size())
					_, _ = fmt.Fprintf(w, "%s %s\n", ui.Bold("TTL:"), configFrom(ctx).Cache.TTL)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Remove every cached parse result",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					c, err := openCache(ctx)
					if err != nil {
						return err
					}
					n := c.Size()
					if err := c.Clear(); err != nil {
						return fmt.Errorf("failed to clear cache: %w", err)
					}
					_, _ = fmt.Fprintln(stdout(cmd), ui.StatusSuccess(fmt.Sprintf("Removed %d cache entries", n)))
					return nil
				},
			},
		},
	}
}

func openCache(ctx context.Context) (*cache.Cache, error) {
	c, err := cache.New(util.ExpandPath(configFrom(ctx).Cache.Location))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return c, nil
}

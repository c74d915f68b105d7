package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skilltrigger/internal/loader"
	"github.com/klauern/skilltrigger/internal/snapshot"
	"github.com/klauern/skilltrigger/internal/ui"
	"github.com/klauern/skilltrigger/internal/util"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Reload skills on change and resolve messages read from stdin",
		Description: `Load the skills, then watch every root for changes and reload in the
   background. Each line read from stdin is resolved against the newest
   complete load; a failed reload keeps the previous skills.

   Examples:
     skilltrigger watch
     skilltrigger watch --debounce 1s --root ./skills`,
		Flags: append(loadFlags(),
			formatFlag(),
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Wait this long for changes to settle (default from config)",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}

			cfg := configFrom(ctx)
			opts, err := loadOptions(cmd, cfg)
			if err != nil {
				return err
			}

			store := snapshot.NewStore(func(ctx context.Context) (*loader.Report, error) {
				return runLoad(ctx, cmd, false)
			})
			snap, err := store.Reload(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stderr(cmd), ui.StatusSuccess(fmt.Sprintf("Loaded %d skill(s)", snap.Report.Registry.Len())))

			debounce := cfg.Watch.Debounce
			if cmd.IsSet("debounce") {
				debounce = cmd.Duration("debounce")
			}
			watcher := snapshot.NewWatcher(store, watchDirs(opts), debounce)
			watcher.OnReload = func(s *snapshot.Snapshot, err error) {
				if err != nil {
					_, _ = fmt.Fprintln(stderr(cmd), ui.StatusError(fmt.Sprintf("Reload failed, keeping generation %d: %v", s.Generation, err)))
					return
				}
				_, _ = fmt.Fprintln(stderr(cmd), ui.StatusSuccess(fmt.Sprintf("Reloaded %d skill(s) (generation %d)", s.Report.Registry.Len(), s.Generation)))
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			errc := make(chan error, 1)
			go func() { errc <- watcher.Run(ctx) }()

			if err := resolveLines(ctx, os.Stdin, stdout(cmd), format, store); err != nil {
				return err
			}

			// Stdin is exhausted; keep reloading until interrupted.
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				return <-errc
			}
		},
	}
}

// watchDirs returns the roots and local plugin directories to watch.
func watchDirs(opts loader.Options) []string {
	dirs := make([]string, 0, len(opts.Roots)+len(opts.Plugins))
	for _, r := range opts.Roots {
		dirs = append(dirs, r.Path)
	}
	for _, p := range opts.Plugins {
		if !p.IsRemote() {
			dirs = append(dirs, filepath.Join(util.ExpandPath(p.Source), p.RepoPath))
		}
	}
	return dirs
}

// resolveLines resolves each non-empty line of r against the current
// snapshot until r is exhausted or ctx is done.
func resolveLines(ctx context.Context, r io.Reader, w io.Writer, format string, store *snapshot.Store) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		acts, err := store.Resolve(line)
		if err != nil {
			return err
		}
		if err := outputActivations(w, format, acts); err != nil {
			return err
		}
	}
	return scanner.Err()
}

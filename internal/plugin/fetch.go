package plugin

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/util"
)

// Fetcher materializes plugin sources on disk, cloning remote repositories
// into CacheDir.
type Fetcher struct {
	CacheDir string
	// Git is the git executable. Defaults to "git".
	Git string
	// Stderr receives git's progress output. Nil discards it.
	Stderr io.Writer
}

// NewFetcher creates a fetcher. An empty cacheDir uses the default plugins
// directory.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = util.PluginsDir()
	}
	return &Fetcher{CacheDir: cacheDir, Git: "git"}
}

// Fetch returns the local plugin directory for src. Remote sources are
// shallow-cloned on first use and fast-forwarded afterwards; a failed pull
// falls back to the existing clone.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (string, error) {
	if err := src.Validate(); err != nil {
		return "", err
	}

	var repoDir string
	if src.IsRemote() {
		var err error
		repoDir, err = f.ensureRepo(ctx, src)
		if err != nil {
			return "", err
		}
	} else {
		repoDir = util.ExpandPath(src.Source)
	}

	dir := repoDir
	if src.RepoPath != "" {
		dir = filepath.Join(repoDir, filepath.FromSlash(src.RepoPath))
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("plugin directory for %s: %w", src, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("plugin directory for %s: %q is not a directory", src, dir)
	}

	return dir, nil
}

// ensureRepo ensures the repository is cloned and up to date
func (f *Fetcher) ensureRepo(ctx context.Context, src Source) (string, error) {
	if err := os.MkdirAll(f.CacheDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create plugins directory: %w", err)
	}

	repoPath := filepath.Join(f.CacheDir, src.CacheName())

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		if err := f.git(ctx, "-C", repoPath, "pull", "--ff-only"); err != nil {
			logging.Debug("git pull failed, using existing clone",
				logging.Path(repoPath),
				logging.Err(err),
			)
		}
		return repoPath, nil
	}

	args := []string{"clone", "--depth", "1"}
	if src.Ref != "" {
		args = append(args, "--branch", src.Ref)
	}
	args = append(args, src.CloneURL(), repoPath)

	logging.Info("cloning plugin repository",
		logging.Plugin(src.String()),
		logging.Path(repoPath),
	)

	if err := f.git(ctx, args...); err != nil {
		return "", fmt.Errorf("failed to clone %s: %w", src.CloneURL(), err)
	}

	return repoPath, nil
}

func (f *Fetcher) git(ctx context.Context, args ...string) error {
	bin := f.Git
	if bin == "" {
		bin = "git"
	}
	// #nosec G204 - arguments come from configured plugin sources
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = f.Stderr
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd.Run()
}

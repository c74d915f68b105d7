package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

type walkFunc func(path string, info os.FileInfo) error

// walkErrFunc receives a path that could not be resolved or listed. The
// walk continues with the next entry.
type walkErrFunc func(path string, err error)

// walkFollowSymlinks walks a directory tree, following symlinks to directories.
// It detects and avoids cycles by tracking visited real paths. Returning
// filepath.SkipDir from walkFn for a directory skips its contents.
func walkFollowSymlinks(root string, walkFn walkFunc, errFn walkErrFunc) error {
	visited := make(map[string]bool)
	return walkFollowSymlinksImpl(root, visited, walkFn, errFn)
}

func walkFollowSymlinksImpl(path string, visited map[string]bool, walkFn walkFunc, errFn walkErrFunc) error {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		// Dangling links are skipped.
		if !errors.Is(err, fs.ErrNotExist) {
			errFn(path, err)
		}
		return nil
	}

	if visited[realPath] {
		return nil
	}
	visited[realPath] = true

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			errFn(path, err)
		}
		return nil
	}

	if err := walkFn(path, info); err != nil {
		if errors.Is(err, filepath.SkipDir) && info.IsDir() {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		errFn(path, err)
		// ReadDir may return the entries it read before failing.
	}

	for _, entry := range entries {
		if err := walkFollowSymlinksImpl(filepath.Join(path, entry.Name()), visited, walkFn, errFn); err != nil {
			return err
		}
	}

	return nil
}

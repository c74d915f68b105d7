package plugin

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidSource is returned for plugin sources that cannot be parsed.
var ErrInvalidSource = errors.New("invalid plugin source")

const githubPrefix = "github:"

// Source locates a plugin: a git repository (optionally pinned to a ref
// and narrowed to a subdirectory) or a local directory.
type Source struct {
	// Source is "github:owner/repo", a git URL, or a local path.
	Source string `yaml:"source" json:"source"`
	// Ref is a branch or tag to check out. Empty means the default branch.
	Ref string `yaml:"ref,omitempty" json:"ref,omitempty"`
	// RepoPath is the plugin directory inside the repository.
	RepoPath string `yaml:"repo_path,omitempty" json:"repo_path,omitempty"`
}

// ParseSource parses a source string. A trailing "#ref" selects a ref and
// a "//subdir" after the repository selects RepoPath, e.g.
// "github:owner/repo//plugins/city-weather#main".
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, fmt.Errorf("%w: empty", ErrInvalidSource)
	}

	var src Source
	if i := strings.LastIndex(raw, "#"); i >= 0 {
		raw, src.Ref = raw[:i], raw[i+1:]
	}

	if isRemote(raw) {
		// Skip the scheme separator before looking for a subdirectory.
		searchFrom := 0
		if i := strings.Index(raw, "://"); i >= 0 {
			searchFrom = i + 3
		}
		if i := strings.Index(raw[searchFrom:], "//"); i >= 0 {
			raw, src.RepoPath = raw[:searchFrom+i], raw[searchFrom+i+2:]
		}
	}
	src.Source = raw

	return src, src.Validate()
}

// Validate checks the source fields.
func (s Source) Validate() error {
	if s.Source == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSource)
	}
	if strings.HasPrefix(s.Source, githubPrefix) {
		parts := strings.Split(strings.TrimPrefix(s.Source, githubPrefix), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("%w: %q must be github:owner/repo", ErrInvalidSource, s.Source)
		}
	}
	if s.RepoPath != "" && !filepath.IsLocal(s.RepoPath) {
		return fmt.Errorf("%w: repo path %q must be relative and stay inside the repository", ErrInvalidSource, s.RepoPath)
	}
	return nil
}

// IsRemote reports whether the source must be fetched with git.
func (s Source) IsRemote() bool {
	return isRemote(s.Source)
}

// CloneURL returns the URL passed to git clone.
func (s Source) CloneURL() string {
	if rest, ok := strings.CutPrefix(s.Source, githubPrefix); ok {
		return "https://github.com/" + rest + ".git"
	}
	return s.Source
}

// CacheName returns the directory name used for the clone.
func (s Source) CacheName() string {
	name := deriveRepoName(s.CloneURL())
	if s.Ref != "" {
		name += "@" + sanitize(s.Ref)
	}
	return name
}

// String formats the source in the form accepted by ParseSource.
func (s Source) String() string {
	out := s.Source
	if s.RepoPath != "" {
		out += "//" + s.RepoPath
	}
	if s.Ref != "" {
		out += "#" + s.Ref
	}
	return out
}

func isRemote(raw string) bool {
	for _, prefix := range []string{githubPrefix, "https://", "http://", "ssh://", "git@", "file://"} {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

// deriveRepoName extracts an owner-repo name from a Git URL
func deriveRepoName(url string) string {
	// Handle SSH URLs (git@github.com:user/repo.git)
	if strings.HasPrefix(url, "git@") {
		parts := strings.Split(url, ":")
		if len(parts) == 2 {
			return strings.ReplaceAll(strings.TrimSuffix(parts[1], ".git"), "/", "-")
		}
	}

	url = strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	parts := strings.Split(url, "/")
	if len(parts) >= 2 && parts[len(parts)-2] != "" {
		return parts[len(parts)-2] + "-" + parts[len(parts)-1]
	}
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}

	return "unknown"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

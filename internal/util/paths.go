//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the skilltrigger data directory.
const HomeEnv = "SKILLTRIGGER_HOME"

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// SkilltriggerHome returns the directory holding config, caches, and
// fetched plugins. SKILLTRIGGER_HOME wins over ~/.skilltrigger.
func SkilltriggerHome() string {
	if v := os.Getenv(HomeEnv); v != "" {
		return ExpandPath(v)
	}
	return filepath.Join(HomeDir(), ".skilltrigger")
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(SkilltriggerHome(), "config.yaml")
}

// PluginsDir returns where fetched plugin repositories are cloned.
func PluginsDir() string {
	return filepath.Join(SkilltriggerHome(), "plugins")
}

// CacheDir returns where the parse cache is stored.
func CacheDir() string {
	return filepath.Join(SkilltriggerHome(), "cache")
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) string {
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	return path
}

// ResolvePath expands ~ and makes relative paths absolute against baseDir.
func ResolvePath(path, baseDir string) string {
	path = ExpandPath(strings.TrimSpace(path))
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(baseDir, path))
}

package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	manifestDir         = ".claude-plugin"
	manifestFile        = "plugin.json"
	marketplaceFile     = "marketplace.json"
	commandsDir         = "commands"
	skillsDir           = "skills"
	skillBundleFileName = "SKILL.md"
)

// Manifest represents a plugin's .claude-plugin/plugin.json file
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Author      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"author"`
}

// MarketplaceManifest represents a .claude-plugin/marketplace.json file
type MarketplaceManifest struct {
	Name     string `json:"name"`
	Metadata struct {
		Description string `json:"description"`
		Version     string `json:"version"`
	} `json:"metadata"`
	Owner struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"owner"`
	Plugins []Entry `json:"plugins"`
}

// Entry references a plugin listed in a marketplace.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Source is either a relative path string or an object describing a
	// remote repository. Only relative paths are loaded from a marketplace.
	Source json.RawMessage `json:"source"`
}

// LocalPath returns the entry's directory relative to the marketplace root.
func (e Entry) LocalPath() (string, bool) {
	var rel string
	if err := json.Unmarshal(e.Source, &rel); err != nil || rel == "" {
		return "", false
	}
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	if rel == "" {
		rel = "."
	}
	if !filepath.IsLocal(filepath.FromSlash(rel)) && rel != "." {
		return "", false
	}
	return filepath.FromSlash(rel), true
}

// ReadManifest reads dir/.claude-plugin/plugin.json.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	if err := readJSON(filepath.Join(dir, manifestDir, manifestFile), &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// ReadMarketplace reads dir/.claude-plugin/marketplace.json.
func ReadMarketplace(dir string) (MarketplaceManifest, error) {
	var m MarketplaceManifest
	if err := readJSON(filepath.Join(dir, manifestDir, marketplaceFile), &m); err != nil {
		return MarketplaceManifest{}, err
	}
	return m, nil
}

// IsPlugin reports whether dir looks like a plugin: it has a manifest or
// a commands or skills directory.
func IsPlugin(dir string) bool {
	for _, p := range []string{
		filepath.Join(dir, manifestDir, manifestFile),
		filepath.Join(dir, commandsDir),
		filepath.Join(dir, skillsDir),
	} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// IsMarketplace reports whether dir has a marketplace manifest.
func IsMarketplace(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, manifestDir, marketplaceFile))
	return err == nil
}

func readJSON(path string, v any) error {
	// #nosec G304 - path is constructed from a trusted plugin directory
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

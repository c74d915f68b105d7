// Package plugin loads Claude-format plugin directories. Command files under
// commands/ become keyword-triggered knowledge skills named
// "plugin:command"; SKILL.md bundles under skills/ become agent skills.
// Remote plugins are fetched with git.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/source"
)

// ErrNotPlugin is returned when a directory has no plugin layout.
var ErrNotPlugin = errors.New("not a plugin directory")

// Plugin is a loaded plugin and its raw skill documents.
type Plugin struct {
	Name     string
	Dir      string
	Manifest Manifest
	// Documents are in load order: commands first, then skills, each in
	// lexical path order.
	Documents []model.SkillDocument
	// Warnings record files that could not be read.
	Warnings []model.Warning
}

// Load reads the plugin in dir. The plugin name comes from its manifest,
// falling back to the directory name. opts are applied to the underlying
// source readers.
func Load(ctx context.Context, dir string, opts ...source.Option) (*Plugin, error) {
	if !IsPlugin(dir) {
		return nil, fmt.Errorf("%w: %q", ErrNotPlugin, dir)
	}

	p := &Plugin{Dir: dir}

	m, err := ReadManifest(dir)
	switch {
	case err == nil:
		p.Manifest = m
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	p.Name = p.Manifest.Name
	if p.Name == "" {
		p.Name = filepath.Base(filepath.Clean(dir))
	}

	commandOpts := append(append([]source.Option(nil), opts...),
		source.WithOriginFunc(func(rel string, base model.Origin) model.Origin {
			base.Plugin = p.Name
			base.Command = commandName(rel)
			return base
		}),
	)
	if err := p.collect(ctx, filepath.Join(dir, commandsDir), model.ScopeKnowledge, commandOpts); err != nil {
		return nil, err
	}

	skillOpts := append(append([]source.Option(nil), opts...),
		source.WithInclude(skillBundleFileName, "**/"+skillBundleFileName),
		source.WithOriginFunc(func(_ string, base model.Origin) model.Origin {
			base.Plugin = p.Name
			return base
		}),
	)
	if err := p.collect(ctx, filepath.Join(dir, skillsDir), model.ScopeAgent, skillOpts); err != nil {
		return nil, err
	}

	logging.Debug("loaded plugin",
		logging.Plugin(p.Name),
		logging.Path(dir),
		logging.Count(len(p.Documents)),
	)

	return p, nil
}

func (p *Plugin) collect(ctx context.Context, root string, scope model.Scope, opts []source.Option) error {
	r, err := source.New(root, scope, opts...)
	if err != nil {
		return err
	}

	docs, unreadable, err := r.ReadAll(ctx)
	if errors.Is(err, source.ErrSourceNotFound) {
		return nil
	}
	p.Documents = append(p.Documents, docs...)
	for _, u := range unreadable {
		p.Warnings = append(p.Warnings, unreadableWarning(u, scope))
	}
	return err
}

// LoadMarketplace loads every locally sourced plugin listed in dir's
// marketplace manifest. Entries that fail to load are reported as warnings.
func LoadMarketplace(ctx context.Context, dir string, opts ...source.Option) ([]*Plugin, []model.Warning, error) {
	m, err := ReadMarketplace(dir)
	if err != nil {
		return nil, nil, err
	}

	logging.Debug("discovered marketplace plugins",
		logging.Path(dir),
		logging.Count(len(m.Plugins)),
	)

	var plugins []*Plugin
	var warnings []model.Warning
	for _, entry := range m.Plugins {
		rel, ok := entry.LocalPath()
		if !ok {
			logging.Debug("skipping non-local marketplace entry", logging.Plugin(entry.Name))
			continue
		}

		pluginDir := filepath.Join(dir, rel)
		p, err := Load(ctx, pluginDir, opts...)
		if err != nil {
			if ctx.Err() != nil {
				return plugins, warnings, err
			}
			logging.Warn("failed to load plugin",
				logging.Plugin(entry.Name),
				logging.Path(pluginDir),
				logging.Err(err),
			)
			warnings = append(warnings, model.Warning{
				Kind: model.WarningUnreadable,
				Path: pluginDir,
				Err:  err,
			})
			continue
		}
		plugins = append(plugins, p)
	}

	return plugins, warnings, nil
}

// LoadAll loads dir as a marketplace, a single plugin, or a directory whose
// immediate children are plugins, in that order of preference.
func LoadAll(ctx context.Context, dir string, opts ...source.Option) ([]*Plugin, []model.Warning, error) {
	if IsMarketplace(dir) {
		return LoadMarketplace(ctx, dir, opts...)
	}

	if IsPlugin(dir) {
		p, err := Load(ctx, dir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return []*Plugin{p}, nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan for plugins: %w", err)
	}

	var plugins []*Plugin
	var warnings []model.Warning
	for _, e := range entries {
		child := filepath.Join(dir, e.Name())
		if !e.IsDir() || !IsPlugin(child) {
			continue
		}
		p, err := Load(ctx, child, opts...)
		if err != nil {
			if ctx.Err() != nil {
				return plugins, warnings, err
			}
			warnings = append(warnings, model.Warning{Kind: model.WarningUnreadable, Path: child, Err: err})
			continue
		}
		plugins = append(plugins, p)
	}

	if len(plugins) == 0 && len(warnings) == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotPlugin, dir)
	}
	return plugins, warnings, nil
}

// commandName turns a commands/ relative path into a command name. Nested
// directories become colon-separated segments: "git/commit.md" is
// "git:commit".
func commandName(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return strings.ReplaceAll(rel, "/", ":")
}

func unreadableWarning(err error, scope model.Scope) model.Warning {
	w := model.Warning{Kind: model.WarningUnreadable, Scope: scope, Err: err}
	var ue *source.UnreadableError
	if errors.As(err, &ue) {
		w.Path = ue.Path
	}
	return w
}

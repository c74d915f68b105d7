// Package loader runs a load pass: it reads skill roots and plugins, parses
// each document, registers the skills, and builds the trigger index.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/klauern/skilltrigger/internal/cache"
	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/parser"
	"github.com/klauern/skilltrigger/internal/plugin"
	"github.com/klauern/skilltrigger/internal/progress"
	"github.com/klauern/skilltrigger/internal/registry"
	"github.com/klauern/skilltrigger/internal/source"
	"github.com/klauern/skilltrigger/internal/trigger"
)

// Root is a directory of skill documents assigned to a scope.
type Root struct {
	Path  string      `yaml:"path" json:"path"`
	Scope model.Scope `yaml:"scope" json:"scope"`
	// Optional roots that do not exist are skipped instead of failing
	// the pass.
	Optional bool `yaml:"-" json:"optional,omitempty"`
}

// Options configures a load pass.
type Options struct {
	// Roots are read in order.
	Roots []Root
	// Plugins are fetched and loaded after all roots.
	Plugins []plugin.Source
	// Fetcher materializes plugin sources. Defaults to plugin.NewFetcher(PluginDir).
	Fetcher *plugin.Fetcher
	// PluginDir is where remote plugins are cloned.
	PluginDir string
	// Extensions, Ignore, and Workers configure every source reader.
	Extensions []string
	Ignore     []string
	Workers    int
	// Timeout bounds the whole pass. Zero means no limit.
	Timeout time.Duration
	// Cache, when set, skips parsing for unchanged documents.
	Cache *cache.Cache
	// Progress receives one step per document.
	Progress progress.Tracker
}

// Report is the result of a load pass.
type Report struct {
	Registry *registry.Registry
	Index    *trigger.Index
	// Warnings lists skipped and displaced documents in the order they
	// were encountered.
	Warnings []model.Warning
	// Loaded counts documents that parsed into skills.
	Loaded int
	// Plugins names the plugins that were loaded.
	Plugins  []string
	Duration time.Duration
}

// Err aggregates the warnings into one error, or returns nil when the load
// was clean.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var result *multierror.Error
	for _, w := range r.Warnings {
		result = multierror.Append(result, w)
	}
	if result != nil {
		result.ErrorFormat = formatWarnings
	}
	return result.ErrorOrNil()
}

func formatWarnings(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  * " + err.Error()
	}
	return fmt.Sprintf("%d skill load warning(s):\n%s", len(errs), strings.Join(lines, "\n"))
}

// Count returns how many warnings have the given kind.
func (r *Report) Count(kind model.WarningKind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

type pass struct {
	opts     Options
	reg      *registry.Registry
	report   *Report
	tracker  progress.Tracker
	seen     map[string]bool
	readOpts []source.Option
}

// Load runs a load pass. A missing root or an expired timeout is a hard
// failure; in the timeout case the returned report still holds everything
// registered and every warning recorded before the deadline. All other
// problems become warnings.
func Load(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	p := &pass{
		opts:    opts,
		reg:     registry.New(),
		report:  &Report{},
		tracker: opts.Progress,
		seen:    make(map[string]bool),
	}
	if p.tracker == nil {
		p.tracker = progress.Nop()
	}
	if len(opts.Extensions) > 0 {
		p.readOpts = append(p.readOpts, source.WithExtensions(opts.Extensions...))
	}
	if opts.Ignore != nil {
		p.readOpts = append(p.readOpts, source.WithIgnore(opts.Ignore...))
	}
	if opts.Workers > 0 {
		p.readOpts = append(p.readOpts, source.WithWorkers(opts.Workers))
	}

	err := p.run(ctx)

	p.report.Registry = p.reg
	p.report.Index = trigger.Build(p.reg)
	p.report.Duration = time.Since(start)
	_ = p.tracker.Finish()

	if err == nil && opts.Cache != nil {
		opts.Cache.Prune(p.seen)
		if saveErr := opts.Cache.Save(); saveErr != nil {
			logging.Warn("failed to save parse cache", logging.Err(saveErr))
		}
	}

	logging.Debug("load pass finished",
		logging.Count(p.report.Loaded),
		logging.Warnings(len(p.report.Warnings)),
		logging.Duration(p.report.Duration),
	)

	return p.report, err
}

func (p *pass) run(ctx context.Context) error {
	for _, root := range p.opts.Roots {
		if err := p.loadRoot(ctx, root); err != nil {
			return err
		}
	}

	if len(p.opts.Plugins) == 0 {
		return nil
	}

	fetcher := p.opts.Fetcher
	if fetcher == nil {
		fetcher = plugin.NewFetcher(p.opts.PluginDir)
	}
	for _, src := range p.opts.Plugins {
		if err := p.loadPlugin(ctx, fetcher, src); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) loadRoot(ctx context.Context, root Root) error {
	scope := root.Scope.OrDefault()
	r, err := source.New(root.Path, scope, p.readOpts...)
	if err != nil {
		return err
	}

	seq, err := r.Documents(ctx)
	if err != nil {
		if errors.Is(err, source.ErrSourceNotFound) && root.Optional {
			logging.Debug("skipping missing optional skill root", logging.Path(root.Path), logging.Scope(string(scope)))
			return nil
		}
		return err
	}

	p.tracker.Describe(fmt.Sprintf("Loading %s skills", scope))
	for doc, docErr := range seq {
		if docErr != nil {
			if errors.Is(docErr, source.ErrSourceTimeout) {
				return docErr
			}
			p.warnUnreadable(docErr, scope)
			continue
		}
		p.process(doc)
	}

	return checkTimeout(ctx)
}

func (p *pass) loadPlugin(ctx context.Context, fetcher *plugin.Fetcher, src plugin.Source) error {
	p.tracker.Describe("Loading plugin " + src.String())

	dir, err := fetcher.Fetch(ctx, src)
	if err != nil {
		if tErr := checkTimeout(ctx); tErr != nil {
			return tErr
		}
		p.warn(model.Warning{Kind: model.WarningUnreadable, Path: src.String(), Err: err})
		return nil
	}

	plugins, warnings, err := plugin.LoadAll(ctx, dir, p.readOpts...)
	if tErr := checkTimeout(ctx); tErr != nil {
		return tErr
	}
	if err != nil {
		p.warn(model.Warning{Kind: model.WarningUnreadable, Path: dir, Err: err})
		return nil
	}

	for _, w := range warnings {
		p.warn(w)
	}
	for _, pl := range plugins {
		p.report.Plugins = append(p.report.Plugins, pl.Name)
		for _, w := range pl.Warnings {
			p.warn(w)
		}
		for _, doc := range pl.Documents {
			p.process(doc)
		}
	}
	return nil
}

// process parses one document and registers the result.
func (p *pass) process(doc model.SkillDocument) {
	_ = p.tracker.Add(1)
	p.seen[doc.Path] = true

	skill, ok := p.parse(doc)
	if !ok {
		return
	}

	before := len(p.reg.Warnings())
	p.reg.Register(skill)
	p.report.Loaded++

	if dups := p.reg.Warnings(); len(dups) > before {
		for _, w := range dups[before:] {
			p.warn(w)
		}
	}
}

func (p *pass) parse(doc model.SkillDocument) (model.Skill, bool) {
	if p.opts.Cache != nil {
		if skill, hit := p.opts.Cache.Get(doc); hit {
			return skill, true
		}
	}

	skill, err := parser.Parse(doc)
	if err != nil {
		p.warn(model.Warning{
			Kind:  model.WarningMalformed,
			Path:  doc.Path,
			Scope: doc.Origin.Scope,
			Err:   err,
		})
		return model.Skill{}, false
	}

	if p.opts.Cache != nil {
		p.opts.Cache.Set(doc, skill)
	}
	return skill, true
}

func (p *pass) warnUnreadable(err error, scope model.Scope) {
	w := model.Warning{Kind: model.WarningUnreadable, Scope: scope, Err: err}
	var ue *source.UnreadableError
	if errors.As(err, &ue) {
		w.Path = ue.Path
	}
	p.warn(w)
}

func (p *pass) warn(w model.Warning) {
	p.report.Warnings = append(p.report.Warnings, w)
	logging.Debug("skill load warning",
		logging.Path(w.Path),
		logging.Skill(w.Skill),
		logging.Err(w.Err),
		logging.Kind(string(w.Kind)),
	)
}

func checkTimeout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", source.ErrSourceTimeout, err)
	}
	return nil
}

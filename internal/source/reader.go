// Package source walks a directory tree and yields raw skill documents.
package source

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/model"
)

var (
	// ErrSourceNotFound means the root directory does not exist.
	ErrSourceNotFound = errors.New("skill source not found")
	// ErrSourceUnreadable means a single file could not be read.
	ErrSourceUnreadable = errors.New("skill source unreadable")
	// ErrSourceTimeout means the walk was cancelled or ran out of time.
	ErrSourceTimeout = errors.New("skill source walk timed out")
)

// UnreadableError reports a file that could not be read. It matches both
// ErrSourceUnreadable and the underlying cause with errors.Is.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("failed to read %q: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() []error {
	return []error{ErrSourceUnreadable, e.Err}
}

// DefaultExtensions are the file extensions recognized as skill documents.
var DefaultExtensions = []string{".md", ".markdown"}

// DefaultIgnore are root-relative glob patterns skipped during the walk.
var DefaultIgnore = []string{
	".git/**",
	"**/.git/**",
	"node_modules/**",
	"**/node_modules/**",
}

// OriginFunc customizes the origin recorded for a document. rel is the
// slash-separated path relative to the reader root.
type OriginFunc func(rel string, base model.Origin) model.Origin

// Reader yields the skill documents found under a root directory.
type Reader struct {
	root       string
	scope      model.Scope
	extensions []string
	ignore     []glob.Glob
	include    []glob.Glob
	workers    int
	originFn   OriginFunc
}

// Option configures a Reader.
type Option func(*Reader) error

// WithExtensions replaces the recognized extensions. Matching is
// case-insensitive; a leading dot is added when missing.
func WithExtensions(exts ...string) Option {
	return func(r *Reader) error {
		if len(exts) == 0 {
			return nil
		}
		r.extensions = r.extensions[:0]
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			r.extensions = append(r.extensions, ext)
		}
		return nil
	}
}

// WithIgnore replaces the ignore patterns.
func WithIgnore(patterns ...string) Option {
	return func(r *Reader) error {
		compiled, err := compileAll(patterns)
		if err != nil {
			return err
		}
		r.ignore = compiled
		return nil
	}
}

// WithInclude restricts files to those whose root-relative path matches
// one of the patterns. Extensions still apply.
func WithInclude(patterns ...string) Option {
	return func(r *Reader) error {
		compiled, err := compileAll(patterns)
		if err != nil {
			return err
		}
		r.include = compiled
		return nil
	}
}

// WithWorkers bounds the number of concurrent file reads.
func WithWorkers(n int) Option {
	return func(r *Reader) error {
		if n > 0 {
			r.workers = n
		}
		return nil
	}
}

// WithOriginFunc sets a hook that adjusts each document's origin.
func WithOriginFunc(fn OriginFunc) Option {
	return func(r *Reader) error {
		r.originFn = fn
		return nil
	}
}

// New creates a Reader for root. Documents default to the given scope.
func New(root string, scope model.Scope, opts ...Option) (*Reader, error) {
	r := &Reader{
		root:       root,
		scope:      scope,
		extensions: append([]string(nil), DefaultExtensions...),
		workers:    runtime.GOMAXPROCS(0),
	}

	if err := WithIgnore(DefaultIgnore...)(r); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Root returns the directory the reader walks.
func (r *Reader) Root() string {
	return r.root
}

// Scope returns the default scope assigned to documents.
func (r *Reader) Scope() model.Scope {
	return r.scope
}

// Documents checks that the root exists and returns a sequence over its
// documents in lexical path order. Ranging over the sequence walks the
// tree again each time. Directories that cannot be listed are yielded as
// *UnreadableError before any document, per-file failures in path order,
// and iteration continues; cancellation of ctx yields an error wrapping
// ErrSourceTimeout and ends the sequence.
func (r *Reader) Documents(ctx context.Context) (iter.Seq2[model.SkillDocument, error], error) {
	info, err := os.Stat(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, r.root)
		}
		return nil, fmt.Errorf("failed to stat skill root %q: %w", r.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrSourceNotFound, r.root)
	}

	return func(yield func(model.SkillDocument, error) bool) {
		paths, dirErrs, err := r.discover(ctx)
		if err != nil {
			yield(model.SkillDocument{}, err)
			return
		}
		for _, dirErr := range dirErrs {
			if !yield(model.SkillDocument{}, dirErr) {
				return
			}
		}

		logging.Debug("discovered skill documents",
			logging.Path(r.root),
			logging.Scope(string(r.scope)),
			logging.Count(len(paths)),
		)

		r.readOrdered(ctx, paths, yield)
	}, nil
}

// ReadAll collects every document. Per-file failures are returned in
// unreadable; err is non-nil only for a missing root or a timeout.
func (r *Reader) ReadAll(ctx context.Context) (docs []model.SkillDocument, unreadable []error, err error) {
	seq, err := r.Documents(ctx)
	if err != nil {
		return nil, nil, err
	}

	for doc, docErr := range seq {
		if docErr != nil {
			if errors.Is(docErr, ErrSourceTimeout) {
				return docs, unreadable, docErr
			}
			unreadable = append(unreadable, docErr)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, unreadable, nil
}

// discover walks the tree and returns matching file paths sorted lexically,
// along with an *UnreadableError for each directory or entry that could not
// be listed or resolved.
func (r *Reader) discover(ctx context.Context) ([]string, []error, error) {
	var (
		paths    []string
		unlisted []error
	)

	err := walkFollowSymlinks(r.root, func(path string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return timeoutError(err)
		}

		rel, err := filepath.Rel(r.root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if r.ignored(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if r.ignored(rel) || !r.included(rel) || !r.recognized(path) {
			return nil
		}

		paths = append(paths, path)
		return nil
	}, func(path string, err error) {
		logging.Debug("skill source entry unreadable", logging.Path(path), logging.Err(err))
		unlisted = append(unlisted, &UnreadableError{Path: path, Err: err})
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(paths)
	return paths, unlisted, nil
}

type readResult struct {
	doc model.SkillDocument
	err error
}

// readOrdered reads files with a bounded worker pool and yields results in
// the order of paths.
func (r *Reader) readOrdered(ctx context.Context, paths []string, yield func(model.SkillDocument, error) bool) {
	if len(paths) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]chan readResult, len(paths))
	for i := range slots {
		slots[i] = make(chan readResult, 1)
	}

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := range paths {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := min(r.workers, len(paths))
	for range workers {
		go func() {
			for i := range jobs {
				doc, err := r.readDocument(paths[i])
				slots[i] <- readResult{doc: doc, err: err}
			}
		}()
	}

	for i := range paths {
		select {
		case res := <-slots[i]:
			if !yield(res.doc, res.err) {
				return
			}
		case <-ctx.Done():
			yield(model.SkillDocument{}, timeoutError(ctx.Err()))
			return
		}
	}
}

func (r *Reader) readDocument(path string) (model.SkillDocument, error) {
	// #nosec G304 - path comes from walking the configured root
	content, err := os.ReadFile(path)
	if err != nil {
		return model.SkillDocument{}, &UnreadableError{Path: path, Err: err}
	}

	doc := model.SkillDocument{
		Path:    path,
		RawText: string(content),
		Origin:  model.Origin{Root: r.root, Scope: r.scope},
	}
	if info, err := os.Stat(path); err == nil {
		doc.ModifiedAt = info.ModTime()
	}

	if r.originFn != nil {
		rel, err := filepath.Rel(r.root, path)
		if err == nil {
			doc.Origin = r.originFn(filepath.ToSlash(rel), doc.Origin)
		}
	}

	return doc, nil
}

func (r *Reader) recognized(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range r.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (r *Reader) ignored(rel string) bool {
	return matchAny(r.ignore, rel)
}

func (r *Reader) included(rel string) bool {
	return len(r.include) == 0 || matchAny(r.include, rel)
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

func timeoutError(cause error) error {
	return fmt.Errorf("%w: %w", ErrSourceTimeout, cause)
}

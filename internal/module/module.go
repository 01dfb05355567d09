// Package module is a module loader: given a module identifier, it
// returns a mapping of symbol to exported value, or fails
// module-not-found, caching results across calls. It is built by driving
// the same lexer→reader→macro→eval pipeline cmd/goscm's run command
// drives, against a search path instead of a single named file.
//
// The loader is a registry keyed by module name, backed by a search-path
// list, "already loaded" caching, and ordered top-to-bottom evaluation of
// a module's forms. Cache invalidation on source-file change uses
// github.com/fsnotify/fsnotify; aggregating errors encountered while
// probing each directory on the search path uses go.uber.org/multierr.
package module

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/eval"
	"github.com/go-scm/go-scm/internal/macro"
	"github.com/go-scm/go-scm/internal/reader"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

// notFoundError (built by NotFound) is returned when name cannot be
// resolved against any directory on the search path.
type notFoundError struct{ name string }

func (e notFoundError) Error() string { return "module-not-found: " + e.name }

func NotFound(name string) error { return notFoundError{name: name} }

// cacheEntry holds a resolved module's exported bindings plus the path it
// was loaded from, so a later watcher callback can find it again to evict.
type cacheEntry struct {
	exports map[sym.ID]runtime.Value
	path    string
}

// Loader resolves, evaluates, and caches modules. One Loader
// is normally shared by every module loaded within a single engine
// instance — its cache and watcher are keyed by module name, not by
// caller.
type Loader struct {
	SearchPaths []string
	Interner    *sym.Interner

	mu      sync.Mutex
	cache   map[string]*cacheEntry
	watcher *fsnotify.Watcher
}

func NewLoader(interner *sym.Interner, searchPaths []string) *Loader {
	return &Loader{
		Interner:    interner,
		SearchPaths: searchPaths,
		cache:       make(map[string]*cacheEntry),
	}
}

// Load resolves name to a file on the search path, evaluates it in a fresh
// module environment extending base, and returns its exported bindings. A
// cache hit skips re-resolution and re-evaluation entirely.
func (l *Loader) Load(name string, base *runtime.Environment) (map[sym.ID]runtime.Value, error) {
	l.mu.Lock()
	if entry, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return entry.exports, nil
	}
	l.mu.Unlock()

	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, NotFound(name)
	}

	exports, err := l.evalModule(string(src), base)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[name] = &cacheEntry{exports: exports, path: path}
	l.mu.Unlock()
	l.watch(name, path)
	return exports, nil
}

// resolve walks SearchPaths in order, trying name, name+".scm" and
// name+".sld",
// aggregating a multierr of every miss so a module-not-found report can
// show every directory that was tried.
func (l *Loader) resolve(name string) (string, error) {
	var errs error
	for _, dir := range l.SearchPaths {
		for _, candidate := range []string{name, name + ".scm", name + ".sld"} {
			full := filepath.Join(dir, candidate)
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				return full, nil
			} else if err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	if errs != nil {
		return "", multierr.Append(NotFound(name), errs)
	}
	return "", NotFound(name)
}

// evalModule reads every top-level datum in src, pulls out a leading
// `(export id...)` form if present (everything is exported if one isn't),
// expands and evaluates the rest in a fresh child of base, and returns the
// exported subset of the module environment's top-level bindings.
func (l *Loader) evalModule(src string, base *runtime.Environment) (map[sym.ID]runtime.Value, error) {
	rd := reader.NewBuilder(src, l.Interner).Build()
	datums, readErrs := rd.ReadAll()
	if len(readErrs) > 0 {
		return nil, readErrs[0]
	}

	var exportNames []sym.ID
	var exportAll = true
	body := make([]ast.Datum, 0, len(datums))
	for _, d := range datums {
		if names, ok := exportForm(d); ok {
			exportNames = append(exportNames, names...)
			exportAll = false
			continue
		}
		body = append(body, d)
	}

	expander := macro.NewExpander(l.Interner)
	syntaxEnv := macro.NewSyntaxEnv()
	moduleEnv := runtime.NewEnclosedEnvironment(base)
	ev := eval.NewEvaluator(base)
	ev.Interner = l.Interner

	for _, d := range body {
		expr, err := expander.Expand(d, syntaxEnv)
		if err != nil {
			return nil, err
		}
		if _, err := ev.Eval(expr, moduleEnv); err != nil {
			return nil, err
		}
	}

	exports := make(map[sym.ID]runtime.Value)
	if exportAll {
		moduleEnv.Range(func(id sym.ID, v runtime.Value) bool {
			exports[id] = v
			return true
		})
		return exports, nil
	}
	for _, id := range exportNames {
		if v, ok := moduleEnv.GetLocal(id); ok {
			exports[id] = v
		}
	}
	return exports, nil
}

// exportForm recognizes a top-level `(export id...)` datum without going
// through the macro expander: export is a module-loader-level declaration,
// not a core special form.
func exportForm(d ast.Datum) ([]sym.ID, bool) {
	pair, ok := d.(*ast.DPair)
	if !ok {
		return nil, false
	}
	head, ok := pair.Car.(ast.DSymbol)
	if !ok || head.Name != "export" {
		return nil, false
	}
	var names []sym.ID
	cur := pair.Cdr
	for {
		switch x := cur.(type) {
		case ast.DNull:
			return names, true
		case *ast.DPair:
			sname, ok := x.Car.(ast.DSymbol)
			if !ok {
				return nil, false
			}
			names = append(names, sname.ID)
			cur = x.Cdr
		default:
			return nil, false
		}
	}
}

// watch registers a filesystem watcher on path (best-effort: a platform
// where fsnotify can't watch the file just never invalidates the cache
// early, falling back to process-lifetime caching) so an edited module
// source is reloaded on next Load instead of serving stale bindings
// forever.
func (l *Loader) watch(name, path string) {
	l.mu.Lock()
	if l.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			l.mu.Unlock()
			return
		}
		l.watcher = w
		go l.watchLoop()
	}
	_ = l.watcher.Add(path)
	l.mu.Unlock()
}

func (l *Loader) watchLoop() {
	for {
		l.mu.Lock()
		w := l.watcher
		l.mu.Unlock()
		if w == nil {
			return
		}
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				l.invalidate(ev.Name)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (l *Loader) invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, entry := range l.cache {
		if entry.path == path {
			delete(l.cache, name)
		}
	}
}

// Close stops the filesystem watcher, if one was started.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher == nil {
		return nil
	}
	err := l.watcher.Close()
	l.watcher = nil
	return err
}

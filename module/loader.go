// Package module implements Sona's import resolution: given a dotted
// import path, it searches (in order) an in-memory cache, registered
// native modules, a project-local `.sona_modules` directory tree, and a
// configurable stdlib search path, parsing and evaluating the first
// match and caching its exported namespace. Grounded on cue/cue/load
// (config.go's search-path resolution, loader.go's cache-by-import-path
// and cycle detection via a "currently loading" stack), generalized
// from CUE's package-clause resolution to spec.md §6's simpler
// path-to-file mapping.
package module

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/opencontainers/go-digest"
	"github.com/tetratelabs/wazero"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/value"
	"github.com/Bryantad/Sona-sub003/parser"
	"github.com/Bryantad/Sona-sub003/token"
)

// Evaluator is the subset of eval.Interp the loader needs: run a parsed
// file against a fresh frame and collect its top-level bindings as the
// module's exports. Declared here (rather than importing package eval)
// so eval and module can both exist without a cycle; package sona wires
// the concrete *eval.Interp in.
//
// onStart is called with the module's own frame as soon as it exists,
// before any of the module's statements run, so a reentrant Import of
// the same module mid-evaluation (an import cycle) can read whatever
// top-level names the suspended module has already defined.
type Evaluator interface {
	RunModule(ctx context.Context, f *ast.File, filename string, onStart func(*frame.Frame)) (*frame.Frame, error)
}

// Manifest is the `.smod` sidecar file's schema: a YAML document naming
// the module's entry file and minimum semver, mirroring cue/module's
// module.cue manifest but far smaller, matching spec.md's scope.
type Manifest struct {
	Entry      string `yaml:"entry"`
	MinVersion string `yaml:"version,omitempty"`
}

// Native is a Go-implemented module, registered by the host embedder
// (spec.md §8 scenario 5) rather than resolved from source on disk.
type Native struct {
	Path    string
	Exports value.Dict
}

type cacheEntry struct {
	digest  digest.Digest
	exports value.Dict
}

// Loader resolves and caches Sona module imports.
type Loader struct {
	Eval        Evaluator
	SearchPaths []string // stdlib/third-party search roots, in priority order
	ProjectRoot string    // directory holding .sona_modules, "" to disable

	mu      sync.Mutex
	cache   map[string]cacheEntry
	natives map[string]Native
	loading map[string]*frame.Frame // modules currently being evaluated, keyed by import path

	wasmOnce sync.Once
	wasmRT   wazero.Runtime
}

func New(ev Evaluator, searchPaths []string, projectRoot string) *Loader {
	return &Loader{
		Eval:        ev,
		SearchPaths: searchPaths,
		ProjectRoot: projectRoot,
		cache:       map[string]cacheEntry{},
		natives:     map[string]Native{},
		loading:     map[string]*frame.Frame{},
	}
}

// RegisterNative installs a host-implemented module under path, taking
// priority over any on-disk module of the same name (spec.md's
// resolution order step 2).
func (l *Loader) RegisterNative(path string, exports value.Dict) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.natives[path] = Native{Path: path, Exports: exports}
}

// Import resolves path (already split on '.') relative to fromFile,
// returning the module's export namespace.
//
// A module that imports (directly or transitively) a module already in
// the middle of loading does not error out: it gets a partial export
// namespace snapshotting whatever names the still-loading module has
// defined so far (spec.md §4.5, spec.md §8 scenario 5's mutual a.sona/
// b.sona import with no cross-reads). Reading a name the suspended
// module hasn't reached yet fails the same way reading any undefined
// module attribute does (eval.attrOf's AttributeError) — there is no
// separate "import cycle" error anymore; the cycle only matters to the
// extent it's actually observed.
func (l *Loader) Import(ctx context.Context, path []string, fromFile string) (value.Dict, error) {
	key := strings.Join(path, ".")

	l.mu.Lock()
	if fr, ok := l.loading[key]; ok {
		l.mu.Unlock()
		return partialExports(fr), nil
	}
	if entry, ok := l.cache[key]; ok {
		file, ferr := l.resolveFile(path, fromFile)
		if ferr == nil {
			if d, derr := digestFile(file); derr == nil && d == entry.digest {
				l.mu.Unlock()
				return entry.exports, nil
			}
		}
	}
	if n, ok := l.natives[key]; ok {
		l.mu.Unlock()
		return n.Exports, nil
	}
	l.mu.Unlock()

	if file, ok := l.resolveWasm(path); ok {
		exports, werr := l.loadWasmModule(ctx, file)
		if werr != nil {
			return value.Dict{}, werr
		}
		d, _ := digestFile(file)
		l.mu.Lock()
		l.cache[key] = cacheEntry{digest: d, exports: exports}
		l.mu.Unlock()
		return exports, nil
	}

	defer func() {
		l.mu.Lock()
		delete(l.loading, key)
		l.mu.Unlock()
	}()

	file, err := l.resolveFile(path, fromFile)
	if err != nil {
		return value.Dict{}, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return value.Dict{}, fmt.Errorf("reading %s: %w", file, err)
	}
	f, perr := parser.ParseFile(file, src)
	if perr != nil {
		return value.Dict{}, fmt.Errorf("parsing %s: %w", file, perr)
	}
	fr, rerr := l.Eval.RunModule(ctx, f, file, func(modFrame *frame.Frame) {
		l.mu.Lock()
		l.loading[key] = modFrame
		l.mu.Unlock()
	})
	if rerr != nil {
		return value.Dict{}, fmt.Errorf("running %s: %w", file, rerr)
	}
	exports := partialExports(fr)

	d, _ := digestFile(file)
	l.mu.Lock()
	l.cache[key] = cacheEntry{digest: d, exports: exports}
	l.mu.Unlock()
	return exports, nil
}

// partialExports snapshots the names a still-loading module's frame has
// defined so far, for the cyclic-import case: since Import is only ever
// reentered synchronously from within the suspended module's own call
// stack, the snapshot reflects exactly what that module had bound up to
// the statement that triggered the reentrant import, and nothing more
// will be added to it before the reentrant caller resumes.
func partialExports(fr *frame.Frame) value.Dict {
	exports := value.NewDict()
	for _, name := range fr.Names() {
		v, _ := fr.Lookup(name)
		exports.Set(name, v)
	}
	return exports
}

// resolveFile implements spec.md §6's search order beyond cache/native:
// an `.smod` manifest inside a directory named after the path, a plain
// `<path>.sona` file, a project-local `.sona_modules/<path>[@version]`
// tree, then each configured stdlib search root in turn.
func (l *Loader) resolveFile(path []string, fromFile string) (string, error) {
	rel := filepath.Join(path...) + ".sona"
	base := filepath.Dir(fromFile)

	if dir := filepath.Join(base, filepath.Join(path...)); isDir(dir) {
		if m, ok := l.readManifest(dir); ok {
			return filepath.Join(dir, m.Entry), nil
		}
	}
	if candidate := filepath.Join(base, rel); fileExists(candidate) {
		return candidate, nil
	}
	if l.ProjectRoot != "" {
		if f, ok := l.resolveVersioned(filepath.Join(l.ProjectRoot, ".sona_modules"), path); ok {
			return f, nil
		}
	}
	for _, root := range l.SearchPaths {
		candidate := filepath.Join(root, rel)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", errors.Newf(errors.ImportError, token.NoPos, "module %q not found", strings.Join(path, "."))
}

// resolveVersioned looks for modulesDir/<path[0]>@<highest-semver>/... ,
// comparing version suffixes with golang.org/x/mod/semver so
// `.sona_modules` can host multiple versions of the same dependency
// side by side, mirroring Go's own module cache layout.
func (l *Loader) resolveVersioned(modulesDir string, path []string) (string, bool) {
	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		return "", false
	}
	name := path[0]
	best := ""
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n := e.Name()
		if n == name {
			if best == "" {
				best = n
			}
			continue
		}
		if strings.HasPrefix(n, name+"@") {
			v := n[len(name)+1:]
			if !semver.IsValid(v) {
				continue
			}
			if best == "" || !strings.Contains(best, "@") || semver.Compare(v, versionSuffix(best)) > 0 {
				best = n
			}
		}
	}
	if best == "" {
		return "", false
	}
	rest := filepath.Join(path[1:]...)
	dir := filepath.Join(modulesDir, best)
	if rest != "" {
		dir = filepath.Join(dir, rest)
	}
	if m, ok := l.readManifest(dir); ok {
		return filepath.Join(dir, m.Entry), true
	}
	candidate := dir + ".sona"
	if fileExists(candidate) {
		return candidate, true
	}
	return "", false
}

func versionSuffix(dirName string) string {
	if i := strings.Index(dirName, "@"); i >= 0 {
		return dirName[i+1:]
	}
	return ""
}

func (l *Loader) readManifest(dir string) (Manifest, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "module.smod"))
	if err != nil {
		return Manifest{}, false
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil || m.Entry == "" {
		return Manifest{}, false
	}
	return m, true
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// WatchModulePaths starts an fsnotify watch over every configured
// SearchPath (spec.md §6 embedding API's opt-in `WatchModulePaths`
// config, SPEC_FULL.md §4.7), invalidating a module's cache entry
// whenever its resolved source file is written. It does not touch the
// "load once per run_source call" contract (spec.md §3): a module
// already imported during the current run keeps its cached exports
// until the next Import call observes the invalidation. The returned
// function stops the watch; callers should defer it.
func (l *Loader) WatchModulePaths(onInvalidate func(path string)) (stop func() error, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, root := range l.SearchPaths {
		if err := w.Add(root); err != nil {
			w.Close()
			return nil, fmt.Errorf("watching %s: %w", root, err)
		}
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				l.invalidateByFile(ev.Name, onInvalidate)
			case <-w.Errors:
				// best-effort: dropped fsnotify errors don't affect
				// correctness, only the freshness of the hot-reload.
			case <-done:
				return
			}
		}
	}()
	return func() error {
		close(done)
		return w.Close()
	}, nil
}

func (l *Loader) invalidateByFile(file string, onInvalidate func(path string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.cache {
		resolved, err := l.resolveFile(strings.Split(key, "."), file)
		if err == nil && resolved == file {
			delete(l.cache, key)
			if onInvalidate != nil {
				onInvalidate(key)
			}
		}
	}
}

func digestFile(path string) (digest.Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return digest.FromBytes(data), nil
}

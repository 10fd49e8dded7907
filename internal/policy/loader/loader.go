// Package loader discovers and loads .policy files from a directory, with
// an mtime+TTL cache so repeated evaluation cycles don't re-parse files
// that haven't changed on disk.
package loader

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/netfleet/netfleet/internal/policy/ast"
	"github.com/netfleet/netfleet/internal/policy/parser"
)

// LoadError pairs a policy file's path with why it failed to load.
type LoadError struct {
	Path  string
	Error error
}

// LoadedFile pairs a policy file's path with its parsed rules.
type LoadedFile struct {
	Path  string
	Rules []ast.PolicyRule
}

// LoadResult is the outcome of scanning one directory: files that parsed
// cleanly and files that didn't, reported independently so one bad file
// never blocks the rest from loading.
type LoadResult struct {
	Loaded []LoadedFile
	Errors []LoadError
}

type cacheEntry struct {
	rules    []ast.PolicyRule
	mtime    time.Time
	loadedAt time.Time
}

// Loader caches parsed policy files keyed by absolute path. A lookup is a
// hit when the file's current mtime equals the cached mtime and the entry
// hasn't aged past ttl.
type Loader struct {
	ttl time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry

	now func() time.Time
}

// New returns a Loader whose cache entries expire after ttl.
func New(ttl time.Duration) *Loader {
	return &Loader{
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// LoadFromDirectory does a non-recursive scan of dir for *.policy files,
// parsing each (or serving it from cache) and returning both the files
// that succeeded and those that didn't.
func (l *Loader) LoadFromDirectory(dir string) (LoadResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return LoadResult{}, err
	}

	var result LoadResult
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".policy" {
			continue
		}
		path, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			result.Errors = append(result.Errors, LoadError{Path: entry.Name(), Error: err})
			continue
		}

		rules, err := l.load(path)
		if err != nil {
			result.Errors = append(result.Errors, LoadError{Path: path, Error: err})
			continue
		}
		result.Loaded = append(result.Loaded, LoadedFile{Path: path, Rules: rules})
	}
	return result, nil
}

func (l *Loader) load(path string) ([]ast.PolicyRule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	mtime := info.ModTime()

	l.mu.Lock()
	entry, ok := l.cache[path]
	l.mu.Unlock()
	if ok && entry.mtime.Equal(mtime) && l.now().Sub(entry.loadedAt) < l.ttl {
		return entry.rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rules, parseErrs := parser.ParseString(string(data))
	if len(parseErrs) != 0 {
		return nil, firstParseError(parseErrs)
	}

	l.mu.Lock()
	l.cache[path] = cacheEntry{rules: rules, mtime: mtime, loadedAt: l.now()}
	l.mu.Unlock()

	return rules, nil
}

// ClearExpiredCache removes every cache entry older than ttl and returns
// how many were removed.
func (l *Loader) ClearExpiredCache() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := l.now()
	for path, entry := range l.cache {
		if now.Sub(entry.loadedAt) >= l.ttl {
			delete(l.cache, path)
			removed++
		}
	}
	return removed
}

// multiParseError joins every per-line parser.ParseError into one error so
// LoadResult.Errors carries something caller code can log or display.
type multiParseError struct {
	errs []parser.ParseError
}

func (e *multiParseError) Error() string {
	msg := ""
	for i, pe := range e.errs {
		if i > 0 {
			msg += "; "
		}
		msg += pe.Error()
	}
	return msg
}

func firstParseError(errs []parser.ParseError) error {
	return &multiParseError{errs: errs}
}

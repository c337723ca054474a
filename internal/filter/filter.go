// Package filter compiles include/exclude glob patterns and size bounds
// into a predicate over scanned paths, used by both the scanner (to
// avoid descending into excluded work) and the differ (to drop actions
// referencing a path the caller doesn't care about).
package filter

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ivoronin/filesync/internal/syncerr"
)

// Options configures a Filter. The zero value matches everything.
type Options struct {
	// Includes is a list of doublestar glob patterns. If non-empty, a
	// path must match at least one to pass.
	Includes []string
	// Excludes is a list of doublestar glob patterns. A path matching
	// any of these is rejected regardless of Includes.
	Excludes []string
	// CaseSensitive controls pattern matching case sensitivity.
	CaseSensitive bool
	// IncludeHidden allows paths with a leading-dot component to pass.
	// When false, such paths are rejected before patterns are checked.
	IncludeHidden bool
	// MinSize and MaxSize bound file size, inclusive. Zero means
	// unbounded in that direction. Ignored for directories.
	MinSize int64
	MaxSize int64
}

// Filter is a compiled predicate over relative paths and sizes.
type Filter struct {
	opts    Options
	combine func(relPath string, size int64, isDir bool) bool
}

// New compiles opts into a Filter. Returns a FilterInvalid error if any
// pattern fails to parse.
func New(opts Options) (*Filter, error) {
	for _, p := range opts.Includes {
		if !doublestar.ValidatePattern(p) {
			return nil, syncerr.New(syncerr.FilterInvalid, "invalid include pattern "+p, nil)
		}
	}
	for _, p := range opts.Excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, syncerr.New(syncerr.FilterInvalid, "invalid exclude pattern "+p, nil)
		}
	}
	return &Filter{opts: opts}, nil
}

// Matches reports whether relPath (slash-separated, relative to a scan
// root) and its size satisfy the filter. isDir paths skip size bounds.
func (f *Filter) Matches(relPath string, size int64, isDir bool) bool {
	if f == nil {
		return true
	}
	if f.combine != nil {
		return f.combine(relPath, size, isDir)
	}
	p := relPath
	if !f.opts.CaseSensitive {
		p = strings.ToLower(p)
	}

	if !f.opts.IncludeHidden && hasHiddenComponent(relPath) {
		return false
	}

	if !isDir {
		if f.opts.MinSize > 0 && size < f.opts.MinSize {
			return false
		}
		if f.opts.MaxSize > 0 && size > f.opts.MaxSize {
			return false
		}
	}

	for _, pat := range f.opts.Excludes {
		if matchPattern(pat, p, f.opts.CaseSensitive) {
			return false
		}
	}

	if len(f.opts.Includes) == 0 {
		return true
	}
	for _, pat := range f.opts.Includes {
		if matchPattern(pat, p, f.opts.CaseSensitive) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, p string, caseSensitive bool) bool {
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
	}
	ok, _ := doublestar.Match(pattern, p)
	if ok {
		return true
	}
	// Also try matching just the base name, so "*.txt" matches
	// "dir/sub/a.txt" without requiring "**/*.txt".
	ok, _ = doublestar.Match(pattern, path.Base(p))
	return ok
}

func hasHiddenComponent(relPath string) bool {
	for _, c := range strings.Split(filepathToSlash(relPath), "/") {
		if c == "." || c == ".." || c == "" {
			continue
		}
		if strings.HasPrefix(c, ".") {
			return true
		}
	}
	return false
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// And composes two filters with logical AND: combined.Matches(p, s) ==
// a.Matches(p, s) && b.Matches(p, s) for every (p, s) — the intersection
// of what each filter alone would admit.
func And(a, b *Filter) *Filter {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &Filter{combine: func(relPath string, size int64, isDir bool) bool {
		return a.Matches(relPath, size, isDir) && b.Matches(relPath, size, isDir)
	}}
}

package scanner

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreMatcher evaluates nested .gitignore-style files hierarchically: a
// path is ignored if any ancestor directory's ignore file matches it.
// Patterns are loaded lazily as the walk descends, rather than by a
// separate pre-pass over the whole tree, since the scanner already
// visits every directory before its children.
type ignoreMatcher struct {
	root     string
	mu       sync.RWMutex
	matchers map[string]*gitignore.GitIgnore
	logger   *slog.Logger
}

func newIgnoreMatcher(root string) *ignoreMatcher {
	return &ignoreMatcher{
		root:     root,
		matchers: make(map[string]*gitignore.GitIgnore),
		logger:   slog.Default().With("component", "scanner.ignore"),
	}
}

// loadDir compiles dir's ignore file, if present, and remembers it under
// dir's path relative to root. Safe to call once per directory visited,
// concurrently from the walk's goroutines.
func (m *ignoreMatcher) loadDir(dir string) {
	relDir, err := filepath.Rel(m.root, dir)
	if err != nil {
		return
	}
	relDir = filepath.ToSlash(relDir)
	if relDir == "." {
		relDir = ""
	}

	ignoreFile := filepath.Join(dir, ".gitignore")
	compiled, err := gitignore.CompileIgnoreFile(ignoreFile)
	if err != nil {
		// Missing or unreadable ignore file: not an error, just nothing
		// to add at this level.
		return
	}
	m.mu.Lock()
	m.matchers[relDir] = compiled
	m.mu.Unlock()
	m.logger.Debug("loaded ignore file", "dir", relDir)
}

// IsIgnored reports whether relPath (slash-separated, relative to root)
// is excluded by any loaded ignore file whose directory is an ancestor
// of relPath.
func (m *ignoreMatcher) IsIgnored(relPath string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.matchers) == 0 {
		return false
	}
	matchPath := relPath
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}

	dirs := make([]string, 0, len(m.matchers))
	for d := range m.matchers {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		if dir != "" {
			prefix := dir + "/"
			if !strings.HasPrefix(matchPath, prefix) && matchPath != dir {
				continue
			}
		}
		var rel string
		if dir == "" {
			rel = matchPath
		} else {
			rel = strings.TrimPrefix(matchPath, dir+"/")
		}
		if m.matchers[dir].MatchesPath(rel) {
			return true
		}
	}
	return false
}

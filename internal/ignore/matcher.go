// Package ignore filters discovery paths with glob patterns.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPatterns are always excluded; user patterns from configuration are
// appended and matched the same way.
var DefaultPatterns = []string{
	".git/**",
	".tox/**",
	".venv/**",
	"venv/**",
	"node_modules/**",
	"build/**",
	"dist/**",
	"__pycache__/**",
	"**/__pycache__/**",
	"**/*.egg-info/**",
	"tests/**",
	"**/test_*.py",
	"**/conftest.py",
}

// Matcher decides whether a relative path is excluded from discovery.
type Matcher struct {
	globs []glob.Glob
	dirs  []glob.Glob
}

// NewMatcher compiles the default patterns plus userPatterns. Patterns that
// fail to compile are dropped; an exclusion list should never stop a run.
func NewMatcher(userPatterns []string) *Matcher {
	m := &Matcher{}
	for _, pattern := range append(append([]string{}, DefaultPatterns...), userPatterns...) {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if g, err := glob.Compile(pattern, '/'); err == nil {
			m.globs = append(m.globs, g)
		}
		// A pattern like "build/**" should also prune the "build" directory
		// itself so the walk can skip the subtree.
		if trimmed, ok := strings.CutSuffix(pattern, "/**"); ok {
			if g, err := glob.Compile(trimmed, '/'); err == nil {
				m.dirs = append(m.dirs, g)
			}
		}
	}
	return m
}

// ShouldIgnore returns true when relPath is excluded. Directory matches allow
// the caller to skip the whole subtree.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(strings.TrimPrefix(relPath, "./"))
	if relPath == "" || relPath == "." {
		return false
	}
	for _, g := range m.globs {
		if g.Match(relPath) {
			return true
		}
	}
	if isDir {
		for _, g := range m.dirs {
			if g.Match(relPath) {
				return true
			}
		}
	}
	return false
}

package scanner

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludeDirs are directory names excluded by default; matching
// directories are never recursed into.
var DefaultExcludeDirs = []string{
	".git", "node_modules", "vendor", "__pycache__", "dist", "build",
	".next", ".nuxt", "target", "bin", "obj", "coverage", "venv", "env",
	".venv", ".cache", ".idea", ".vscode", ".deepwiki",
}

// DefaultExcludeGlobs are file-level glob patterns excluded by default:
// logs, locks, binaries, minified bundles, map files, platform metadata.
var DefaultExcludeGlobs = []string{
	"*.log", "*.lock", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"*.min.js", "*.min.css", "*.map", ".DS_Store", "*.exe", "*.dll",
	"*.so", "*.dylib", "*.pyc", "*.class",
}

// shouldExcludeDir checks whether a directory name matches any default
// exclusion pattern. This is used during traversal to skip entire subtrees.
func shouldExcludeDir(name string) bool {
	for _, excl := range DefaultExcludeDirs {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude returns true if the given relative path matches any of the
// include patterns. If patterns is empty, everything is included.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude returns true if the given relative path matches any of the
// exclude patterns. If patterns is empty, nothing is excluded.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny checks if relPath matches any of the given glob patterns.
// It uses doublestar for ** support, trying the full path first and then
// the base name alone.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}

		base := filepath.Base(normalized)
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

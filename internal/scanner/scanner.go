// Package scanner walks a repository tree and produces the File records
// the rest of the pipeline chunks, embeds, and indexes.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/repowiki/internal/logging"
)

// DefaultMaxFileSize is the maximum file size to process (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

// DefaultTokenBudget is the default total-token budget a caller applies
// when consuming a prioritized scan result.
const DefaultTokenBudget = 100_000

// FileType classifies a File for chunking-strategy dispatch and importance
// weighting.
type FileType string

const (
	TypeCode   FileType = "code"
	TypeDoc    FileType = "doc"
	TypeConfig FileType = "config"
	TypeTest   FileType = "test"
	TypeBuild  FileType = "build"
	TypeAsset  FileType = "asset"
	TypeData   FileType = "data"
)

// File holds metadata and (when small enough) content for a single
// discovered file.
type File struct {
	Path        string // Absolute path on disk.
	RelPath     string // Path relative to the root directory.
	Size        int64
	LastMod     time.Time
	Ext         string
	FileType    FileType
	Language    string
	ContentHash string
	Tokens      int
	Content     string // Full file text; files over the size limit are skipped, not returned.
	IsTest      bool
	Imports     []string
	Exports     []string
	Importance  int
}

// Config controls the behaviour of Scan.
type Config struct {
	RootDir     string
	Include     []string // Glob patterns — only matching files are included (empty = everything).
	Exclude     []string // Glob patterns — matching files are excluded, additive to DefaultExcludeGlobs.
	MaxFileSize int64    // Files larger than this are skipped (0 = DefaultMaxFileSize).
}

var log = logging.New("scanner")

// entryPointNames are canonical entry-point filenames that earn the +100
// importance bonus.
var entryPointNames = map[string]bool{
	"main.go": true, "main.py": true, "main.rs": true, "main.c": true,
	"index.js": true, "index.ts": true, "index.tsx": true, "index.jsx": true,
	"app.py": true, "app.js": true, "app.ts": true,
	"server.go": true, "server.js": true, "server.ts": true,
	"cmd.go": true, "program.cs": true,
}

var (
	importRe  = regexp.MustCompile(`import\s+.*?\s+from\s+['"]([^'"]+)['"]`)
	requireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	exportRe  = regexp.MustCompile(`export\s+(?:default\s+)?(?:class|function|const|let|var)\s+(\w+)`)
)

var allowedHiddenDirs = map[string]bool{
	".github": true,
	".vscode": true,
}

// Scan traverses the directory tree rooted at config.RootDir and returns
// metadata for every source file that passes filtering. It skips binary
// files, respects include/exclude patterns, honours .gitignore, and
// returns files sorted by descending importance.
func Scan(config Config) ([]File, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolve root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	gitignorePatterns := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []File

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.Warnf("read %s: %v", path, walkErr)
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path != root && shouldExcludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if isHiddenPath(relPath) && !MatchesInclude(relPath, config.Include) {
			return nil
		}
		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}
		if !MatchesInclude(relPath, config.Include) {
			return nil
		}
		if MatchesExclude(relPath, append(append([]string{}, DefaultExcludeGlobs...), config.Exclude...)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.Warnf("stat %s: %v", relPath, err)
			return nil
		}
		if info.Size() > maxSize {
			log.Warnf("skip %s: exceeds max file size", relPath)
			return nil
		}
		if isBinary(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("read %s: %v", relPath, err)
			return nil
		}

		hash := hashBytes(content)
		lang := DetectLanguage(name)
		ftype := classify(name, relPath)
		text := string(content)
		depth := strings.Count(relPath, "/")

		f := File{
			Path:        path,
			RelPath:     relPath,
			Size:        info.Size(),
			LastMod:     info.ModTime(),
			Ext:         strings.ToLower(filepath.Ext(name)),
			FileType:    ftype,
			Language:    lang,
			ContentHash: hash,
			Tokens:      estimateTokens(text),
			Content:     text,
			IsTest:      isTestFile(name, relPath),
		}

		if ftype == TypeCode {
			f.Imports = extractImports(text)
			f.Exports = extractExports(text)
		}

		f.Importance = importance(f, depth)

		files = append(files, f)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scanner: traversal: %w", err)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Importance > files[j].Importance
	})

	return files, nil
}

// classify assigns a FileType using the detected language as a default,
// with filename overrides applied first (test/config/build take
// priority over the extension-derived tag).
func classify(name, relPath string) FileType {
	lower := strings.ToLower(name)
	lowerRel := strings.ToLower(relPath)

	if isTestFile(name, relPath) {
		return TypeTest
	}
	if strings.Contains(lower, "config") || strings.Contains(lower, "setting") {
		return TypeConfig
	}
	if lower == "dockerfile" || strings.Contains(lower, "docker") {
		return TypeBuild
	}

	switch DetectLanguage(name) {
	case "Markdown":
		return TypeDoc
	case "YAML", "JSON", "TOML":
		if strings.Contains(lowerRel, "data/") {
			return TypeData
		}
		return TypeConfig
	case "Dockerfile", "Makefile":
		return TypeBuild
	case "unknown":
		return TypeAsset
	default:
		return TypeCode
	}
}

// importance computes the per-File priority score: entry-point bonus,
// file-type weight, depth bonus, name bonus.
func importance(f File, depth int) int {
	score := 0
	base := strings.ToLower(filepath.Base(f.RelPath))

	if entryPointNames[base] {
		score += 100
	}

	switch f.FileType {
	case TypeCode:
		score += 50
	case TypeConfig:
		score += 40
	case TypeDoc:
		score += 30
	case TypeTest:
		score += 20
	default:
		score += 10
	}

	if depthBonus := 20 - 2*depth; depthBonus > 0 {
		score += depthBonus
	}

	if strings.Contains(base, "main") || strings.Contains(base, "index") {
		score += 30
	}

	return score
}

// IsEntryPointName reports whether name (a base filename) is a canonical
// entry-point name, the same table used for the importance bonus.
func IsEntryPointName(name string) bool {
	return entryPointNames[strings.ToLower(name)]
}

// estimateTokens approximates token count as ceil(len(content)/4), the
// default estimator used whenever a provider-native counter isn't
// available.
func estimateTokens(content string) int {
	return int(math.Ceil(float64(len(content)) / 4.0))
}

func extractImports(content string) []string {
	var out []string
	for _, m := range importRe.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	for _, m := range requireRe.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

func extractExports(content string) []string {
	var out []string
	for _, m := range exportRe.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

func isHiddenPath(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return !allowedHiddenDirs[part]
		}
	}
	return false
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes,
// which is a simple but effective heuristic for binary content.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

func hashBytes(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// isTestFile returns true if the filename or path looks like a test file.
func isTestFile(name, relPath string) bool {
	lower := strings.ToLower(name)

	if strings.HasSuffix(lower, "_test.go") {
		return true
	}
	if strings.HasPrefix(lower, "test_") || strings.HasSuffix(lower, "_test.py") {
		return true
	}
	for _, suffix := range []string{".test.js", ".test.ts", ".test.tsx", ".spec.js", ".spec.ts", ".spec.tsx"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	relSlash := filepath.ToSlash(strings.ToLower(relPath))
	if strings.Contains(relSlash, "/test/") || strings.Contains(relSlash, "/tests/") ||
		strings.HasPrefix(relSlash, "test/") || strings.HasPrefix(relSlash, "tests/") {
		return true
	}

	return false
}

func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func matchesGitignore(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalized := filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)

		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if !strings.Contains(pattern, "/") {
			parts := strings.Split(normalized, "/")
			for _, part := range parts {
				if matched, _ := filepath.Match(pattern, part); matched {
					if !dirOnly {
						return true
					}
				}
			}
			base := filepath.Base(normalized)
			if matched, _ := filepath.Match(pattern, base); matched && !dirOnly {
				return true
			}
		} else {
			if matched, _ := filepath.Match(pattern, normalized); matched {
				return true
			}
		}
	}
	return false
}

// PrioritizeWithinBudget walks files in their already-sorted (descending
// importance) order and returns the prefix whose cumulative token count
// stays within budget. budget <= 0 uses DefaultTokenBudget.
func PrioritizeWithinBudget(files []File, budget int) []File {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	total := 0
	var out []File
	for _, f := range files {
		if total+f.Tokens > budget && len(out) > 0 {
			break
		}
		out = append(out, f)
		total += f.Tokens
	}
	return out
}

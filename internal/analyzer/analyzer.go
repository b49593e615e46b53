// Package analyzer detects project type, framework, architecture, and
// dependency structure from a Scanner result, producing the summary
// object that seeds wiki generation.
package analyzer

import (
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ziadkadry99/repowiki/internal/logging"
	"github.com/ziadkadry99/repowiki/internal/scanner"
)

var log = logging.New("analyzer")

// LanguageStat summarizes how much of the repository a language occupies.
type LanguageStat struct {
	FileCount  int
	TotalSize  int64
	Percentage float64
}

// DirNode is one node of the computed directory tree, with size/token
// rollups over its subtree.
type DirNode struct {
	Name        string
	Path        string // Relative to the project root; "" for the root node.
	Files       []string
	Children    []*DirNode
	TotalSize   int64
	TotalTokens int
}

// ArchitectureRecord captures the project's structural shape.
type ArchitectureRecord struct {
	Type           string // monorepo | single | microservice
	Framework      string
	BuildTool      string
	PackageManager string
	Layers         []string
	Patterns       []string
}

// DependencyEdge is a directed internal dependency edge: From imports To.
type DependencyEdge struct {
	From string
	To   string
}

// DependencyRecord captures declared external dependencies plus the
// internal dependency graph discovered among source files.
type DependencyRecord struct {
	Dependencies     map[string]string
	DevDependencies  map[string]string
	PeerDependencies map[string]string
	InternalEdges    []DependencyEdge
}

// ProjectAnalysis is the summary object ProjectAnalyzer produces; it
// seeds WikiBuilder.
type ProjectAnalysis struct {
	ProjectName     string
	ProjectType     string
	Files           []scanner.File
	LanguageStats   map[string]LanguageStat
	Tree            *DirNode
	Architecture    ArchitectureRecord
	Dependencies    DependencyRecord
	EntryPoints     []string
	MainDirectories []string
}

// marker maps a root-level file to the project type it indicates and the
// package manager it implies.
type marker struct {
	file           string
	projectType    string
	packageManager string
}

var markers = []marker{
	{"go.mod", "Go", "go modules"},
	{"package.json", "Node.js/TypeScript", "npm"},
	{"requirements.txt", "Python", "pip"},
	{"pyproject.toml", "Python", "poetry"},
	{"Cargo.toml", "Rust", "cargo"},
	{"pom.xml", "Java", "maven"},
	{"build.gradle", "Java/Kotlin", "gradle"},
	{"Gemfile", "Ruby", "bundler"},
	{"composer.json", "PHP", "composer"},
}

// lockfilePackageManager refines the package-manager guess for ecosystems
// with more than one common client.
var lockfilePackageManager = map[string]string{
	"yarn.lock":         "yarn",
	"pnpm-lock.yaml":    "pnpm",
	"package-lock.json": "npm",
	"poetry.lock":       "poetry",
	"Pipfile.lock":      "pipenv",
}

var frameworkMarkers = []struct {
	dep       string
	framework string
}{
	{"react", "React"},
	{"next", "Next.js"},
	{"vue", "Vue"},
	{"nuxt", "Nuxt"},
	{"@angular/core", "Angular"},
	{"express", "Express"},
	{"@nestjs/core", "NestJS"},
	{"fastify", "Fastify"},
	{"django", "Django"},
	{"flask", "Flask"},
	{"fastapi", "FastAPI"},
	{"github.com/gin-gonic/gin", "Gin"},
	{"github.com/labstack/echo", "Echo"},
	{"github.com/gofiber/fiber", "Fiber"},
	{"spring-boot", "Spring Boot"},
	{"rails", "Rails"},
}

var layerDirNames = map[string]string{
	"internal":   "internal",
	"pkg":        "pkg",
	"cmd":        "cmd",
	"controllers": "controllers",
	"handlers":   "handlers",
	"services":   "services",
	"models":     "models",
	"views":      "views",
	"routes":     "routes",
	"components": "components",
	"repositories": "repositories",
	"middleware": "middleware",
}

// Analyze inspects the scanned files of a project rooted at root and
// produces its ProjectAnalysis.
func Analyze(root string, files []scanner.File) (*ProjectAnalysis, error) {
	projectName := filepath.Base(filepath.Clean(root))

	analysis := &ProjectAnalysis{
		ProjectName:   projectName,
		Files:         files,
		LanguageStats: computeLanguageStats(files),
		Tree:          buildTree(files),
	}

	analysis.ProjectType, analysis.Architecture.PackageManager = detectProjectType(root, files)
	analysis.Architecture.Type = detectArchitectureType(files)
	analysis.Architecture.Framework = detectFramework(files)
	analysis.Architecture.BuildTool = detectBuildTool(files)
	analysis.Architecture.Layers = detectLayers(files)
	analysis.Architecture.Patterns = detectPatterns(files, analysis.Architecture.Layers)

	analysis.Dependencies = parseDependencies(files)
	analysis.Dependencies.InternalEdges = internalEdges(files)

	analysis.EntryPoints = entryPoints(files)
	analysis.MainDirectories = mainDirectories(files)

	log.Debugf("analyzed %s: type=%s framework=%s files=%d", projectName, analysis.ProjectType, analysis.Architecture.Framework, len(files))

	return analysis, nil
}

func computeLanguageStats(files []scanner.File) map[string]LanguageStat {
	stats := make(map[string]LanguageStat)
	var totalSize int64
	for _, f := range files {
		lang := f.Language
		if lang == "" {
			lang = "unknown"
		}
		s := stats[lang]
		s.FileCount++
		s.TotalSize += f.Size
		stats[lang] = s
		totalSize += f.Size
	}
	if totalSize == 0 {
		return stats
	}
	for lang, s := range stats {
		s.Percentage = float64(s.TotalSize) / float64(totalSize) * 100
		stats[lang] = s
	}
	return stats
}

// buildTree constructs the directory tree with per-node size/token
// rollups from the flat file list.
func buildTree(files []scanner.File) *DirNode {
	root := &DirNode{Name: "", Path: ""}
	nodes := map[string]*DirNode{"": root}

	var ensureDir func(dir string) *DirNode
	ensureDir = func(dir string) *DirNode {
		if n, ok := nodes[dir]; ok {
			return n
		}
		parentDir := path.Dir(dir)
		if parentDir == "." || parentDir == dir {
			parentDir = ""
		}
		parent := ensureDir(parentDir)
		n := &DirNode{Name: path.Base(dir), Path: dir}
		parent.Children = append(parent.Children, n)
		nodes[dir] = n
		return n
	}

	for _, f := range files {
		dir := path.Dir(f.RelPath)
		if dir == "." {
			dir = ""
		}
		node := ensureDir(dir)
		node.Files = append(node.Files, f.RelPath)

		for d := dir; ; {
			n := nodes[d]
			n.TotalSize += f.Size
			n.TotalTokens += f.Tokens
			if d == "" {
				break
			}
			d = path.Dir(d)
			if d == "." {
				d = ""
			}
		}
	}

	for _, n := range nodes {
		sort.Strings(n.Files)
		sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	}

	return root
}

func detectProjectType(root string, files []scanner.File) (projectType, packageManager string) {
	rootFiles := make(map[string]bool)
	for _, f := range files {
		if !strings.Contains(f.RelPath, "/") {
			rootFiles[f.RelPath] = true
		}
		if lockfilePackageManager[filepath.Base(f.RelPath)] != "" && !strings.Contains(f.RelPath, "/") {
			packageManager = lockfilePackageManager[filepath.Base(f.RelPath)]
		}
	}

	for _, m := range markers {
		if rootFiles[m.file] {
			if packageManager == "" {
				packageManager = m.packageManager
			}
			return m.projectType, packageManager
		}
	}
	return "unknown", packageManager
}

// detectArchitectureType classifies the project as monorepo (multiple
// independent manifest roots), microservice (multiple cmd-style
// entry-point directories), or single.
func detectArchitectureType(files []scanner.File) string {
	manifestDirs := make(map[string]bool)
	cmdDirs := make(map[string]bool)

	for _, f := range files {
		base := filepath.Base(f.RelPath)
		dir := path.Dir(f.RelPath)
		for _, m := range markers {
			if base == m.file {
				manifestDirs[dir] = true
			}
		}
		if strings.HasPrefix(f.RelPath, "cmd/") && base == "main.go" {
			parts := strings.Split(f.RelPath, "/")
			if len(parts) >= 2 {
				cmdDirs[parts[1]] = true
			}
		}
	}

	if len(manifestDirs) > 1 {
		return "monorepo"
	}
	if len(cmdDirs) > 1 {
		return "microservice"
	}
	return "single"
}

func detectFramework(files []scanner.File) string {
	deps := parseDependencies(files)
	for _, fm := range frameworkMarkers {
		if _, ok := deps.Dependencies[fm.dep]; ok {
			return fm.framework
		}
		if _, ok := deps.DevDependencies[fm.dep]; ok {
			return fm.framework
		}
	}
	for _, f := range files {
		for _, imp := range f.Imports {
			for _, fm := range frameworkMarkers {
				if strings.Contains(imp, fm.dep) {
					return fm.framework
				}
			}
		}
	}
	return ""
}

func detectBuildTool(files []scanner.File) string {
	for _, f := range files {
		switch filepath.Base(f.RelPath) {
		case "Makefile":
			return "make"
		case "go.mod":
			return "go build"
		case "pom.xml":
			return "maven"
		case "build.gradle", "build.gradle.kts":
			return "gradle"
		case "Cargo.toml":
			return "cargo"
		}
	}
	for _, f := range files {
		if strings.Contains(f.RelPath, "webpack.config") {
			return "webpack"
		}
		if strings.Contains(f.RelPath, "vite.config") {
			return "vite"
		}
	}
	return ""
}

func detectLayers(files []scanner.File) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		for _, part := range strings.Split(path.Dir(f.RelPath), "/") {
			if name, ok := layerDirNames[strings.ToLower(part)]; ok {
				seen[name] = true
			}
		}
	}
	layers := make([]string, 0, len(seen))
	for l := range seen {
		layers = append(layers, l)
	}
	sort.Strings(layers)
	return layers
}

func detectPatterns(files []scanner.File, layers []string) []string {
	layerSet := make(map[string]bool, len(layers))
	for _, l := range layers {
		layerSet[l] = true
	}

	var patterns []string
	if layerSet["repositories"] {
		patterns = append(patterns, "repository pattern")
	}
	if layerSet["controllers"] && layerSet["views"] && layerSet["models"] {
		patterns = append(patterns, "MVC")
	}
	if layerSet["handlers"] && layerSet["services"] {
		patterns = append(patterns, "layered service architecture")
	}
	if layerSet["middleware"] {
		patterns = append(patterns, "middleware pipeline")
	}
	for _, f := range files {
		for _, imp := range f.Imports {
			if strings.Contains(imp, "google/wire") || strings.Contains(imp, "uber-go/dig") {
				patterns = append(patterns, "dependency injection")
			}
		}
	}
	return dedupe(patterns)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

var npmDepLineRe = regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]+)"`)

// parseDependencies reads the declared dependency manifests present in
// the scanned file set. Only root-level manifests are considered.
func parseDependencies(files []scanner.File) DependencyRecord {
	rec := DependencyRecord{
		Dependencies:     map[string]string{},
		DevDependencies:  map[string]string{},
		PeerDependencies: map[string]string{},
	}

	for _, f := range files {
		if strings.Contains(f.RelPath, "/") {
			continue // root-level manifests only
		}
		switch filepath.Base(f.RelPath) {
		case "package.json":
			parsePackageJSON(f.Content, &rec)
		case "go.mod":
			parseGoMod(f.Content, &rec)
		case "requirements.txt":
			parseRequirementsTxt(f.Content, &rec)
		case "Cargo.toml":
			parseCargoToml(f.Content, &rec)
		}
	}
	return rec
}

func parsePackageJSON(content string, rec *DependencyRecord) {
	section := ""
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, `"dependencies"`):
			section = "dependencies"
			continue
		case strings.HasPrefix(trimmed, `"devDependencies"`):
			section = "devDependencies"
			continue
		case strings.HasPrefix(trimmed, `"peerDependencies"`):
			section = "peerDependencies"
			continue
		case trimmed == "}" || trimmed == "},":
			section = ""
			continue
		}
		if section == "" {
			continue
		}
		m := npmDepLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		switch section {
		case "dependencies":
			rec.Dependencies[m[1]] = m[2]
		case "devDependencies":
			rec.DevDependencies[m[1]] = m[2]
		case "peerDependencies":
			rec.PeerDependencies[m[1]] = m[2]
		}
	}
}

func parseGoMod(content string, rec *DependencyRecord) {
	inRequire := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "require (") {
			inRequire = true
			continue
		}
		if inRequire && trimmed == ")" {
			inRequire = false
			continue
		}
		if strings.HasPrefix(trimmed, "require ") && !strings.Contains(trimmed, "(") {
			trimmed = strings.TrimPrefix(trimmed, "require ")
			addGoModLine(trimmed, rec)
			continue
		}
		if inRequire {
			addGoModLine(trimmed, rec)
		}
	}
}

func addGoModLine(line string, rec *DependencyRecord) {
	line = strings.TrimSuffix(line, "// indirect")
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	rec.Dependencies[fields[0]] = fields[1]
}

func parseRequirementsTxt(content string, rec *DependencyRecord) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		matched := false
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<"} {
			if idx := strings.Index(trimmed, sep); idx > 0 {
				rec.Dependencies[trimmed[:idx]] = trimmed[idx:]
				matched = true
				break
			}
		}
		if !matched {
			rec.Dependencies[trimmed] = ""
		}
	}
}

func parseCargoToml(content string, rec *DependencyRecord) {
	section := ""
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[dependencies]") {
			section = "dependencies"
			continue
		}
		if strings.HasPrefix(trimmed, "[dev-dependencies]") {
			section = "devDependencies"
			continue
		}
		if strings.HasPrefix(trimmed, "[") {
			section = ""
			continue
		}
		if section == "" || trimmed == "" {
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		version := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		if section == "dependencies" {
			rec.Dependencies[name] = version
		} else {
			rec.DevDependencies[name] = version
		}
	}
}

// internalEdges generalizes the teacher's reverse-dependency BFS
// (ExpandChangedFiles's directory-matching heuristic) into forward
// edges: for each file, which other directories in the tree its imports
// plausibly resolve to.
func internalEdges(files []scanner.File) []DependencyEdge {
	byDir := make(map[string][]string) // dir -> relpaths of files in it
	for _, f := range files {
		dir := path.Dir(f.RelPath)
		byDir[dir] = append(byDir[dir], f.RelPath)
	}

	var edges []DependencyEdge
	for _, f := range files {
		for _, imp := range f.Imports {
			for dir := range byDir {
				if depMatchesDir(imp, dir) && dir != path.Dir(f.RelPath) {
					edges = append(edges, DependencyEdge{From: f.RelPath, To: dir})
				}
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// depMatchesDir reports whether an import path plausibly refers to dir,
// mirroring the fuzzy suffix/segment matching the teacher's dependency
// expansion used for reverse lookups.
func depMatchesDir(depName, dir string) bool {
	depName = filepath.ToSlash(depName)
	dir = filepath.ToSlash(dir)

	if depName == "" || dir == "" || dir == "." {
		return false
	}
	if depName == dir {
		return true
	}
	if strings.HasSuffix(depName, "/"+dir) {
		return true
	}
	if base := path.Base(dir); base != "." && depName == base {
		return true
	}
	if strings.Contains(depName, "/"+dir+"/") {
		return true
	}
	return false
}

func entryPoints(files []scanner.File) []string {
	var eps []string
	for _, f := range files {
		base := strings.ToLower(filepath.Base(f.RelPath))
		if scanner.IsEntryPointName(base) {
			eps = append(eps, f.RelPath)
		}
	}
	sort.Strings(eps)
	return eps
}

// mainDirectories returns the top-level directories ranked by total file
// count, capped at 10.
func mainDirectories(files []scanner.File) []string {
	counts := make(map[string]int)
	for _, f := range files {
		parts := strings.SplitN(f.RelPath, "/", 2)
		if len(parts) < 2 {
			continue // root-level file, not a directory
		}
		counts[parts[0]]++
	}

	dirs := make([]string, 0, len(counts))
	for d := range counts {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if counts[dirs[i]] != counts[dirs[j]] {
			return counts[dirs[i]] > counts[dirs[j]]
		}
		return dirs[i] < dirs[j]
	})
	if len(dirs) > 10 {
		dirs = dirs[:10]
	}
	return dirs
}

// Package wiki builds the fixed set of derived wiki documents
// (overview, architecture, file structure, per-area code-analysis
// sections, dependencies, setup, usage) from a ProjectAnalyzer result.
// It produces WikiData as a Go value only — markdown rendering is out
// of scope (spec §1).
package wiki

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/repowiki/internal/analyzer"
	"github.com/ziadkadry99/repowiki/internal/generator"
	"github.com/ziadkadry99/repowiki/internal/logging"
	"github.com/ziadkadry99/repowiki/internal/scanner"
	"github.com/ziadkadry99/repowiki/internal/vectorstore"
)

var log = logging.New("wiki")

// CodeBlock is one annotated excerpt inside a CodeAnalysisSection.
type CodeBlock struct {
	Language    string
	Code        string
	Description string
	FilePath    string
}

// CodeAnalysisSection groups a set of related files into one wiki
// section with a narrative description and representative excerpts.
type CodeAnalysisSection struct {
	Title      string
	Content    string
	Files      []string
	CodeBlocks []CodeBlock
}

// WikiData is the full derived wiki document set for one project.
type WikiData struct {
	ProjectName   string
	Overview      string
	Architecture  string
	FileStructure string
	CodeAnalysis  []CodeAnalysisSection
	Dependencies  string
	Setup         string
	Usage         string
	GeneratedAt   time.Time
}

// maxCodeBlocksPerSection caps how many excerpts each section carries,
// keeping generated wiki documents a bounded size regardless of repo
// size.
const maxCodeBlocksPerSection = 3

// excerptLines is how many leading lines of a file are kept as its
// code-block excerpt.
const excerptLines = 25

// Build produces WikiData purely from a ProjectAnalysis, with no
// language-model dependency. This is the baseline path: it always
// succeeds, including for an empty repository (spec §8's empty-repo
// case), so a wiki can always be produced even without configured
// generator credentials.
func Build(analysis *analyzer.ProjectAnalysis) *WikiData {
	data := &WikiData{
		ProjectName:   analysis.ProjectName,
		Overview:      buildOverview(analysis),
		Architecture:  buildArchitectureSummary(analysis),
		FileStructure: renderTree(analysis.Tree, 0),
		CodeAnalysis:  buildCodeAnalysisSections(analysis),
		Dependencies:  buildDependenciesSummary(analysis),
		Setup:         buildSetup(analysis),
		Usage:         buildUsage(analysis),
		GeneratedAt:   time.Now(),
	}
	return data
}

// BuildEnriched runs Build and then, if gen is non-nil, asks it to
// rewrite the narrative sections (overview/architecture/setup/usage)
// from a sectioned prompt in the teacher's marker-delimited style. Any
// failure — network error, unparseable response — leaves the baseline
// sections untouched and is logged, never returned as an error: wiki
// generation must not fail a build merely because enrichment failed.
func BuildEnriched(ctx context.Context, analysis *analyzer.ProjectAnalysis, gen generator.Provider, model string) *WikiData {
	data := Build(analysis)
	if gen == nil {
		return data
	}

	resp, err := gen.Complete(ctx, generator.CompletionRequest{
		Model:       model,
		Messages:    []generator.Message{{Role: generator.RoleUser, Content: enrichmentPrompt(analysis, data)}},
		MaxTokens:   4096,
		Temperature: 0.3,
	})
	if err != nil {
		log.Warnf("wiki enrichment via %s failed, using baseline: %v", gen.Name(), err)
		return data
	}

	hasMarker := false
	for _, m := range enrichmentMarkers {
		if strings.Contains(resp.Content, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		log.Warnf("wiki enrichment via %s returned no section markers, using baseline", gen.Name())
		return data
	}

	applyEnrichment(data, resp.Content)
	return data
}

func buildOverview(a *analyzer.ProjectAnalysis) string {
	if len(a.Files) == 0 {
		return fmt.Sprintf("%s is an empty repository; no source files were discovered.", a.ProjectName)
	}

	langs := make([]string, 0, len(a.LanguageStats))
	for l := range a.LanguageStats {
		langs = append(langs, l)
	}
	sort.Strings(langs)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s is a %s project", a.ProjectName, orUnknown(a.ProjectType))
	if a.Architecture.Framework != "" {
		fmt.Fprintf(&sb, " built on %s", a.Architecture.Framework)
	}
	fmt.Fprintf(&sb, ". It spans %d files across %d language%s", len(a.Files), len(langs), plural(len(langs)))
	if len(langs) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(langs, ", "))
	}
	sb.WriteString(".")
	if a.Architecture.Type != "" {
		fmt.Fprintf(&sb, " Its overall structure is %s.", a.Architecture.Type)
	}
	return sb.String()
}

func buildArchitectureSummary(a *analyzer.ProjectAnalysis) string {
	if len(a.Files) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Architecture type: %s.", orUnknown(a.Architecture.Type))
	if a.Architecture.BuildTool != "" {
		fmt.Fprintf(&sb, " Build tool: %s.", a.Architecture.BuildTool)
	}
	if a.Architecture.PackageManager != "" {
		fmt.Fprintf(&sb, " Package manager: %s.", a.Architecture.PackageManager)
	}
	if len(a.Architecture.Layers) > 0 {
		fmt.Fprintf(&sb, " Layers: %s.", strings.Join(a.Architecture.Layers, ", "))
	}
	if len(a.Architecture.Patterns) > 0 {
		fmt.Fprintf(&sb, " Detected patterns: %s.", strings.Join(a.Architecture.Patterns, ", "))
	}
	return sb.String()
}

func renderTree(node *analyzer.DirNode, depth int) string {
	if node == nil {
		return ""
	}
	var sb strings.Builder
	renderTreeNode(&sb, node, depth)
	return strings.TrimRight(sb.String(), "\n")
}

func renderTreeNode(sb *strings.Builder, node *analyzer.DirNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if node.Path != "" {
		fmt.Fprintf(sb, "%s%s/\n", indent, path.Base(node.Path))
	}
	childIndent := indent
	if node.Path != "" {
		childIndent = indent + "  "
	}
	for _, f := range node.Files {
		fmt.Fprintf(sb, "%s%s\n", childIndent, path.Base(f))
	}
	for _, c := range node.Children {
		renderTreeNode(sb, c, depth+1)
	}
}

// buildCodeAnalysisSections groups files by the project's main
// directories (as detected by ProjectAnalyzer), one section per
// directory, with a handful of representative excerpts.
func buildCodeAnalysisSections(a *analyzer.ProjectAnalysis) []CodeAnalysisSection {
	if len(a.Files) == 0 {
		return nil
	}

	byDir := make(map[string][]scanner.File)
	var rootFiles []scanner.File
	for _, f := range a.Files {
		top := strings.SplitN(f.RelPath, "/", 2)
		if len(top) < 2 {
			rootFiles = append(rootFiles, f)
			continue
		}
		byDir[top[0]] = append(byDir[top[0]], f)
	}

	var sections []CodeAnalysisSection
	if len(rootFiles) > 0 {
		sections = append(sections, buildSection("Root", rootFiles))
	}
	for _, dir := range a.MainDirectories {
		files, ok := byDir[dir]
		if !ok {
			continue
		}
		sections = append(sections, buildSection(dir, files))
	}
	return sections
}

func buildSection(title string, files []scanner.File) CodeAnalysisSection {
	sort.Slice(files, func(i, j int) bool {
		if files[i].Importance != files[j].Importance {
			return files[i].Importance > files[j].Importance
		}
		return files[i].RelPath < files[j].RelPath
	})

	sec := CodeAnalysisSection{
		Title:   title,
		Content: fmt.Sprintf("%d file(s) under %s.", len(files), title),
	}
	for _, f := range files {
		sec.Files = append(sec.Files, f.RelPath)
	}
	sort.Strings(sec.Files)

	for _, f := range files {
		if len(sec.CodeBlocks) >= maxCodeBlocksPerSection {
			break
		}
		if f.Content == "" {
			continue
		}
		sec.CodeBlocks = append(sec.CodeBlocks, CodeBlock{
			Language:    f.Language,
			Code:        firstLines(f.Content, excerptLines),
			Description: fmt.Sprintf("Excerpt from %s", f.RelPath),
			FilePath:    f.RelPath,
		})
	}
	return sec
}

func firstLines(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func buildDependenciesSummary(a *analyzer.ProjectAnalysis) string {
	total := len(a.Dependencies.Dependencies) + len(a.Dependencies.DevDependencies)
	if total == 0 {
		return "No declared dependencies were found."
	}

	names := make([]string, 0, len(a.Dependencies.Dependencies))
	for name := range a.Dependencies.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d declared dependencies, %d dev dependencies.\n", len(a.Dependencies.Dependencies), len(a.Dependencies.DevDependencies))
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s %s\n", name, a.Dependencies.Dependencies[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func buildSetup(a *analyzer.ProjectAnalysis) string {
	switch a.Architecture.PackageManager {
	case "npm":
		return "npm install"
	case "yarn":
		return "yarn install"
	case "pnpm":
		return "pnpm install"
	case "pip":
		return "pip install -r requirements.txt"
	case "poetry":
		return "poetry install"
	case "cargo":
		return "cargo build"
	case "go modules":
		return "go mod download"
	case "maven":
		return "mvn install"
	case "gradle":
		return "./gradlew build"
	case "bundler":
		return "bundle install"
	case "composer":
		return "composer install"
	default:
		return ""
	}
}

func buildUsage(a *analyzer.ProjectAnalysis) string {
	if len(a.EntryPoints) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Entry points:\n")
	for _, ep := range a.EntryPoints {
		fmt.Fprintf(&sb, "- %s\n", ep)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown-type"
	}
	return s
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// enrichmentPrompt builds the teacher-style marker-delimited prompt
// used to ask the generator for richer narrative sections.
func enrichmentPrompt(a *analyzer.ProjectAnalysis, data *WikiData) string {
	return fmt.Sprintf(`You are writing a wiki for the software project %q.

Baseline facts:
%s

%s

Respond with the following sections separated by the markers shown. If you
have nothing better than the baseline facts to add for a section, repeat it.

===OVERVIEW===
A 2-4 paragraph overview of what this project is and does.

===ARCHITECTURE===
A 2-4 paragraph description of its architecture.

===SETUP===
Concise setup/installation instructions.

===USAGE===
Concise usage instructions.`, a.ProjectName, data.Overview, data.Architecture)
}

var enrichmentMarkers = []string{"===OVERVIEW===", "===ARCHITECTURE===", "===SETUP===", "===USAGE==="}

// applyEnrichment parses the marker-delimited response and overwrites
// the corresponding WikiData fields when a section was present and
// non-empty.
func applyEnrichment(data *WikiData, content string) {
	sections := map[string]*string{
		"===OVERVIEW===":     &data.Overview,
		"===ARCHITECTURE===": &data.Architecture,
		"===SETUP===":        &data.Setup,
		"===USAGE===":        &data.Usage,
	}

	for marker, field := range sections {
		idx := strings.Index(content, marker)
		if idx < 0 {
			continue
		}
		after := content[idx+len(marker):]
		end := len(after)
		for _, other := range enrichmentMarkers {
			if other == marker {
				continue
			}
			if i := strings.Index(after, other); i >= 0 && i < end {
				end = i
			}
		}
		text := strings.TrimSpace(after[:end])
		if text != "" {
			*field = text
		}
	}
}

// Documents converts the six fixed wiki sections into searchable
// vectorstore.Documents, one per section, indexed under "wiki/<section>"
// alongside the source chunks (spec §2 Flow, §3 Document model). The
// per-area CodeAnalysis sections are already derived from, and
// reference, the source files themselves, so they are not duplicated
// into the index here.
func (d *WikiData) Documents() []vectorstore.Document {
	sections := []struct {
		name    string
		content string
	}{
		{"overview", d.Overview},
		{"architecture", d.Architecture},
		{"file-structure", d.FileStructure},
		{"dependencies", d.Dependencies},
		{"setup", d.Setup},
		{"usage", d.Usage},
	}

	docs := make([]vectorstore.Document, 0, len(sections))
	for _, s := range sections {
		docPath := "wiki/" + s.name
		docs = append(docs, vectorstore.Document{
			ID:      docPath,
			Title:   d.ProjectName + " " + s.name,
			Content: s.content,
			Path:    docPath,
			Type:    vectorstore.DocTypeWiki,
			Metadata: vectorstore.DocumentMetadata{
				FilePath:    docPath,
				LastUpdated: d.GeneratedAt,
			},
		})
	}
	return docs
}

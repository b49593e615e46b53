package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
)

// projectTypePatterns maps marker files to human-readable project types
// and a recommended include glob, used only to seed the wizard's default
// answer — ProjectAnalyzer's own detection (internal/analyzer) is the
// authoritative one used during indexing.
var projectTypePatterns = map[string]struct {
	Name    string
	Include string
}{
	"go.mod":           {Name: "Go", Include: "**/*.go"},
	"package.json":     {Name: "Node.js/TypeScript", Include: "**/*.{js,ts,jsx,tsx}"},
	"requirements.txt": {Name: "Python", Include: "**/*.py"},
	"pyproject.toml":   {Name: "Python", Include: "**/*.py"},
	"Cargo.toml":       {Name: "Rust", Include: "**/*.rs"},
	"pom.xml":          {Name: "Java", Include: "**/*.java"},
	"build.gradle":     {Name: "Java/Kotlin", Include: "**/*.{java,kt}"},
	"Gemfile":          {Name: "Ruby", Include: "**/*.rb"},
	"composer.json":    {Name: "PHP", Include: "**/*.php"},
}

func detectProjectType(root string) (name string, include string) {
	for marker, info := range projectTypePatterns {
		matches, _ := filepath.Glob(filepath.Join(root, marker))
		if len(matches) > 0 {
			return info.Name, info.Include
		}
	}
	return "", "**"
}

// RunWizard runs an interactive configuration wizard over the repo at
// root and returns the resulting Config. It also saves the config to
// <root>/.repowiki.yml.
func RunWizard(root string) (*Config, error) {
	fmt.Println("Let's configure repowiki for this repository.")
	fmt.Println()

	projType, defaultInclude := detectProjectType(root)
	if projType != "" {
		fmt.Printf("Detected project type: %s\n\n", projType)
	}

	providerPrompt := promptui.Select{
		Label: "Select generator provider",
		Items: []string{"anthropic", "openai", "google", "qwen", "azure", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	modelPrompt := promptui.Prompt{
		Label:   "Model identifier",
		Default: PresetModel(provider),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	embedderPrompt := promptui.Select{
		Label: "Select embedder provider",
		Items: []string{"local", "openai", "google", "ollama"},
	}
	_, embedderStr, err := embedderPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedder selection: %w", err)
	}

	includePrompt := promptui.Prompt{
		Label:   "Include patterns (comma-separated globs)",
		Default: defaultInclude,
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	include := splitAndTrim(includeStr)

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.Embedder.Provider = ProviderType(embedderStr)
	cfg.IncludedFiles = include

	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: set %s in your environment before running `repowiki build`.\n", envVar)
	}

	configPath := filepath.Join(root, ".repowiki.yml")
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace from
// each token, dropping empty entries.
func splitAndTrim(s string) []string {
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			token := trimSpace(s[start:i])
			if token != "" {
				result = append(result, token)
			}
			start = i + 1
		}
	}
	return result
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}

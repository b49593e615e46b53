package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repowiki/internal/indexcache"
	"github.com/ziadkadry99/repowiki/internal/rag"
)

var similarCmd = &cobra.Command{
	Use:   "similar <repoPath> <question>",
	Short: "Find the most similar indexed chunks to a question, without generation",
	Long:  `Performs a similarity-only search against the persisted index and prints ranked matches. Use this to inspect retrieval quality without spending a generation call.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSimilar,
}

func init() {
	similarCmd.Flags().Int("limit", 10, "maximum number of results")
	similarCmd.Flags().Float32("threshold", 0, "minimum similarity score to keep a result")
	similarCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repoPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	question := args[1]

	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat32("threshold")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cache := indexcache.Open(repoPath)
	store, err := loadStore(ctx, cfg, cache.VectorsDir())
	if err != nil {
		return err
	}
	if store.Count() == 0 {
		fmt.Printf("No index found at %s. Run `repowiki build %s` first.\n", cache.Dir(), repoPath)
		return nil
	}

	engine := rag.New(store, nil, cfg.Model)
	matches, err := engine.Similar(ctx, question, limit, threshold)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if jsonOutput {
		return printSimilarJSON(matches)
	}
	printSimilarTable(matches)
	return nil
}

type similarResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	FilePath   string  `json:"file_path"`
	LineStart  int     `json:"line_start,omitempty"`
	LineEnd    int     `json:"line_end,omitempty"`
	Language   string  `json:"language,omitempty"`
	Excerpt    string  `json:"excerpt"`
}

func printSimilarJSON(matches []rag.SimilarMatch) error {
	out := make([]similarResultJSON, 0, len(matches))
	for i, m := range matches {
		out = append(out, similarResultJSON{
			Rank:       i + 1,
			Similarity: float64(m.Similarity),
			FilePath:   m.Document.Metadata.FilePath,
			LineStart:  m.Document.Metadata.LineStart,
			LineEnd:    m.Document.Metadata.LineEnd,
			Language:   m.Document.Metadata.Language,
			Excerpt:    truncate(m.Document.Content, 200),
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printSimilarTable(matches []rag.SimilarMatch) {
	fmt.Printf("Found %d results:\n\n", len(matches))
	for i, m := range matches {
		location := m.Document.Metadata.FilePath
		if m.Document.Metadata.LineStart > 0 {
			location = fmt.Sprintf("%s:%d", location, m.Document.Metadata.LineStart)
		}
		fmt.Printf("  %d. [%.1f%%] %s\n", i+1, m.Similarity*100, location)
		fmt.Printf("     %s\n\n", truncate(m.Document.Content, 120))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

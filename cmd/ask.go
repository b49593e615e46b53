package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repowiki/internal/errs"
	"github.com/ziadkadry99/repowiki/internal/indexcache"
	"github.com/ziadkadry99/repowiki/internal/rag"
	"github.com/ziadkadry99/repowiki/internal/router"
)

var askCmd = &cobra.Command{
	Use:   "ask <repoPath> <question>",
	Short: "Ask a natural-language question against an indexed repository",
	Long: `Retrieves the most relevant indexed chunks for question and asks the
configured generator to answer, citing the retrieved files. Run
'repowiki build' first; ask fails with a cache-miss error if no index
has been persisted yet.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int("max-results", 5, "maximum number of retrieved chunks")
	askCmd.Flags().Float32("threshold", 0.3, "minimum similarity score to keep a retrieved chunk")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repoPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	question := args[1]

	maxResults, _ := cmd.Flags().GetInt("max-results")
	threshold, _ := cmd.Flags().GetFloat32("threshold")

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
		return &errs.CacheMissError{Reason: fmt.Sprintf("no index found at %s; run `repowiki build %s` first", cache.Dir(), repoPath)}
	}

	r, err := router.New(cfg)
	if err != nil {
		return err
	}
	gen, err := r.Generator()
	if err != nil {
		return err
	}

	engine := rag.New(store, gen, cfg.Model)
	result, err := engine.Query(ctx, rag.Query{
		Question:            question,
		MaxResults:          maxResults,
		SimilarityThreshold: threshold,
	})
	if err != nil {
		return fmt.Errorf("querying: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range result.Sources {
			location := s.FilePath
			if s.LineStart > 0 {
				location = fmt.Sprintf("%s:%d-%d", location, s.LineStart, s.LineEnd)
			}
			fmt.Printf("  - [%.1f%%] %s\n", s.Similarity*100, location)
		}
	}
	fmt.Printf("\nConfidence: %.0f%%\n", result.Confidence*100)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repowiki/internal/analyzer"
	"github.com/ziadkadry99/repowiki/internal/indexcache"
)

var statsCmd = &cobra.Command{
	Use:   "stats [repoPath]",
	Short: "Show index statistics for a repository, or the global index summary",
	Long:  `With repoPath, prints the document count and embedding dimensions of its persisted index. Without an argument, lists every repository tracked in the global index.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		global, err := indexcache.OpenGlobalIndex(indexcache.DefaultGlobalIndexPath())
		if err != nil {
			return fmt.Errorf("opening global index: %w", err)
		}
		defer global.Close()

		entries, err := global.Entries()
		if err != nil {
			return fmt.Errorf("listing tracked repositories: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No repositories tracked yet. Run `repowiki build <repoPath>`.")
			return nil
		}
		fmt.Printf("%d tracked repositories:\n\n", len(entries))
		for _, e := range entries {
			fmt.Printf("  %-40s %s  (last built %s)\n", e.ProjectName, e.ProjectPath, e.LastModified.Format("2006-01-02 15:04"))
		}
		return nil
	}

	repoPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cache := indexcache.Open(repoPath)
	store, err := loadStore(ctx, cfg, cache.VectorsDir())
	if err != nil {
		return err
	}

	var analysis analyzer.ProjectAnalysis
	hasAnalysis := cache.LoadAnalysis(&analysis)

	s := store.Stats()
	fmt.Printf("Repository: %s\n", repoPath)
	if hasAnalysis {
		fmt.Printf("Project: %s (%s)\n", analysis.ProjectName, analysis.ProjectType)
	}
	fmt.Printf("Indexed documents: %d\n", s.TotalDocuments)
	fmt.Printf("Embedding dimensions: %d\n", s.Dimensions)
	return nil
}

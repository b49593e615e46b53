package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repowiki/internal/indexcache"
	"github.com/ziadkadry99/repowiki/internal/progress"
	"github.com/ziadkadry99/repowiki/internal/router"
	"github.com/ziadkadry99/repowiki/internal/wiki"
)

var buildCmd = &cobra.Command{
	Use:   "build <repoPath>",
	Short: "Scan, embed, and index a repository, generating its wiki",
	Long: `Scans the repository at repoPath, chunks and embeds its source, builds
a semantic index, and generates a project wiki (optionally enriched by
the configured generator). Everything is persisted under
<repoPath>/.deepwiki so subsequent ask/similar/stats commands reuse it.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Bool("no-enrich", false, "skip LLM-based wiki enrichment, keep the static baseline")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repoPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	noEnrich, _ := cmd.Flags().GetBool("no-enrich")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reporter := progress.NewReporter()
	reporter.Start(4)

	result, err := buildIndex(ctx, cfg, repoPath, func(stage string) {
		reporter.Update(1, stage)
	})
	if err != nil {
		reporter.Finish()
		return err
	}
	reporter.Update(2, "building wiki")

	wikiData := wiki.Build(result.Analysis)
	if !noEnrich {
		if r, err := router.New(cfg); err == nil {
			if gen, err := r.Generator(); err == nil {
				wikiData = wiki.BuildEnriched(ctx, result.Analysis, gen, cfg.Model)
			}
		}
	}

	if err := result.Store.AddBatch(ctx, wikiData.Documents()); err != nil {
		return fmt.Errorf("indexing wiki documents: %w", err)
	}

	reporter.Update(3, "persisting index")
	cache := indexcache.Open(repoPath)
	if err := cache.SaveAnalysis(result.Analysis); err != nil {
		return fmt.Errorf("saving analysis cache: %w", err)
	}
	if err := cache.SaveWiki(wikiData); err != nil {
		return fmt.Errorf("saving wiki cache: %w", err)
	}
	if err := result.Store.Persist(ctx, cache.VectorsDir()); err != nil {
		return fmt.Errorf("persisting vector store: %w", err)
	}

	reporter.Update(4, "updating global index")
	global, err := indexcache.OpenGlobalIndex(indexcache.DefaultGlobalIndexPath())
	if err == nil {
		defer global.Close()
		if evicted, touchErr := global.Touch(repoPath, result.Analysis.ProjectName); touchErr == nil {
			for _, p := range evicted {
				_ = indexcache.Open(p).Clear()
			}
		}
	}
	reporter.Finish()

	fmt.Printf("Indexed %d chunks from %d files into %s\n", len(result.Chunks), len(result.Analysis.Files), cache.Dir())
	return nil
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repowiki/internal/indexcache"
)

var clearCmd = &cobra.Command{
	Use:   "clear [repoPath]",
	Short: "Remove a repository's cached index, wiki, and conversations",
	Long:  `Removes the .deepwiki cache directory for repoPath. With --all, clears every repository tracked in the global index instead.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().Bool("all", false, "clear every repository tracked in the global index")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	if all {
		global, err := indexcache.OpenGlobalIndex(indexcache.DefaultGlobalIndexPath())
		if err != nil {
			return fmt.Errorf("opening global index: %w", err)
		}
		defer global.Close()

		entries, err := global.Entries()
		if err != nil {
			return fmt.Errorf("listing tracked repositories: %w", err)
		}
		for _, e := range entries {
			if err := indexcache.Open(e.ProjectPath).Clear(); err != nil {
				fmt.Printf("warning: clearing %s: %v\n", e.ProjectPath, err)
				continue
			}
			if err := global.Remove(e.ProjectPath); err != nil {
				fmt.Printf("warning: removing %s from global index: %v\n", e.ProjectPath, err)
			}
		}
		fmt.Printf("Cleared %d repositories.\n", len(entries))
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("repoPath is required unless --all is set")
	}
	repoPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	if err := indexcache.Open(repoPath).Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	if global, err := indexcache.OpenGlobalIndex(indexcache.DefaultGlobalIndexPath()); err == nil {
		defer global.Close()
		_ = global.Remove(repoPath)
	}

	fmt.Printf("Cleared cache for %s\n", repoPath)
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repowiki/internal/errs"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "repowiki",
	Short: "Build a semantic, queryable wiki over a codebase",
	Long: `repowiki scans a repository, chunks and embeds its source, and builds a
retrieval-augmented index you can query in natural language. It generates
a baseline project wiki from static analysis, optionally enriched by an
LLM, and answers questions by retrieving relevant chunks and citing them.`,
}

// Exit codes: 0 success, 2 configuration error, 3 provider
// (embedding/generation) error, 4 cache miss (*errs.CacheMissError), 1
// anything else. IO failures carry no typed error and exit with 1.
const (
	exitOK             = 0
	exitGenericError   = 1
	exitConfigError    = 2
	exitProviderError  = 3
	exitCacheOrIOError = 4
)

// Execute runs the root command and returns the process exit code,
// mapping typed errors from internal/errs to the CLI's exit-code
// contract instead of collapsing every failure to 1.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	var configErr *errs.ConfigError
	if errors.As(err, &configErr) {
		return exitConfigError
	}
	var embedErr *errs.EmbeddingError
	if errors.As(err, &embedErr) {
		return exitProviderError
	}
	var genErr *errs.GenerationError
	if errors.As(err, &genErr) {
		return exitProviderError
	}
	var cacheErr *errs.CacheMissError
	if errors.As(err, &cacheErr) {
		return exitCacheOrIOError
	}
	return exitGenericError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".repowiki.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

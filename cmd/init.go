package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repowiki/internal/config"
	"github.com/ziadkadry99/repowiki/internal/router"
)

var initCmd = &cobra.Command{
	Use:   "init [repoPath]",
	Short: "Initialize repowiki configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure repowiki for repoPath (default: current directory) and writes a .repowiki.yml file there.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		root, err := filepath.Abs(root)
		if err != nil {
			return err
		}

		cfg, err := config.RunWizard(root)
		if err != nil {
			return err
		}

		r, err := router.New(cfg)
		if err != nil {
			return err
		}
		if err := r.TestConnectivity(context.Background()); err != nil {
			fmt.Printf("Warning: could not confirm connectivity with the configured provider: %v\n", err)
		} else {
			fmt.Println("Provider connectivity confirmed.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

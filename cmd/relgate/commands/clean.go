package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated output, staging and tool directories",
	Run: func(cmd *cobra.Command, args []string) {
		targets := []string{
			cfg.OutDir,
			filepath.Join(os.TempDir(), "relgate-tools"),
		}
		for _, t := range targets {
			if err := os.RemoveAll(t); err != nil {
				fmt.Printf("[WARN] Failed to remove %s: %v\n", t, err)
				continue
			}
			fmt.Printf("[INFO] Removed %s\n", t)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

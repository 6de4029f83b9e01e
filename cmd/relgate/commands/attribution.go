package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/relforge/relgate/internal/sources"
	"github.com/relforge/relgate/pkg/telemetry"
	"github.com/relforge/relgate/pkg/version"
)

var attributionCmd = &cobra.Command{
	Use:   "attribution",
	Short: "Generate the license attribution archive only",
	Long: `Runs the attribution pipeline without the surrounding quality gates:
fetches every vendored source at its pinned revision, scans its manifest and
packages all license texts into one reproducible archive.

Example:
  relgate attribution --sources attribution-sources.yaml --clarify clarify.toml`,
	Run: func(cmd *cobra.Command, args []string) {
		runAttribution(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(attributionCmd)
}

func runAttribution(ctx context.Context) {
	logger := newLogger()

	shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, cfg.OTLPEndpoint)
	if err == nil {
		defer shutdown(context.Background())
	}

	srcs, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}

	pipe, cleanup, err := buildPipeline(logger)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	start := time.Now()
	path, records, err := pipe.Run(ctx, srcs)
	if err != nil {
		fmt.Printf("[ERROR] Attribution failed: %v\n", err)
		os.Exit(1)
	}

	for _, rec := range records {
		rev := rec.Revision
		if rev == "" {
			rev = "local"
		}
		fmt.Printf("[INFO] %-18s %-12s %d files\n", rec.Name, rev, rec.Files)
	}
	fmt.Printf("[SUCCESS] Attribution archive written: %s (%d sources, %s)\n",
		path, len(records), time.Since(start).Round(time.Millisecond))
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/relforge/relgate/internal/audit"
	"github.com/relforge/relgate/internal/fetch"
	"github.com/relforge/relgate/internal/pipeline"
	"github.com/relforge/relgate/internal/report"
	"github.com/relforge/relgate/internal/scan"
	"github.com/relforge/relgate/internal/sequencer"
	"github.com/relforge/relgate/internal/sources"
	"github.com/relforge/relgate/internal/tools"
	"github.com/relforge/relgate/internal/ui"
	"github.com/relforge/relgate/pkg/telemetry"
	"github.com/relforge/relgate/pkg/version"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the release quality gates",
	Long: `Runs every release gate in order: format, lint, dependency-policy,
attribution, unit-test, integration-test. Stops at the first failure.

Example:
  relgate check
  relgate check --headless --sources attribution-sources.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		if headless, _ := cmd.Flags().GetBool("headless"); headless {
			cfg.Headless = true
		}
		runCheck(cmd.Context())
	},
}

func init() {
	checkCmd.Flags().Bool("headless", false, "Plain line output instead of the TUI")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context) {
	logger := newLogger()

	shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, cfg.OTLPEndpoint)
	if err != nil {
		fmt.Printf("[WARN] Telemetry disabled: %v\n", err)
	} else {
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

	var records []pipeline.SourceRecord
	steps := []sequencer.Step{
		sequencer.CommandStep(sequencer.StepFormat, cfg.Steps.Format, cfg.ProjectDir),
		sequencer.CommandStep(sequencer.StepLint, cfg.Steps.Lint, cfg.ProjectDir),
		sequencer.PolicyStep(cfg.PolicyRulesFile, cfg.DependencyInventory, logger),
		sequencer.AttributionStep(pipe, srcs, &records),
		sequencer.CommandStep(sequencer.StepUnitTest, cfg.Steps.UnitTest, cfg.ProjectDir),
		sequencer.CommandStep(sequencer.StepIntegrationTest, cfg.Steps.IntegrationTest, cfg.ProjectDir),
	}

	var out *sequencer.Outcome
	if cfg.Headless {
		out = sequencer.New(steps, ui.Printer, logger).Run(ctx)
	} else {
		names := make([]string, len(steps))
		for i, s := range steps {
			names[i] = s.Name
		}
		p := tea.NewProgram(ui.NewModel(names))
		seq := sequencer.New(steps, func(e sequencer.Event) { p.Send(ui.EventMsg(e)) }, logger)

		outCh := make(chan *sequencer.Outcome, 1)
		go func() { outCh <- seq.Run(ctx) }()
		if _, err := p.Run(); err != nil {
			fmt.Printf("Alas, there's been an error: %v", err)
			os.Exit(1)
		}
		out = <-outCh
	}

	writeReports(out, records)

	if out.State != sequencer.AllPassed {
		audit.LogRun(out.State.String(), out.FailedStep, fmt.Sprint(out.Cause))
		fmt.Printf("\n[ERROR] Release gate aborted at %q: %v\n", out.FailedStep, out.Cause)
		os.Exit(1)
	}
	audit.LogRun(out.State.String(), "", "")
	fmt.Printf("\n[SUCCESS] All %d gates passed. Archive: %s\n", len(out.Results), cfg.ArchivePath())
}

// buildPipeline wires the fetcher, the scanner and the staging/archive paths
// together. The embedded tools go into a scratch dir; the scanner wrapper
// from there backs the scan step whenever the configured binary is not on
// PATH. The returned cleanup removes the installed tools.
func buildPipeline(logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	installed, err := tools.Install(filepath.Join(os.TempDir(), "relgate-tools"), logger)
	if err != nil {
		return nil, nil, err
	}

	scannerBin := cfg.ScannerBin
	if _, err := exec.LookPath(scannerBin); err != nil {
		scannerBin = installed.Path("license-scan.sh")
	}

	fetcher := fetch.NewFetcher(cfg.ScratchDir, logger)
	invoker := scan.NewInvoker(scannerBin, cfg.SPDXDataDir, cfg.PackageManager, cfg.Locked, logger)
	pipe := pipeline.New(fetcher, invoker, cfg.StagingRoot(), cfg.ArchivePath(), cfg.ClarifyFile, logger)
	return pipe, installed.Cleanup, nil
}

func writeReports(out *sequencer.Outcome, records []pipeline.SourceRecord) {
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		fmt.Printf("[WARN] Failed to create output dir: %v\n", err)
		return
	}
	archivePath := ""
	if len(records) > 0 {
		archivePath = cfg.ArchivePath()
	}
	r := report.Build(out, records, archivePath, time.Now())
	if err := r.WriteJSON(cfg.ReportPath("json")); err != nil {
		fmt.Printf("[WARN] Failed to write JSON report: %v\n", err)
	}
	if err := r.WriteText(cfg.ReportPath("txt")); err != nil {
		fmt.Printf("[WARN] Failed to write text report: %v\n", err)
	}
}

package sequencer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/relforge/relgate/internal/pipeline"
	"github.com/relforge/relgate/internal/policy"
	"github.com/relforge/relgate/internal/sources"
)

// Canonical gate names, in run order. Dependency policy runs before
// attribution so an attribution bundle is never generated for a dependency
// set that already violates license policy; the test suites run last because
// they are the most expensive.
const (
	StepFormat          = "format"
	StepLint            = "lint"
	StepPolicy          = "dependency-policy"
	StepAttribution     = "attribution"
	StepUnitTest        = "unit-test"
	StepIntegrationTest = "integration-test"
)

// CommandStep wraps an external check command (formatter, linter, test
// runner) as a pass/fail gate. Stdout is discarded; stderr is attached to
// the failure so the offending file or test is identifiable.
func CommandStep(name string, argv []string, dir string) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context) error {
			if len(argv) == 0 {
				return fmt.Errorf("no command configured for step %s", name)
			}
			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			cmd.Dir = dir
			var stderr bytes.Buffer
			cmd.Stderr = &stderr
			if err := cmd.Run(); err != nil {
				if stderr.Len() > 0 {
					return fmt.Errorf("%s failed: %w: %s", name, err, stderr.String())
				}
				return fmt.Errorf("%s failed: %w", name, err)
			}
			return nil
		},
	}
}

// PolicyStep evaluates the compiled license policy rules against the
// dependency inventory. A deny match surfaces as a *policy.Violation and
// aborts the gate.
func PolicyStep(rulesFile, inventoryFile string, logger *slog.Logger) Step {
	return Step{
		Name: StepPolicy,
		Run: func(ctx context.Context) error {
			rules, err := policy.LoadRules(rulesFile)
			if err != nil {
				return err
			}
			deps, err := policy.LoadInventory(inventoryFile)
			if err != nil {
				return err
			}
			engine, err := policy.NewEngine()
			if err != nil {
				return err
			}
			if err := engine.Compile(rules); err != nil {
				return err
			}
			return engine.Check(deps, logger)
		},
	}
}

// AttributionStep runs the attribution pipeline as one gate. When records
// is non-nil, the per-source manifest is captured there for the run report.
func AttributionStep(p *pipeline.Pipeline, f *sources.File, records *[]pipeline.SourceRecord) Step {
	return Step{
		Name: StepAttribution,
		Run: func(ctx context.Context) error {
			_, recs, err := p.Run(ctx, f)
			if err != nil {
				return err
			}
			if records != nil {
				*records = recs
			}
			return nil
		},
	}
}

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/relforge/relgate/internal/pipeline"
	"github.com/relforge/relgate/internal/sequencer"
)

// RunReport summarizes one gate run: the outcome of every executed step plus
// the attribution manifest when the pipeline ran.
type RunReport struct {
	GeneratedAt string                  `json:"generated_at"`
	State       string                  `json:"state"`
	FailedStep  string                  `json:"failed_step,omitempty"`
	Cause       string                  `json:"cause,omitempty"`
	Steps       []sequencer.Result      `json:"steps"`
	Attribution []pipeline.SourceRecord `json:"attribution,omitempty"`
	ArchivePath string                  `json:"archive_path,omitempty"`
}

// Build assembles a report from a finished run.
func Build(out *sequencer.Outcome, records []pipeline.SourceRecord, archivePath string, now time.Time) *RunReport {
	r := &RunReport{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		State:       out.State.String(),
		FailedStep:  out.FailedStep,
		Steps:       out.Results,
		Attribution: records,
		ArchivePath: archivePath,
	}
	if out.Cause != nil {
		r.Cause = out.Cause.Error()
	}
	return r
}

// JSON renders the machine-readable report.
func (r *RunReport) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the machine-readable report.
func (r *RunReport) WriteJSON(path string) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteText writes the human-readable summary.
func (r *RunReport) WriteText(path string) error {
	return os.WriteFile(path, []byte(r.Text()), 0644)
}

// Text renders the summary the way the CLI prints it.
func (r *RunReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "relgate check report (%s)\n", r.GeneratedAt)
	fmt.Fprintf(&b, "state: %s\n", r.State)
	if r.FailedStep != "" {
		fmt.Fprintf(&b, "failed step: %s\n", r.FailedStep)
		fmt.Fprintf(&b, "cause: %s\n", r.Cause)
	}
	b.WriteString("\nsteps:\n")
	for _, s := range r.Steps {
		status := "PASS"
		if !s.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %-18s %s\n", s.Step, status)
	}
	if len(r.Attribution) > 0 {
		b.WriteString("\nattribution sources:\n")
		for _, rec := range r.Attribution {
			rev := rec.Revision
			if rev == "" {
				rev = "local"
			}
			fmt.Fprintf(&b, "  %-18s %-10s %4d files\n", rec.Name, shortRev(rev), rec.Files)
		}
		fmt.Fprintf(&b, "\narchive: %s\n", r.ArchivePath)
	}
	return b.String()
}

func shortRev(rev string) string {
	if len(rev) > 10 {
		return rev[:10]
	}
	return rev
}

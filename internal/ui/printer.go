package ui

import (
	"fmt"
	"time"

	"github.com/relforge/relgate/internal/sequencer"
)

// Printer is the headless renderer: one plain line per transition, safe for
// CI logs.
func Printer(e sequencer.Event) {
	switch e.Type {
	case sequencer.StepStarted:
		fmt.Printf("[INFO] %s...\n", e.Step)
	case sequencer.StepPassed:
		fmt.Printf("[PASS] %s (%s)\n", e.Step, e.Duration.Round(time.Millisecond))
	case sequencer.StepFailed:
		fmt.Printf("[FAIL] %s: %v\n", e.Step, e.Err)
	case sequencer.RunFinished:
		if e.Err != nil {
			fmt.Printf("[ERROR] release gate aborted at %s\n", e.Step)
		} else {
			fmt.Printf("[SUCCESS] all checks passed\n")
		}
	}
}

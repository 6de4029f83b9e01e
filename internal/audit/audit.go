package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogRun appends one line per gate run to ~/.relgate/audit.log. Audit
// failures are warnings only; they never fail the run.
func LogRun(state, failedStep, detail string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	logDir := filepath.Join(home, ".relgate")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		os.Mkdir(logDir, 0755)
	}

	f, err := os.OpenFile(filepath.Join(logDir, "audit.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	// Format: [DATE] all-passed - or - [DATE] aborted at lint: ...
	entry := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), state)
	if failedStep != "" {
		entry += fmt.Sprintf(" at %s: %s", failedStep, detail)
	}
	entry += "\n"

	if _, err := f.WriteString(entry); err != nil {
		fmt.Printf("(Warning: Failed to write audit log)\n")
	}
}

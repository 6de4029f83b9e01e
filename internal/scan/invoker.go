package scan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// Error reports a scanner invocation that failed to spawn or exited non-zero.
// Stderr is captured and attached so the failing dependency can be diagnosed
// without re-running the whole chain.
type Error struct {
	Manifest string
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("license scan of %s failed: %v: %s", e.Manifest, e.Err, e.Stderr)
	}
	return fmt.Sprintf("license scan of %s failed: %v", e.Manifest, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// execCommand allows mocking exec.CommandContext for testing.
var execCommand = exec.CommandContext

// Invoker is a thin adapter around the external license scanner. The scanner
// owns the clarification-file format and the SPDX data; we only drive its CLI
// and propagate its exit status faithfully.
type Invoker struct {
	// Binary is the scanner executable path.
	Binary string
	// SPDXDataDir is passed through verbatim via --spdx-data.
	SPDXDataDir string
	// PackageManager is the scanner's mode keyword, e.g. "cargo".
	PackageManager string
	// Locked requires the lockfile to be up to date during the scan.
	Locked bool

	Logger *slog.Logger
}

func NewInvoker(binary, spdxDataDir, packageManager string, locked bool, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Invoker{
		Binary:         binary,
		SPDXDataDir:    spdxDataDir,
		PackageManager: packageManager,
		Locked:         locked,
		Logger:         logger,
	}
}

// Scan runs the scanner against one manifest, directing per-dependency
// license files into outputDir.
func (v *Invoker) Scan(ctx context.Context, manifestPath, clarificationFile, outputDir string) error {
	args := []string{
		"--clarify", clarificationFile,
		"--spdx-data", v.SPDXDataDir,
		"--out-dir", outputDir,
	}
	args = append(args, v.PackageManager)
	if v.Locked {
		args = append(args, "--locked")
	}
	args = append(args, manifestPath)

	v.Logger.Info("scanning manifest", "manifest", manifestPath, "out", outputDir)

	cmd := execCommand(ctx, v.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Error{Manifest: manifestPath, Stderr: stderr.String(), Err: err}
	}
	return nil
}

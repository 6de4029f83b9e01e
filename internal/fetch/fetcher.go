package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/relforge/relgate/internal/sources"
)

// Error reports a failed clone or checkout. Network failures and unknown
// revisions are equally fatal to reproducibility, so both land here.
type Error struct {
	Origin   string
	Revision string
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("fetch of %s@%s failed: %v: %s", e.Origin, e.Revision, e.Err, e.Stderr)
	}
	return fmt.Sprintf("fetch of %s@%s failed: %v", e.Origin, e.Revision, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// execCommand allows mocking exec.CommandContext for testing.
var execCommand = exec.CommandContext

// Fetcher materializes source origins on disk. Local origins are used in
// place; remote origins are cloned into a scratch directory and hard-reset
// to their pinned revision so two fetches of the same origin+revision yield
// the same tree.
type Fetcher struct {
	ScratchRoot string
	Logger      *slog.Logger
}

func NewFetcher(scratchRoot string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{ScratchRoot: scratchRoot, Logger: logger}
}

// Fetch returns the directory holding the source tree and a cleanup func for
// any scratch state. Cleanup failures are logged, never fatal; they do not
// affect the produced artifact.
func (f *Fetcher) Fetch(ctx context.Context, spec sources.SourceSpec) (string, func(), error) {
	if err := spec.Validate(); err != nil {
		return "", nil, err
	}

	if !spec.Remote() {
		// The project itself, or an already-vendored path. Nothing to do.
		return spec.Origin, func() {}, nil
	}

	scratch, err := os.MkdirTemp(f.ScratchRoot, "relgate-"+spec.Name+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	cleanup := func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			f.Logger.Warn("failed to remove scratch dir", "dir", scratch, "error", rmErr)
		}
	}

	f.Logger.Info("cloning source", "name", spec.Name, "origin", spec.Origin, "revision", spec.PinnedRevision)
	if err := f.git(ctx, "", "clone", spec.Origin, scratch); err != nil {
		cleanup()
		return "", nil, wrap(err, spec)
	}
	if err := f.git(ctx, scratch, "reset", "--hard", spec.PinnedRevision); err != nil {
		cleanup()
		return "", nil, wrap(err, spec)
	}

	return scratch, cleanup, nil
}

func (f *Fetcher) git(ctx context.Context, dir string, args ...string) error {
	cmd := execCommand(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Error{Stderr: stderr.String(), Err: err}
	}
	return nil
}

func wrap(err error, spec sources.SourceSpec) error {
	if fe, ok := err.(*Error); ok {
		fe.Origin = spec.Origin
		fe.Revision = spec.PinnedRevision
		return fe
	}
	return &Error{Origin: spec.Origin, Revision: spec.PinnedRevision, Err: err}
}

package tools

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

//go:embed assets/*
var assets embed.FS

// installMtime is stamped on every installed tool and on the tools dir
// itself. Installing twice must produce metadata-identical trees, matching
// the reproducibility contract of the pipeline the tools serve.
var installMtime = time.Unix(1, 0)

// Installed is a set of helper tools written out to a scratch directory:
// the scanner wrapper and the default gate scripts.
type Installed struct {
	Dir    string
	logger *slog.Logger
}

// Install writes the embedded tools into dir, replacing whatever was there.
func Install(dir string, logger *slog.Logger) (*Installed, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("unable to remove existing tools directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create tools directory %s: %w", dir, err)
	}

	entries, err := fs.ReadDir(assets, "assets")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded tools: %w", err)
	}
	for _, e := range entries {
		data, err := assets.ReadFile(filepath.Join("assets", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded tool %s: %w", e.Name(), err)
		}
		target := filepath.Join(dir, e.Name())
		if err := os.WriteFile(target, data, 0o755); err != nil {
			return nil, fmt.Errorf("failed to install %s: %w", e.Name(), err)
		}
		if err := os.Chtimes(target, installMtime, installMtime); err != nil {
			return nil, fmt.Errorf("unable to set mtime for %s: %w", target, err)
		}
	}

	if err := os.Chtimes(dir, installMtime, installMtime); err != nil {
		return nil, fmt.Errorf("unable to set mtime for tools dir %s: %w", dir, err)
	}

	logger.Debug("tools installed", "dir", dir, "count", len(entries))
	return &Installed{Dir: dir, logger: logger}, nil
}

// Path returns the installed location of one tool.
func (i *Installed) Path(name string) string {
	return filepath.Join(i.Dir, name)
}

// Cleanup removes the tools directory. Failure is logged, not fatal; stale
// tools do not affect the correctness of any produced artifact.
func (i *Installed) Cleanup() {
	if err := os.RemoveAll(i.Dir); err != nil {
		i.logger.Warn("failed to remove tools dir", "dir", i.Dir, "error", err)
	}
}

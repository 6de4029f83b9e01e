package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IOError reports a filesystem failure while assembling or packaging the
// attribution bundle.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("attribution io failure at %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Tree is the in-progress attribution output directory: one subdirectory per
// source, each with a vendor/ subtree for scanner output, plus the primary
// project's own license files at the root. A Tree is exclusively owned by
// one pipeline run.
type Tree struct {
	Root string
}

// New creates a fresh staging root, clearing any leftovers from a previous
// run so a partial earlier bundle can never leak into this one.
func New(root string) (*Tree, error) {
	if err := os.RemoveAll(root); err != nil {
		return nil, &IOError{Path: root, Err: err}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &IOError{Path: root, Err: err}
	}
	return &Tree{Root: root}, nil
}

// SourceDir returns the subdirectory for one source, creating it if needed.
func (t *Tree) SourceDir(name string) (string, error) {
	dir := filepath.Join(t.Root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Path: dir, Err: err}
	}
	return dir, nil
}

// VendorDir returns the scanner output subtree for one source, creating it
// if needed.
func (t *Tree) VendorDir(name string) (string, error) {
	dir := filepath.Join(t.Root, name, "vendor")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Path: dir, Err: err}
	}
	return dir, nil
}

// CopyExtraFiles copies a source's own license files (paths relative to the
// fetched source root) verbatim into its staging subdirectory. A missing
// listed file is an error, not a warning: the sources file promised it.
func (t *Tree) CopyExtraFiles(name, srcRoot string, files []string) error {
	dir, err := t.SourceDir(name)
	if err != nil {
		return err
	}
	for _, rel := range files {
		src := filepath.Join(srcRoot, rel)
		dst := filepath.Join(dir, filepath.Base(rel))
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// CopyProjectLicenses places the primary project's license files at the top
// of the staging tree.
func (t *Tree) CopyProjectLicenses(projectDir string, files []string) error {
	for _, rel := range files {
		src := filepath.Join(projectDir, rel)
		dst := filepath.Join(t.Root, filepath.Base(rel))
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// FileCount walks one source's subtree and counts regular files; used for
// the run report's attribution manifest.
func (t *Tree) FileCount(name string) (int, error) {
	count := 0
	err := filepath.WalkDir(filepath.Join(t.Root, name), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, &IOError{Path: filepath.Join(t.Root, name), Err: err}
	}
	return count, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &IOError{Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &IOError{Path: src, Err: err}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &IOError{Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &IOError{Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &IOError{Path: dst, Err: err}
	}
	return nil
}

package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/relforge/relgate/internal/staging"
)

// epoch is the fixed timestamp stamped on every archive entry. Repeated runs
// over identical staging content must produce identical archives, so nothing
// from the build machine's clock may leak in.
var epoch = time.Unix(0, 0)

// Build packages a finished staging tree into a gzipped tarball at outPath.
// Entry names are rooted at the staging root's basename, the walk order is
// lexical, and ownership/timestamps are normalized, which makes the archive
// layout a pure function of the staging content.
//
// The archive is written to a temporary file in outPath's directory and then
// renamed into place, so a reader never observes a half-written file at the
// published path.
func Build(tree *staging.Tree, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return &staging.IOError{Path: filepath.Dir(outPath), Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".relgate-archive-*")
	if err != nil {
		return &staging.IOError{Path: outPath, Err: err}
	}
	tmpPath := tmp.Name()

	if err := writeArchive(tmp, tree.Root); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &staging.IOError{Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return &staging.IOError{Path: outPath, Err: err}
	}
	return nil
}

func writeArchive(w io.Writer, root string) error {
	// Suppress the gzip header timestamp as well; it would otherwise make
	// byte-identical content hash differently across runs.
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return &staging.IOError{Path: root, Err: err}
	}
	tw := tar.NewWriter(gz)

	base := filepath.Base(root)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := base
		if rel != "." {
			name = filepath.Join(base, rel)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr := &tar.Header{
			Name:    filepath.ToSlash(name),
			ModTime: epoch,
			Uid:     0,
			Gid:     0,
		}
		switch {
		case d.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
			hdr.Mode = 0o755
		case info.Mode().IsRegular():
			hdr.Typeflag = tar.TypeReg
			hdr.Size = info.Size()
			if info.Mode()&0o111 != 0 {
				hdr.Mode = 0o755
			} else {
				hdr.Mode = 0o644
			}
		default:
			// License bundles contain only files and directories.
			return fmt.Errorf("unsupported file type in staging tree: %s", path)
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if hdr.Typeflag == tar.TypeReg {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			if _, err := io.Copy(tw, f); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
		return nil
	})
	if err != nil {
		return &staging.IOError{Path: root, Err: err}
	}

	if err := tw.Close(); err != nil {
		return &staging.IOError{Path: root, Err: err}
	}
	if err := gz.Close(); err != nil {
		return &staging.IOError{Path: root, Err: err}
	}
	return nil
}

package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relforge/relgate/internal/staging"
)

func buildFixtureTree(t *testing.T) *staging.Tree {
	t.Helper()
	tree, err := staging.New(filepath.Join(t.TempDir(), "attributions"))
	if err != nil {
		t.Fatal(err)
	}
	vendor, err := tree.VendorDir("cross")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vendor, "crate-a.LICENSE"), []byte("Apache-2.0 text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tree.Root, "LICENSE-MIT"), []byte("MIT text"), 0o644); err != nil {
		t.Fatal(err)
	}
	return tree
}

func listEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gz)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, hdr.Name)
		if !hdr.ModTime.Equal(epoch) {
			t.Errorf("entry %s has a non-normalized mtime: %v", hdr.Name, hdr.ModTime)
		}
	}
	return names
}

func TestBuildEntryNamesAreRootedAtBasename(t *testing.T) {
	tree := buildFixtureTree(t)
	out := filepath.Join(t.TempDir(), "attributions.tar.gz")

	if err := Build(tree, out); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, name := range listEntries(t, out) {
		if !strings.HasPrefix(name, "attributions/") && name != "attributions/" {
			t.Errorf("entry %q is not rooted at the staging basename", name)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	tree := buildFixtureTree(t)
	outA := filepath.Join(t.TempDir(), "a.tar.gz")
	outB := filepath.Join(t.TempDir(), "b.tar.gz")

	if err := Build(tree, outA); err != nil {
		t.Fatal(err)
	}
	if err := Build(tree, outB); err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(outA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(outB)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two builds over identical staging content must be byte-identical")
	}
}

func TestBuildNeverLeavesPartialOutput(t *testing.T) {
	tree := buildFixtureTree(t)

	// Force the final rename to fail: the published path is occupied by a
	// non-empty directory.
	outDir := t.TempDir()
	out := filepath.Join(outDir, "attributions.tar.gz")
	if err := os.MkdirAll(filepath.Join(out, "occupied"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := Build(tree, out); err == nil {
		t.Fatal("expected Build to fail when the final rename cannot happen")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".relgate-archive-") {
			t.Errorf("temporary archive %s was left behind", e.Name())
		}
	}
}

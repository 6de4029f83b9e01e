//go:build e2e

package e2e

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TestAttributionArchive runs the real binary against a local workspace plus
// two pinned git sources and verifies the archive layout end to end.
func TestAttributionArchive(t *testing.T) {
	binPath := buildBinary(t)

	alphaDir, alphaRev := makeGitRepo(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"alpha\"\n",
		"LICENSE":    "Apache-2.0\n",
	})
	betaDir, betaRev := makeGitRepo(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"beta\"\n",
		"LICENSE":    "MIT\n",
	})

	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, "Cargo.toml"), "[workspace]\n")
	writeFile(t, filepath.Join(projectDir, "LICENSE"), "workspace license\n")
	writeFile(t, filepath.Join(projectDir, "LICENSE-APACHE"), "apache text\n")
	writeFile(t, filepath.Join(projectDir, "COPYRIGHT"), "copyright text\n")
	writeFile(t, filepath.Join(projectDir, "clarify.toml"), "")

	sourcesYAML := fmt.Sprintf(`project:
  dir: .
  manifest: Cargo.toml
  license-files: [LICENSE-APACHE, COPYRIGHT]
sources:
  - name: workspace
    origin: .
    manifest: Cargo.toml
    license-files: [LICENSE]
  - name: alpha
    origin: file://%s
    revision: %s
    manifest: Cargo.toml
    license-files: [LICENSE]
  - name: beta
    origin: file://%s
    revision: %s
    manifest: Cargo.toml
    license-files: [LICENSE]
`, alphaDir, alphaRev, betaDir, betaRev)
	writeFile(t, filepath.Join(projectDir, "sources.yaml"), sourcesYAML)

	scanner := writeStubScanner(t, t.TempDir())
	cfgPath := filepath.Join(projectDir, "relgate.yaml")
	writeFile(t, cfgPath, fmt.Sprintf(`project_dir: .
sources: sources.yaml
clarify: clarify.toml
out_dir: out
scratch_dir: %s
scanner_bin: %s
`, t.TempDir(), scanner))

	run := func() []byte {
		cmd := exec.Command(binPath, "attribution", "--config", cfgPath)
		cmd.Dir = projectDir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("attribution failed: %v\n%s", err, out)
		}
		data, err := os.ReadFile(filepath.Join(projectDir, "out", "attributions.tar.gz"))
		if err != nil {
			t.Fatalf("archive not written: %v", err)
		}
		return data
	}

	first := run()

	entries := archiveEntries(t, first)
	wantFiles := []string{
		"attributions/COPYRIGHT",
		"attributions/LICENSE-APACHE",
		"attributions/alpha/LICENSE",
		"attributions/alpha/vendor/LICENSE-MIT",
		"attributions/beta/LICENSE",
		"attributions/beta/vendor/LICENSE-MIT",
		"attributions/workspace/LICENSE",
		"attributions/workspace/vendor/LICENSE-MIT",
	}
	for _, want := range wantFiles {
		if !entries[want] {
			t.Errorf("archive missing %s; got %v", want, keys(entries))
		}
	}

	subdirs := make(map[string]bool)
	for name := range entries {
		parts := strings.Split(name, "/")
		if len(parts) >= 3 && parts[0] == "attributions" && parts[1] != "" {
			subdirs[parts[1]] = true
		}
	}
	if len(subdirs) != 3 || !subdirs["workspace"] || !subdirs["alpha"] || !subdirs["beta"] {
		t.Errorf("expected exactly the three source subdirs, got %v", keys(subdirs))
	}

	// A second run from the same inputs must be byte-identical.
	second := run()
	if !bytes.Equal(first, second) {
		t.Error("archive is not reproducible across runs")
	}
}

func archiveEntries(t *testing.T, data []byte) map[string]bool {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()

	entries := make(map[string]bool)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		entries[hdr.Name] = true
	}
	return entries
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

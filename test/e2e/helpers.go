//go:build e2e

package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary compiles relgate into a temp dir and returns its path.
func buildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "relgate")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/relgate")
	buildCmd.Dir = "../../"
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Build failed: %s", out)
	}
	return binPath
}

// makeGitRepo creates a local git repository with the given files committed
// and returns its path and HEAD revision. Origins use file:// so the fetcher
// takes the real clone path without any network access.
func makeGitRepo(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
	}
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "-c", "user.name=e2e", "-c", "user.email=e2e@localhost", "commit", "-q", "-m", "fixture")
	rev := runGit(t, dir, "rev-parse", "HEAD")
	return dir, strings.TrimSpace(rev)
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_SYSTEM=/dev/null")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeStubScanner installs a scanner that accepts the real CLI and drops a
// single license file into the requested output dir.
func writeStubScanner(t *testing.T, dir string) string {
	t.Helper()
	script := `#!/usr/bin/env bash
set -eu
out=""
prev=""
for a in "$@"; do
    if [ "${prev}" = "--out-dir" ]; then out="$a"; fi
    prev="$a"
done
manifest="${@: -1}"
[ -f "${manifest}" ] || { echo "manifest ${manifest} not found" >&2; exit 1; }
mkdir -p "${out}"
printf 'MIT License\n' > "${out}/LICENSE-MIT"
`
	path := filepath.Join(dir, "stub-scanner.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

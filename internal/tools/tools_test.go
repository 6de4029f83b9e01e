package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstallTools(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tools")

	installed, err := Install(dir, nil)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	expected := []string{"license-scan.sh", "check-fmt.sh", "check-lint.sh"}
	for _, name := range expected {
		info, err := os.Stat(installed.Path(name))
		if err != nil {
			t.Fatalf("did not find expected tool %s: %v", name, err)
		}
		if info.Mode().Perm()&0o111 == 0 {
			t.Errorf("tool %s should be executable, mode %v", name, info.Mode())
		}
		if !info.ModTime().Equal(installMtime) {
			t.Errorf("tool %s mtime not normalized: %v", name, info.ModTime())
		}
	}

	// Check that the mtimes match across tools and the dir itself.
	dirInfo, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !dirInfo.ModTime().Equal(installMtime) {
		t.Errorf("tools dir mtime not normalized: %v", dirInfo.ModTime())
	}
}

func TestInstallReplacesExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tools")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale-tool")
	if err := os.WriteFile(stale, []byte("old"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := Install(dir, nil); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("install must replace the existing tools directory")
	}
}

func TestCleanup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tools")
	installed, err := Install(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	installed.Cleanup()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cleanup should remove the tools dir")
	}
}

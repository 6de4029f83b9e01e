package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/relforge/relgate/internal/sources"
)

func TestLocalOriginIsUsedInPlace(t *testing.T) {
	gitCalls := 0
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gitCalls++
		return exec.CommandContext(ctx, "true")
	}
	defer func() { execCommand = exec.CommandContext }()

	f := NewFetcher("", nil)
	dir, cleanup, err := f.Fetch(context.Background(), sources.SourceSpec{
		Name:         "vendor",
		Origin:       "/src/project",
		ManifestPath: "Cargo.toml",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer cleanup()

	if dir != "/src/project" {
		t.Errorf("expected local path to be used directly, got %q", dir)
	}
	if gitCalls != 0 {
		t.Errorf("expected no git invocations for a local origin, got %d", gitCalls)
	}
}

func TestUnpinnedRemoteFailsBeforeAnyFetch(t *testing.T) {
	gitCalls := 0
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gitCalls++
		return exec.CommandContext(ctx, "true")
	}
	defer func() { execCommand = exec.CommandContext }()

	f := NewFetcher(t.TempDir(), nil)
	_, _, err := f.Fetch(context.Background(), sources.SourceSpec{
		Name:         "cross",
		Origin:       "https://example.com/cross.git",
		ManifestPath: "Cargo.toml",
	})
	if err == nil {
		t.Fatal("expected validation error for unpinned remote")
	}
	if gitCalls != 0 {
		t.Errorf("validation must reject the source before any network access, saw %d git calls", gitCalls)
	}
}

func TestRemoteFetchClonesAndResets(t *testing.T) {
	var calls [][]string
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		return exec.CommandContext(ctx, "true")
	}
	defer func() { execCommand = exec.CommandContext }()

	f := NewFetcher(t.TempDir(), nil)
	dir, cleanup, err := f.Fetch(context.Background(), sources.SourceSpec{
		Name:           "cross",
		Origin:         "https://example.com/cross.git",
		PinnedRevision: "7b79041",
		ManifestPath:   "Cargo.toml",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected clone then reset, got %d calls: %v", len(calls), calls)
	}
	if calls[0][1] != "clone" || calls[0][2] != "https://example.com/cross.git" {
		t.Errorf("first call should clone the origin, got %v", calls[0])
	}
	if calls[1][1] != "reset" || calls[1][2] != "--hard" || calls[1][3] != "7b79041" {
		t.Errorf("second call should hard-reset to the pinned revision, got %v", calls[1])
	}

	if _, statErr := os.Stat(dir); statErr != nil {
		t.Errorf("scratch dir should exist before cleanup: %v", statErr)
	}
	cleanup()
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Errorf("cleanup should remove the scratch dir")
	}
}

func TestCloneFailureIsFetchError(t *testing.T) {
	execCommand = fakeFailingGit
	defer func() { execCommand = exec.CommandContext }()

	f := NewFetcher(t.TempDir(), nil)
	_, _, err := f.Fetch(context.Background(), sources.SourceSpec{
		Name:           "cross",
		Origin:         "https://example.com/missing.git",
		PinnedRevision: "deadbeef",
		ManifestPath:   "Cargo.toml",
	})
	if err == nil {
		t.Fatal("expected clone failure")
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *fetch.Error, got %T: %v", err, err)
	}
	if fe.Origin != "https://example.com/missing.git" || fe.Revision != "deadbeef" {
		t.Errorf("fetch error should carry origin and revision, got %+v", fe)
	}
	if fe.Stderr == "" {
		t.Error("fetch error should capture stderr")
	}
}

// fakeFailingGit routes to TestHelperProcess, which mimics a git failure.
func fakeFailingGit(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

// TestHelperProcess is the fake command runner.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprintln(os.Stderr, "fatal: repository 'https://example.com/missing.git' not found")
	os.Exit(128)
}

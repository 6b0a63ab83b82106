package cmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/runmany/runmany/internal/config"
)

// fakeNpm writes a tiny shell script standing in for npm: `fakenpm run
// <script> [args...]` looks up <script> in a fixed table, grounded on the
// same fake-runner shape used by internal/supervisor's tests.
func fakeNpm(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake runner script is POSIX shell only")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "fakenpm.sh")
	script := `#!/bin/sh
shift # "run"
case "$1" in
  build) exit 0 ;;
  lint) exit 0 ;;
  broken) exit 1 ;;
  *) echo "unknown script: $1" >&2; exit 2 ;;
esac
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake npm: %v", err)
	}
	return path
}

func withTempManifest(t *testing.T, scripts string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(scripts), 0o644); err != nil {
		t.Fatalf("write package.json: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func resetCmdState() {
	store = config.New()
	logger = nil
}

func TestRunEngine_SequentialSuccess(t *testing.T) {
	npm := fakeNpm(t)
	withTempManifest(t, `{"scripts": {"build": "true", "lint": "true"}}`)
	resetCmdState()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runEngine(cmd, []string{"--npm-path", npm, "build", "lint"}, false, true)
	if err != nil {
		t.Fatalf("runEngine: %v", err)
	}
}

func TestRunEngine_FailurePropagates(t *testing.T) {
	npm := fakeNpm(t)
	withTempManifest(t, `{"scripts": {"broken": "false"}}`)
	resetCmdState()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runEngine(cmd, []string{"--npm-path", npm, "broken"}, false, true)
	if err == nil {
		t.Fatal("expected error from failing task")
	}
}

func TestRunEngine_NoMatchingPatternErrors(t *testing.T) {
	npm := fakeNpm(t)
	withTempManifest(t, `{"scripts": {"build": "true"}}`)
	resetCmdState()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runEngine(cmd, []string{"--npm-path", npm, "does-not-exist"}, false, true)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want a not-found error", err)
	}
}

func TestRunEngine_RetryZeroRejected(t *testing.T) {
	npm := fakeNpm(t)
	withTempManifest(t, `{"scripts": {"build": "true"}}`)
	resetCmdState()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runEngine(cmd, []string{"--npm-path", npm, "--retry", "0", "build"}, false, true)
	if err == nil || !strings.Contains(err.Error(), "Invalid Option: --retry") {
		t.Fatalf("err = %v, want an Invalid Option: --retry error", err)
	}
}

func TestRunEngine_MixedSequentialParallelGroups(t *testing.T) {
	npm := fakeNpm(t)
	withTempManifest(t, `{"scripts": {"build": "true", "lint": "true"}}`)
	resetCmdState()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runEngine(cmd, []string{"--npm-path", npm, "build", "-p", "lint"}, false, true)
	if err != nil {
		t.Fatalf("runEngine: %v", err)
	}
}

func TestRunEngine_ConfigPairReachesChildEnv(t *testing.T) {
	npm := fakeNpm(t)
	withTempManifest(t, `{"scripts": {"build": "true"}}`)
	resetCmdState()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runEngine(cmd, []string{"--npm-path", npm, "--FOO=bar", "build"}, false, true)
	if err != nil {
		t.Fatalf("runEngine: %v", err)
	}
	if v, ok := store.Global("FOO"); !ok || v != "bar" {
		t.Errorf("store.Global(FOO) = (%q, %v), want (\"bar\", true)", v, ok)
	}
}

package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/runmany/runmany/internal/runerr"
)

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write package.json: %v", err)
	}
}

func TestLoad_PreservesScriptOrder(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{
		"name": "example",
		"scripts": {
			"build": "tsc",
			"test": "jest",
			"lint": "eslint ."
		}
	}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := m.ScriptNames()
	want := []string{"build", "test", "lint"}
	if len(got) != len(want) {
		t.Fatalf("ScriptNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ScriptNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad_Command(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"scripts": {"build": "tsc"}}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cmd, ok := m.Command("build")
	if !ok || cmd != "tsc" {
		t.Errorf("Command(build) = (%q, %v), want (%q, true)", cmd, ok, "tsc")
	}

	if _, ok := m.Command("missing"); ok {
		t.Errorf("Command(missing) returned ok=true")
	}
}

func TestLoad_MissingManifest(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}

	ve, ok := runerr.AsValidationError(err)
	if !ok {
		t.Fatalf("expected *runerr.ValidationError, got %T", err)
	}
	if ve.Kind != runerr.KindManifestMissing {
		t.Errorf("Kind = %v, want KindManifestMissing", ve.Kind)
	}
	if want := "No package.json found in the current directory"; !strings.Contains(ve.Message, want) {
		t.Errorf("message %q does not contain %q", ve.Message, want)
	}
}

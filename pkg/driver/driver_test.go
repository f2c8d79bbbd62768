package driver_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/driver"
)

func TestRunFileWritesCodeAndBlocksSideFile(t *testing.T) {
	dir := t.TempDir()
	source := `function f(x) {
  COMEHERE: with ("checking x") {
    log(x);
  }
  return x;
}
`
	sourcePath := filepath.Join(dir, "mod.js")
	if err := os.WriteFile(sourcePath, []byte(source), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	rec := &diag.Recording{}
	if err := driver.RunFile(sourcePath, "mod.js", outDir, rec); err != nil {
		t.Fatalf("RunFile returned error: %v", err)
	}
	if len(rec.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Errors)
	}

	codePath := filepath.Join(outDir, "mod.js")
	code, err := os.ReadFile(codePath)
	if err != nil {
		t.Fatalf("read rewritten code: %v", err)
	}
	if !strings.Contains(string(code), "seek") {
		t.Fatalf("expected rewritten code to reference seek, got:\n%s", code)
	}

	blocksPath := filepath.Join(outDir, "mod.blocks.json")
	data, err := os.ReadFile(blocksPath)
	if err != nil {
		t.Fatalf("read blocks side-file: %v", err)
	}
	var blocks []driver.BlockDescription
	if err := json.Unmarshal(data, &blocks); err != nil {
		t.Fatalf("blocks side-file is not valid JSON: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected one block entry, got %d", len(blocks))
	}
	if blocks[0].ID != 1 {
		t.Fatalf("expected id 1, got %d", blocks[0].ID)
	}
	if blocks[0].Description == nil || *blocks[0].Description != "checking x" {
		t.Fatalf("expected description %q, got %v", "checking x", blocks[0].Description)
	}
}

func TestModuleIDRelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "src", "widgets")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sourcePath := filepath.Join(sub, "button.js")
	if err := os.WriteFile(sourcePath, []byte("// x"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	got := driver.ModuleID(dir, sourcePath)
	want := "src/widgets/button.js"
	if got != want {
		t.Fatalf("ModuleID = %q, want %q", got, want)
	}
}

func TestModuleIDFallsBackToAbsoluteOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	sourcePath := filepath.Join(other, "outside.js")
	if err := os.WriteFile(sourcePath, []byte("// x"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	got := driver.ModuleID(root, sourcePath)
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		t.Fatalf("filepath.Abs: %v", err)
	}
	if got != abs {
		t.Fatalf("ModuleID = %q, want absolute path %q", got, abs)
	}
}

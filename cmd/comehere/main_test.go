package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindManifest(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "comehere.yml"), []byte("targets: {}\n"), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	child := filepath.Join(root, "src", "app")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := findManifest(child)
	if err != nil {
		t.Fatalf("findManifest returned error: %v", err)
	}
	want := filepath.Join(root, "comehere.yml")
	if found != want {
		t.Fatalf("findManifest = %q, want %q", found, want)
	}
}

func TestFindManifestNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := findManifest(dir)
	if !errors.Is(err, errManifestNotFound) {
		t.Fatalf("expected errManifestNotFound, got %v", err)
	}
}

func TestParseTransformArgsFilesAndFlags(t *testing.T) {
	opts, err := parseTransformArgs([]string{"a.js", "--target", "app", "--since", "HEAD~1", "b.js"})
	if err != nil {
		t.Fatalf("parseTransformArgs returned error: %v", err)
	}
	if opts.target != "app" {
		t.Fatalf("target = %q, want app", opts.target)
	}
	if opts.sinceRev != "HEAD~1" {
		t.Fatalf("sinceRev = %q, want HEAD~1", opts.sinceRev)
	}
	if len(opts.files) != 2 || opts.files[0] != "a.js" || opts.files[1] != "b.js" {
		t.Fatalf("files unexpected: %#v", opts.files)
	}
}

func TestParseTransformArgsUnrecognizedFlag(t *testing.T) {
	_, err := parseTransformArgs([]string{"--bogus"})
	if err == nil {
		t.Fatal("expected an error for an unrecognized flag")
	}
}

func TestParseTransformArgsMissingFlagValue(t *testing.T) {
	_, err := parseTransformArgs([]string{"--target"})
	if err == nil {
		t.Fatal("expected an error for a flag missing its value")
	}
}

func TestRunTransformDirectFile(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "mod.js")
	if err := os.WriteFile(sourcePath, []byte("function f(x) { return x; }\n"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	code := run([]string{"transform", sourcePath})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}

	outDir := filepath.Join(dir, "comehere-out")
	if _, err := os.Stat(filepath.Join(outDir, "mod.js")); err != nil {
		t.Fatalf("expected rewritten output written to comehere-out: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "mod.blocks.json")); err != nil {
		t.Fatalf("expected blocks side-file written to comehere-out: %v", err)
	}
	if _, err := os.ReadFile(sourcePath); err != nil {
		t.Fatalf("expected original source left untouched: %v", err)
	}
}

func TestRunTransformNoArgsFails(t *testing.T) {
	if code := run([]string{"transform"}); code == 0 {
		t.Fatal("expected a non-zero exit code when no files or target are given")
	}
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	if code := run(nil); code == 0 {
		t.Fatal("expected a non-zero exit code with no arguments")
	}
}

func TestRunVersion(t *testing.T) {
	if code := run([]string{"--version"}); code != 0 {
		t.Fatalf("run --version returned %d, want 0", code)
	}
}

package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/parser"
	"github.com/mikesamuel/comehere/pkg/transform"
)

// BlockDescription is one entry of the JSON side-file the playground UI
// reads (§4.8): the goal's 1-based id and its optional description.
type BlockDescription struct {
	ID          int     `json:"id"`
	Description *string `json:"description,omitempty"`
}

// RunFile parses, transforms, and writes the output for one source file.
// moduleID identifies the module to the emitted seek-variable lookup
// (§4.5, §4.9); outDir receives the rewritten source (same base name) and
// a "<base>.blocks.json" side-file.
func RunFile(sourcePath, moduleID, outDir string, sink diag.Sink) error {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("driver: read %s: %w", sourcePath, err)
	}

	p, err := parser.NewModuleParser()
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	defer p.Close()

	prog, err := p.Parse(source)
	if err != nil {
		return fmt.Errorf("driver: parse %s: %w", sourcePath, err)
	}

	result, err := transform.Transform(prog, transform.Options{ModuleID: moduleID, Sink: sink})
	if err != nil {
		return fmt.Errorf("driver: transform %s: %w", sourcePath, err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("driver: create output directory %s: %w", outDir, err)
	}

	base := baseNameNoExt(sourcePath)
	codePath := filepath.Join(outDir, base+".js")
	if err := os.WriteFile(codePath, []byte(result.Code), 0o644); err != nil {
		return fmt.Errorf("driver: write %s: %w", codePath, err)
	}

	blocksPath := filepath.Join(outDir, base+".blocks.json")
	if err := writeBlocks(blocksPath, result.Blocks); err != nil {
		return err
	}
	return nil
}

func writeBlocks(path string, blocks []*string) error {
	descriptions := make([]BlockDescription, len(blocks))
	for i, desc := range blocks {
		descriptions[i] = BlockDescription{ID: i + 1, Description: desc}
	}
	data, err := json.MarshalIndent(descriptions, "", "  ")
	if err != nil {
		return fmt.Errorf("driver: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("driver: write %s: %w", path, err)
	}
	return nil
}

func baseNameNoExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// ModuleID derives the <module-identity> passed to getWhichSeeking (§4.9):
// the source path relative to root with the OS separator normalized to
// "/", or the absolute path if it falls outside root.
func ModuleID(root, sourcePath string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return sourcePath
	}
	absSource, err := filepath.Abs(sourcePath)
	if err != nil {
		return sourcePath
	}
	rel, err := filepath.Rel(absRoot, absSource)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return absSource
	}
	return filepath.ToSlash(rel)
}

// Package transform implements C10: the public orchestrating entrypoint
// that runs every pass in the fixed order §5 requires and assembles the
// external-facing result (SPEC_FULL.md §6).
package transform

import (
	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/capturevars"
	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/drive"
	"github.com/mikesamuel/comehere/pkg/extract"
	"github.com/mikesamuel/comehere/pkg/namepool"
	"github.com/mikesamuel/comehere/pkg/normalize"
	"github.com/mikesamuel/comehere/pkg/preamble"
	"github.com/mikesamuel/comehere/pkg/returncapture"
	"github.com/mikesamuel/comehere/pkg/support"
)

// Options configures a single transform run.
type Options struct {
	// ModuleID identifies this module to the runtime's
	// debugHooks.getWhichSeeking hook (§4.5, §4.9 "Module-identity
	// derivation"). The CLI derives it from the manifest target plus
	// relative path, falling back to the absolute source path when run
	// standalone.
	ModuleID string

	// Sink receives every diagnostic raised during extraction and driving.
	// Defaults to diag.NewConsole() if nil.
	Sink diag.Sink
}

// Result is the transformer's external-facing output (§6): standard
// JavaScript source plus one description slot per goal, indexed by
// (goal id - 1).
type Result struct {
	Code   string
	Blocks []*string
}

// Transform runs the full COMEHERE pipeline over prog in place and returns
// the rendered source plus the block-description manifest. The only
// returned errors are those of the control driver: the fatal "unsupported
// enclosing context" case (§4.7) and a rewrite it could not splice into
// the tree; everything else is reported through the sink and left
// best-effort in the output.
func Transform(prog *ast.Program, opts Options) (Result, error) {
	sink := opts.Sink
	if sink == nil {
		sink = diag.NewConsole()
	}

	pool := namepool.New(prog)
	reg := support.NewRegistry(pool)

	normalize.Normalize(prog)
	returncapture.Apply(prog, pool)
	blocks := extract.Extract(prog, reg, sink)
	if err := drive.Drive(prog, blocks, reg, sink); err != nil {
		return Result{}, err
	}
	capturevars.Apply(prog)
	preamble.Emit(prog, reg, opts.ModuleID)

	return Result{
		Code:   ast.Print(prog),
		Blocks: blockDescriptions(blocks),
	}, nil
}

func blockDescriptions(blocks []*extract.GoalBlock) []*string {
	out := make([]*string, len(blocks))
	for _, b := range blocks {
		if b.ID < 1 || b.ID > len(blocks) {
			continue
		}
		if b.HasDescription {
			desc := b.Description
			out[b.ID-1] = &desc
		}
	}
	return out
}

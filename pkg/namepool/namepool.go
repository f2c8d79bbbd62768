// Package namepool implements the fresh-identifier vending machine (C2):
// it scans a parsed module for every identifier already in use, then hands
// out names of the form <prefix>_<n> guaranteed not to collide with
// anything in the source (SPEC_FULL.md §4, invariant "no synthesised name
// collides with any identifier present in the source").
package namepool

import (
	"fmt"

	"github.com/mikesamuel/comehere/pkg/ast"
)

// Pool vends fresh names and is also the shared counter the active-frame
// bit-index allocator (§4.4.1) draws from, so that user-invisible names and
// bit indices are never assigned from overlapping numbering (§3 invariant).
type Pool struct {
	used    map[string]bool
	counter int
}

// New scans prog for every Identifier it contains (bound or referenced) and
// returns a Pool that will never hand out one of those names.
func New(prog *ast.Program) *Pool {
	p := &Pool{used: make(map[string]bool)}
	ast.Walk(prog, func(n ast.Node) {
		if id, ok := n.(*ast.Identifier); ok {
			p.used[id.Name] = true
		}
	})
	return p
}

// Fresh returns a new identifier "<prefix>_<n>" not present in the source
// and not previously vended by this pool.
func (p *Pool) Fresh(prefix string) string {
	for {
		name := fmt.Sprintf("%s_%d", prefix, p.counter)
		p.counter++
		if !p.used[name] {
			p.used[name] = true
			return name
		}
	}
}

// FreshBit allocates the next bit index for the active-frame bitmask
// (§4.4.1). Bit indices are drawn from the same counter-derived sequence as
// Fresh so that, per the §3 invariant, they can never collide with a
// synthesised name that happens to look numeric.
func (p *Pool) FreshBit() int {
	n := p.counter
	p.counter++
	return n
}

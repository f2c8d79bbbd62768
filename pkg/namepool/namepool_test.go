package namepool_test

import (
	"fmt"
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/namepool"
)

func TestFreshAvoidsExistingIdentifiers(t *testing.T) {
	prog := ast.NewProgram([]ast.Statement{
		ast.NewVariableDeclaration(ast.DeclConst,
			ast.NewVariableDeclarator(ast.NewIdentifier("seek_0"), ast.NewNumberLiteral("1"))),
	})
	pool := namepool.New(prog)

	name := pool.Fresh("seek")
	if name == "seek_0" {
		t.Fatalf("Fresh returned a name already present in source: %s", name)
	}
}

func TestFreshNeverRepeats(t *testing.T) {
	pool := namepool.New(ast.NewProgram(nil))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := pool.Fresh("tmp")
		if seen[name] {
			t.Fatalf("Fresh produced duplicate name %s", name)
		}
		seen[name] = true
	}
}

func TestFreshBitSharesCounterWithFresh(t *testing.T) {
	pool := namepool.New(ast.NewProgram(nil))
	a := pool.FreshBit()
	name := pool.Fresh("tmp")
	b := pool.FreshBit()
	if a == b {
		t.Fatalf("FreshBit returned duplicate index")
	}
	if name != fmt.Sprintf("tmp_%d", a+1) || b != a+2 {
		t.Fatalf("FreshBit and Fresh do not share one counter: bit %d, name %s, bit %d", a, name, b)
	}
}

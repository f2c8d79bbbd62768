package preamble_test

import (
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/namepool"
	"github.com/mikesamuel/comehere/pkg/preamble"
	"github.com/mikesamuel/comehere/pkg/support"
)

func TestEmitsNothingWhenNoHelperWasRequested(t *testing.T) {
	prog := ast.NewProgram([]ast.Statement{
		ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
	})
	reg := support.NewRegistry(namepool.New(prog))

	preamble.Emit(prog, reg, "mod")

	if len(prog.Body) != 1 {
		t.Fatalf("expected no preamble statements prepended, got %d", len(prog.Body))
	}
}

func TestEmitsOnlyRequestedHelpersInFixedOrder(t *testing.T) {
	prog := ast.NewProgram([]ast.Statement{
		ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
	})
	reg := support.NewRegistry(namepool.New(prog))

	// Request activeMask and the or-helper, but not seek or the iterators.
	activeMaskName := reg.ActiveMask()
	orName := reg.OrHelper()

	preamble.Emit(prog, reg, "mod")

	if len(prog.Body) != 3 {
		t.Fatalf("expected [activeMask decl, or helper, original statement], got %d", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	if !ok || decl.DeclKind != ast.DeclLet {
		t.Fatalf("expected activeMask declared first, got %T", prog.Body[0])
	}
	if decl.Declarators[0].Target.(*ast.Identifier).Name != activeMaskName {
		t.Fatalf("expected the declared name to match the registry's activeMask name")
	}
	if decl.Declarators[0].Init.(*ast.NumberLiteral).Raw != "0n" {
		t.Fatalf("expected activeMask to initialize to the BigInt literal 0n, got %s", decl.Declarators[0].Init.(*ast.NumberLiteral).Raw)
	}
	fn, ok := prog.Body[1].(*ast.FunctionDeclaration)
	if !ok || fn.Name.Name != orName {
		t.Fatalf("expected the or helper second, got %T", prog.Body[1])
	}
	if len(fn.Params) != 3 {
		t.Fatalf("expected the or helper to take (x, y, seek), got %d params", len(fn.Params))
	}
}

func TestSeekDeclarationReadsDebugHooksOptionally(t *testing.T) {
	prog := ast.NewProgram(nil)
	reg := support.NewRegistry(namepool.New(prog))
	reg.Seek()

	preamble.Emit(prog, reg, "my/module.js")

	decl := prog.Body[0].(*ast.VariableDeclaration)
	logical := decl.Declarators[0].Init.(*ast.LogicalExpression)
	if logical.Operator != "||" {
		t.Fatalf("expected a || fallback to 0, got operator %q", logical.Operator)
	}
	call := logical.Left.(*ast.CallExpression)
	member := call.Callee.(*ast.MemberExpression)
	if !member.Optional {
		t.Fatalf("expected the getWhichSeeking access to be optional-chained")
	}
	if member.Property.(*ast.Identifier).Name != "getWhichSeeking" {
		t.Fatalf("expected the call to target getWhichSeeking, got %s", ast.Expr(member.Property))
	}
	if call.Arguments[0].(*ast.StringLiteral).Value != "my/module.js" {
		t.Fatalf("expected the module id to be passed through, got %s", ast.Expr(call.Arguments[0]))
	}
}

func TestValueAndKeyIteratorsAreGenerators(t *testing.T) {
	prog := ast.NewProgram(nil)
	reg := support.NewRegistry(namepool.New(prog))
	reg.ValueIterator()
	reg.KeyIterator()

	preamble.Emit(prog, reg, "mod")

	if len(prog.Body) != 2 {
		t.Fatalf("expected the two iterator helpers, got %d statements", len(prog.Body))
	}
	for _, s := range prog.Body {
		fn, ok := s.(*ast.FunctionDeclaration)
		if !ok || !fn.IsGenerator {
			t.Fatalf("expected a generator function declaration, got %T (generator=%v)", s, ok && fn.IsGenerator)
		}
	}
}

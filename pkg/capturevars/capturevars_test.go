package capturevars_test

import (
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/capturevars"
)

func TestDeclaresAtInnermostCommonFunctionAndRewritesReads(t *testing.T) {
	// function outer() {
	//   function inner() {
	//     log($$x);
	//     log($$x);
	//   }
	// }
	use1 := ast.NewCallExpression(ast.NewIdentifier("log"), []ast.Expression{ast.NewIdentifier("$$x")})
	use2 := ast.NewCallExpression(ast.NewIdentifier("log"), []ast.Expression{ast.NewIdentifier("$$x")})
	inner := ast.NewFunctionDeclaration(ast.NewIdentifier("inner"), nil, ast.NewBlockStatement([]ast.Statement{
		ast.NewExpressionStatement(use1),
		ast.NewExpressionStatement(use2),
	}))
	outer := ast.NewFunctionDeclaration(ast.NewIdentifier("outer"), nil, ast.NewBlockStatement([]ast.Statement{inner}))
	prog := ast.NewProgram([]ast.Statement{outer})

	capturevars.Apply(prog)

	if len(inner.Body.Body) != 3 {
		t.Fatalf("expected the declaration prepended inside inner (its the deepest common scope), got %d statements", len(inner.Body.Body))
	}
	decl, ok := inner.Body.Body[0].(*ast.VariableDeclaration)
	if !ok || decl.DeclKind != ast.DeclConst {
		t.Fatalf("expected a const declaration first, got %T", inner.Body.Body[0])
	}
	if decl.Declarators[0].Target.(*ast.Identifier).Name != "$$x" {
		t.Fatalf("expected the declared name to be $$x, got %s", ast.Expr(decl.Declarators[0].Target))
	}

	// Both reads should have become $$x[1].
	for _, use := range []*ast.CallExpression{use1, use2} {
		m, ok := use.Arguments[0].(*ast.MemberExpression)
		if !ok || !m.Computed {
			t.Fatalf("expected a computed member read, got %T", use.Arguments[0])
		}
		if m.Object.(*ast.Identifier).Name != "$$x" {
			t.Fatalf("expected the read to index into $$x, got %s", ast.Expr(m.Object))
		}
		if m.Property.(*ast.NumberLiteral).Raw != "1" {
			t.Fatalf("expected the value slot (index 1), got %s", m.Property.(*ast.NumberLiteral).Raw)
		}
	}
}

func TestSkipsNameUsedInDeclaringPosition(t *testing.T) {
	// function f($$x) { log($$x); }
	param := ast.NewIdentifier("$$x")
	use := ast.NewIdentifier("$$x")
	fn := ast.NewFunctionDeclaration(ast.NewIdentifier("f"),
		[]*ast.Parameter{ast.NewParameter(param, nil, false)},
		ast.NewBlockStatement([]ast.Statement{
			ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), []ast.Expression{use})),
		}))
	prog := ast.NewProgram([]ast.Statement{fn})

	capturevars.Apply(prog)

	if len(fn.Body.Body) != 1 {
		t.Fatalf("expected no declaration inserted for a disqualified name, got %d statements", len(fn.Body.Body))
	}
	call := fn.Body.Body[0].(*ast.ExpressionStatement).Expr.(*ast.CallExpression)
	if _, ok := call.Arguments[0].(*ast.Identifier); !ok {
		t.Fatalf("expected the use left untouched as a bare identifier, got %T", call.Arguments[0])
	}
}

func TestAssignmentTargetSequenceWraps(t *testing.T) {
	// $$count += 1;
	assign := ast.NewAssignmentExpression("+=", ast.NewIdentifier("$$count"), ast.NewNumberLiteral("1"))
	stmt := ast.NewExpressionStatement(assign)
	prog := ast.NewProgram([]ast.Statement{stmt})

	capturevars.Apply(prog)

	if len(prog.Body) != 2 {
		t.Fatalf("expected [declaration, rewritten assignment], got %d statements", len(prog.Body))
	}
	seq, ok := prog.Body[1].(*ast.ExpressionStatement).Expr.(*ast.SequenceExpression)
	if !ok || len(seq.Expressions) != 2 {
		t.Fatalf("expected the assignment to become a two-part sequence expression, got %T", prog.Body[1].(*ast.ExpressionStatement).Expr)
	}
	textAssign, ok := seq.Expressions[0].(*ast.AssignmentExpression)
	if !ok || textAssign.Operator != "=" {
		t.Fatalf("expected the first part to set the text slot, got %T", seq.Expressions[0])
	}
	text := textAssign.Value.(*ast.StringLiteral).Value
	if text != "1 =+" {
		t.Fatalf("expected the text slot to carry the right-hand side plus the reversed operator, got %q", text)
	}
	valueAssign, ok := seq.Expressions[1].(*ast.AssignmentExpression)
	if !ok || valueAssign.Operator != "+=" {
		t.Fatalf("expected the second part to apply the original operator to the value slot, got %T", seq.Expressions[1])
	}
}

func TestSpreadUseLeftAsBareReference(t *testing.T) {
	// log(...$$x);
	call := ast.NewCallExpression(ast.NewIdentifier("log"), []ast.Expression{
		ast.NewSpreadElement(ast.NewIdentifier("$$x")),
	})
	other := ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("touch"), []ast.Expression{ast.NewIdentifier("$$x")}))
	prog := ast.NewProgram([]ast.Statement{ast.NewExpressionStatement(call), other})

	capturevars.Apply(prog)

	spread := call.Arguments[0].(*ast.SpreadElement)
	if _, ok := spread.Argument.(*ast.Identifier); !ok {
		t.Fatalf("expected the spread argument to remain a bare identifier so [text, value] itself spreads, got %T", spread.Argument)
	}
}

package returncapture_test

import (
	"strings"
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/namepool"
	"github.com/mikesamuel/comehere/pkg/returncapture"
)

func TestLiftsReturnFollowedByComeHere(t *testing.T) {
	ret := ast.NewReturnStatement(ast.NewBinaryExpression("+", ast.NewIdentifier("a"), ast.NewIdentifier("b")))
	goal := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewStringLiteral("after sum")},
		ast.NewBlockStatement([]ast.Statement{
			ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
		}),
	)
	fn := ast.NewFunctionDeclaration(ast.NewIdentifier("sum"), nil, ast.NewBlockStatement([]ast.Statement{ret, goal}))
	prog := ast.NewProgram([]ast.Statement{fn})

	returncapture.Apply(prog, namepool.New(prog))

	body := fn.Body.Body
	if len(body) != 2 {
		t.Fatalf("expected [declare R, try/finally], got %d statements", len(body))
	}
	decl, ok := body[0].(*ast.VariableDeclaration)
	if !ok || decl.DeclKind != ast.DeclLet {
		t.Fatalf("expected a let declaration first, got %T", body[0])
	}
	tryStmt, ok := body[1].(*ast.TryStatement)
	if !ok {
		t.Fatalf("expected a try statement second, got %T", body[1])
	}
	if tryStmt.Finally == nil || len(tryStmt.Finally.Body) != 1 {
		t.Fatalf("expected the COMEHERE block lifted into finally")
	}
	if _, ok := tryStmt.Finally.Body[0].(*ast.ComeHereStatement); !ok {
		t.Fatalf("expected the finally body to still hold the ComeHereStatement, got %T", tryStmt.Finally.Body[0])
	}

	retInTry, ok := tryStmt.Block.Body[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected a return inside the try block, got %T", tryStmt.Block.Body[0])
	}
	assign, ok := retInTry.Argument.(*ast.AssignmentExpression)
	if !ok {
		t.Fatalf("expected the lifted return to assign into the capture variable, got %T", retInTry.Argument)
	}
	rName := decl.Declarators[0].Target.(*ast.Identifier).Name
	if assign.Target.(*ast.Identifier).Name != rName {
		t.Fatalf("lifted return assigns into %q, declared capture is %q", assign.Target.(*ast.Identifier).Name, rName)
	}
}

func TestRewritesFunctionReturnReferencesInsideLiftedBlock(t *testing.T) {
	ret := ast.NewReturnStatement(ast.NewIdentifier("x"))
	magic := ast.NewMemberExpression(ast.NewIdentifier("Function"), ast.NewIdentifier("return"), false)
	goal := ast.NewComeHereStatement(nil, ast.NewBlockStatement([]ast.Statement{
		ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), []ast.Expression{magic})),
	}))
	fn := ast.NewFunctionDeclaration(ast.NewIdentifier("f"), nil, ast.NewBlockStatement([]ast.Statement{ret, goal}))
	prog := ast.NewProgram([]ast.Statement{fn})

	returncapture.Apply(prog, namepool.New(prog))

	out := ast.Print(prog)
	if strings.Contains(out, "Function.return") {
		t.Fatalf("expected Function.return to be rewritten, got:\n%s", out)
	}
}

func TestLeavesPlainReturnsUntouched(t *testing.T) {
	ret := ast.NewReturnStatement(ast.NewIdentifier("x"))
	fn := ast.NewFunctionDeclaration(ast.NewIdentifier("f"), nil, ast.NewBlockStatement([]ast.Statement{ret}))
	prog := ast.NewProgram([]ast.Statement{fn})

	returncapture.Apply(prog, namepool.New(prog))

	if len(fn.Body.Body) != 1 {
		t.Fatalf("expected return with no trailing COMEHERE to be left alone, got %d statements", len(fn.Body.Body))
	}
	if fn.Body.Body[0] != ret {
		t.Fatalf("expected the original return statement to be untouched")
	}
}

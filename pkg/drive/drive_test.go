package drive_test

import (
	"strings"
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/drive"
	"github.com/mikesamuel/comehere/pkg/extract"
	"github.com/mikesamuel/comehere/pkg/namepool"
	"github.com/mikesamuel/comehere/pkg/support"
)

func buildRegistry(prog *ast.Program) *support.Registry {
	return support.NewRegistry(namepool.New(prog))
}

func TestDriveRewritesIfGuardAndInstallsPrologue(t *testing.T) {
	goal := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewStringLiteral("inside if")},
		ast.NewBlockStatement([]ast.Statement{
			ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
		}),
	)
	ifStmt := ast.NewIfStatement(
		ast.NewBinaryExpression(">", ast.NewIdentifier("x"), ast.NewNumberLiteral("0")),
		ast.NewBlockStatement([]ast.Statement{goal}),
		nil,
	)
	fn := ast.NewFunctionDeclaration(ast.NewIdentifier("f"), []*ast.Parameter{ast.NewParameter(ast.NewIdentifier("x"), nil, false)},
		ast.NewBlockStatement([]ast.Statement{ifStmt}))
	prog := ast.NewProgram([]ast.Statement{fn})

	reg := buildRegistry(prog)
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(blocks))
	}

	if err := drive.Drive(prog, blocks, reg, rec); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}
	if len(rec.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Errors)
	}

	// The outer test should have grown an `|| (active_0 && seek == 1)` disjunct.
	lg, ok := ifStmt.Test.(*ast.LogicalExpression)
	if !ok || lg.Operator != "||" {
		t.Fatalf("expected if-test to become a logical-or, got %s", ast.Expr(ifStmt.Test))
	}

	// The function body should now start with the active-bit prologue: a
	// `const active_N = ...` declaration followed by the mask-clearing
	// assignment, ahead of the original if statement.
	if len(fn.Body.Body) < 3 {
		t.Fatalf("expected prologue statements prepended ahead of the if, got %d statements", len(fn.Body.Body))
	}
	decl, ok := fn.Body.Body[0].(*ast.VariableDeclaration)
	if !ok || decl.DeclKind != ast.DeclConst {
		t.Fatalf("expected the first statement to be the active-bit const declaration, got %T", fn.Body.Body[0])
	}
	if fn.Body.Body[len(fn.Body.Body)-1] != ifStmt {
		t.Fatalf("expected the original if statement to remain last")
	}
}

func TestDriveSynthesizesCallAcrossFunctionBoundary(t *testing.T) {
	goal := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewAssignmentExpression("=", ast.NewIdentifier("x"), ast.NewNumberLiteral("5"))},
		ast.NewBlockStatement([]ast.Statement{
			ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
		}),
	)
	inner := ast.NewFunctionDeclaration(ast.NewIdentifier("inner"), []*ast.Parameter{ast.NewParameter(ast.NewIdentifier("x"), nil, false)},
		ast.NewBlockStatement([]ast.Statement{goal}))
	prog := ast.NewProgram([]ast.Statement{inner})

	reg := buildRegistry(prog)
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(blocks))
	}

	if err := drive.Drive(prog, blocks, reg, rec); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}
	if len(rec.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Errors)
	}

	// A guarded call block should have been inserted after the function
	// declaration at module scope.
	if len(prog.Body) != 2 {
		t.Fatalf("expected [function declaration, guarded call], got %d statements", len(prog.Body))
	}
	guard, ok := prog.Body[1].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected a guarded call block after the declaration, got %T", prog.Body[1])
	}
	out := ast.Print(ast.NewProgram([]ast.Statement{guard}))
	if !strings.Contains(out, "inner") {
		t.Fatalf("expected the synthesized call to reference the function by name, got:\n%s", out)
	}
}

func TestDriveSynthesizesCallAcrossFunctionExpressionBoundary(t *testing.T) {
	goal := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewAssignmentExpression("=", ast.NewIdentifier("x"), ast.NewNumberLiteral("5"))},
		ast.NewBlockStatement([]ast.Statement{
			ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
		}),
	)
	fnExpr := ast.NewFunctionExpression(nil, []*ast.Parameter{ast.NewParameter(ast.NewIdentifier("x"), nil, false)},
		ast.NewBlockStatement([]ast.Statement{goal}))
	decl := ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(ast.NewIdentifier("f"), fnExpr))
	prog := ast.NewProgram([]ast.Statement{decl})

	reg := buildRegistry(prog)
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(blocks))
	}

	if err := drive.Drive(prog, blocks, reg, rec); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}
	if len(rec.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Errors)
	}

	// The function expression's declarator init should now be an IIFE that
	// takes the original function expression as its argument and returns it
	// unchanged, wrapping it with the guarded call.
	iife, ok := decl.Declarators[0].Init.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected the declarator init to become an IIFE call, got %T", decl.Declarators[0].Init)
	}
	if len(iife.Arguments) != 1 || iife.Arguments[0] != fnExpr {
		t.Fatalf("expected the IIFE to be invoked with the original function expression")
	}
	out := ast.Print(ast.NewProgram([]ast.Statement{decl}))
	if !strings.Contains(out, "log") {
		t.Fatalf("expected the synthesized call's body to still contain the original goal body, got:\n%s", out)
	}
}

func TestDriveReportsUnconsumedInitializer(t *testing.T) {
	goal := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewAssignmentExpression("=", ast.NewIdentifier("nonexistentParam"), ast.NewNumberLiteral("5"))},
		ast.NewBlockStatement([]ast.Statement{
			ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
		}),
	)
	inner := ast.NewFunctionDeclaration(ast.NewIdentifier("inner"), nil, ast.NewBlockStatement([]ast.Statement{goal}))
	prog := ast.NewProgram([]ast.Statement{inner})

	reg := buildRegistry(prog)
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(blocks))
	}

	if err := drive.Drive(prog, blocks, reg, rec); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}
	if len(rec.Errors) != 1 {
		t.Fatalf("expected one diagnostic for the initializer that named no real parameter, got %v", rec.Errors)
	}
	if len(rec.Warns) != 0 {
		t.Fatalf("inner takes no parameters, so no argument warning should fire, got %v", rec.Warns)
	}
}

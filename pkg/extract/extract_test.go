package extract_test

import (
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/extract"
	"github.com/mikesamuel/comehere/pkg/namepool"
	"github.com/mikesamuel/comehere/pkg/support"
)

func TestExtractAssignsSequentialIdsAndBuildsGuard(t *testing.T) {
	first := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewStringLiteral("first")},
		ast.NewBlockStatement(nil),
	)
	second := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewStringLiteral("second")},
		ast.NewBlockStatement(nil),
	)
	prog := ast.NewProgram([]ast.Statement{
		ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil)),
		first,
		second,
	})

	reg := support.NewRegistry(namepool.New(prog))
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(blocks))
	}
	if blocks[0].ID != 1 || blocks[1].ID != 2 {
		t.Fatalf("expected ids 1, 2 in source order, got %d, %d", blocks[0].ID, blocks[1].ID)
	}
	if blocks[0].Description != "first" || blocks[1].Description != "second" {
		t.Fatalf("expected descriptions to round-trip, got %q, %q", blocks[0].Description, blocks[1].Description)
	}

	if _, ok := prog.Body[1].(*ast.IfStatement); !ok {
		t.Fatalf("expected the first ComeHereStatement to be replaced by a guard, got %T", prog.Body[1])
	}
	if len(rec.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Errors)
	}
}

func TestExtractParsesInitializersAndPlaceholder(t *testing.T) {
	withInit := ast.NewComeHereStatement(
		[]ast.Expression{
			ast.NewAssignmentExpression("=", ast.NewMemberExpression(ast.NewIdentifier("f"), ast.NewIdentifier("x"), false), ast.NewNumberLiteral("3")),
		},
		ast.NewBlockStatement(nil),
	)
	placeholder := ast.NewComeHereStatement([]ast.Expression{ast.NewIdentifier("_")}, ast.NewBlockStatement(nil))
	prog := ast.NewProgram([]ast.Statement{withInit, placeholder})

	reg := support.NewRegistry(namepool.New(prog))
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)

	if len(blocks[0].Initializers) != 1 {
		t.Fatalf("expected one initializer, got %d", len(blocks[0].Initializers))
	}
	if blocks[0].Initializers[0].Path != "f.x" {
		t.Fatalf("expected dotted path f.x, got %q", blocks[0].Initializers[0].Path)
	}
	if len(blocks[1].Initializers) != 0 {
		t.Fatalf("expected the `_` placeholder to produce no initializers, got %d", len(blocks[1].Initializers))
	}
}

func TestExtractReportsMalformedInitializer(t *testing.T) {
	bad := ast.NewComeHereStatement(
		[]ast.Expression{ast.NewIdentifier("notAnAssignment")},
		ast.NewBlockStatement(nil),
	)
	prog := ast.NewProgram([]ast.Statement{bad})

	reg := support.NewRegistry(namepool.New(prog))
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)

	if len(blocks[0].Initializers) != 0 {
		t.Fatalf("expected no initializers from malformed input, got %d", len(blocks[0].Initializers))
	}
	if len(rec.Errors) != 1 {
		t.Fatalf("expected one diagnostic for the malformed initializer, got %d", len(rec.Errors))
	}
}

func TestExtractFindsGoalInsideArrowAssignedByConst(t *testing.T) {
	goal := ast.NewComeHereStatement([]ast.Expression{ast.NewStringLiteral("in arrow")}, ast.NewBlockStatement(nil))
	arrow := ast.NewArrowFunction(nil, ast.NewBlockStatement([]ast.Statement{goal}))
	decl := ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(ast.NewIdentifier("f"), arrow))
	prog := ast.NewProgram([]ast.Statement{decl})

	reg := support.NewRegistry(namepool.New(prog))
	rec := &diag.Recording{}
	blocks := extract.Extract(prog, reg, rec)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 goal found inside the arrow body, got %d", len(blocks))
	}
	if _, ok := arrow.Body.Body[0].(*ast.ComeHereStatement); ok {
		t.Fatal("expected the ComeHereStatement inside the arrow to be replaced by its guard")
	}
	if len(rec.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Errors)
	}
}

func TestExtractFindsGoalInsideFunctionExpressionCallbackArgument(t *testing.T) {
	goal := ast.NewComeHereStatement([]ast.Expression{ast.NewStringLiteral("in callback")}, ast.NewBlockStatement(nil))
	callback := ast.NewFunctionExpression(nil, nil, ast.NewBlockStatement([]ast.Statement{goal}))
	call := ast.NewCallExpression(ast.NewIdentifier("setTimeout"), []ast.Expression{callback})
	prog := ast.NewProgram([]ast.Statement{ast.NewExpressionStatement(call)})

	reg := support.NewRegistry(namepool.New(prog))
	blocks := extract.Extract(prog, reg, &diag.Recording{})

	if len(blocks) != 1 {
		t.Fatalf("expected 1 goal found inside the callback argument, got %d", len(blocks))
	}
	if _, ok := callback.Body.Body[0].(*ast.ComeHereStatement); ok {
		t.Fatal("expected the ComeHereStatement inside the callback to be replaced by its guard")
	}
}

func TestExtractFindsGoalInsideReturnedIIFE(t *testing.T) {
	goal := ast.NewComeHereStatement(nil, ast.NewBlockStatement(nil))
	iifeFn := ast.NewFunctionExpression(nil, nil, ast.NewBlockStatement([]ast.Statement{goal}))
	iife := ast.NewCallExpression(iifeFn, nil)
	prog := ast.NewProgram([]ast.Statement{ast.NewReturnStatement(iife)})

	reg := support.NewRegistry(namepool.New(prog))
	blocks := extract.Extract(prog, reg, &diag.Recording{})

	if len(blocks) != 1 {
		t.Fatalf("expected 1 goal found inside the returned IIFE, got %d", len(blocks))
	}
}

func TestExtractAssignsNestedGoalsIdsAfterOuter(t *testing.T) {
	inner := ast.NewComeHereStatement([]ast.Expression{ast.NewStringLiteral("inner")}, ast.NewBlockStatement(nil))
	outer := ast.NewComeHereStatement([]ast.Expression{ast.NewStringLiteral("outer")}, ast.NewBlockStatement([]ast.Statement{inner}))
	prog := ast.NewProgram([]ast.Statement{outer})

	reg := support.NewRegistry(namepool.New(prog))
	blocks := extract.Extract(prog, reg, &diag.Recording{})

	if len(blocks) != 2 {
		t.Fatalf("expected 2 goals (outer + nested), got %d", len(blocks))
	}
	if blocks[0].Description != "outer" || blocks[0].ID != 1 {
		t.Fatalf("expected outer goal to be id 1")
	}
	if blocks[1].Description != "inner" || blocks[1].ID != 2 {
		t.Fatalf("expected nested goal to be id 2")
	}
}

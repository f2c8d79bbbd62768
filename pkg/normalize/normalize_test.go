package normalize_test

import (
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/normalize"
)

func TestNormalizeWrapsBareIfArm(t *testing.T) {
	bare := ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil))
	ifStmt := ast.NewIfStatement(ast.NewIdentifier("cond"), bare, nil)
	prog := ast.NewProgram([]ast.Statement{ifStmt})

	normalize.Normalize(prog)

	if _, ok := ifStmt.Consequent.(*ast.BlockStatement); !ok {
		t.Fatalf("expected consequent to be wrapped in a block, got %T", ifStmt.Consequent)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	bare := ast.NewExpressionStatement(ast.NewCallExpression(ast.NewIdentifier("log"), nil))
	whileStmt := ast.NewWhileStatement(ast.NewIdentifier("cond"), bare)
	prog := ast.NewProgram([]ast.Statement{whileStmt})

	normalize.Normalize(prog)
	firstBlock := whileStmt.Body

	normalize.Normalize(prog)
	if whileStmt.Body != firstBlock {
		t.Fatalf("second Normalize pass replaced an already-normalized block")
	}
}

func TestNormalizeConvertsArrowExpressionBodyToBlockReturn(t *testing.T) {
	arrow := ast.NewArrowFunctionWithExprBody(
		[]*ast.Parameter{ast.NewParameter(ast.NewIdentifier("x"), nil, false)},
		ast.NewBinaryExpression("+", ast.NewIdentifier("x"), ast.NewNumberLiteral("1")),
	)
	prog := ast.NewProgram([]ast.Statement{
		ast.NewExpressionStatement(ast.NewAssignmentExpression("=", ast.NewIdentifier("f"), arrow)),
	})

	normalize.Normalize(prog)

	if arrow.ExprBody != nil {
		t.Fatalf("expected ExprBody to be cleared after normalization")
	}
	if len(arrow.Body.Body) != 1 {
		t.Fatalf("expected single return statement in normalized arrow body")
	}
	if _, ok := arrow.Body.Body[0].(*ast.ReturnStatement); !ok {
		t.Fatalf("expected return statement, got %T", arrow.Body.Body[0])
	}
}

func TestNormalizeConvertsArrowExpressionBodyInConstDeclaration(t *testing.T) {
	arrow := ast.NewArrowFunctionWithExprBody(
		[]*ast.Parameter{ast.NewParameter(ast.NewIdentifier("x"), nil, false)},
		ast.NewBinaryExpression("+", ast.NewIdentifier("x"), ast.NewNumberLiteral("1")),
	)
	decl := ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(ast.NewIdentifier("f"), arrow))
	prog := ast.NewProgram([]ast.Statement{decl})

	normalize.Normalize(prog)

	if arrow.ExprBody != nil {
		t.Fatalf("expected ExprBody to be cleared after normalization of a const-declared arrow")
	}
	if len(arrow.Body.Body) != 1 {
		t.Fatalf("expected single return statement in normalized arrow body")
	}
	if _, ok := arrow.Body.Body[0].(*ast.ReturnStatement); !ok {
		t.Fatalf("expected return statement, got %T", arrow.Body.Body[0])
	}
}

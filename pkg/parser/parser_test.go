package parser_test

import (
	"testing"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/parser"
)

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	p, err := parser.NewModuleParser()
	if err != nil {
		t.Fatalf("NewModuleParser: %v", err)
	}
	defer p.Close()
	prog, err := p.Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return prog
}

func TestParsesPlainFunctionDeclaration(t *testing.T) {
	prog := mustParse(t, "function add(a, b) { return a + b; }")
	if len(prog.Body) != 1 {
		t.Fatalf("expected one top-level statement, got %d", len(prog.Body))
	}
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected *ast.FunctionDeclaration, got %T", prog.Body[0])
	}
	if fn.Name == nil || fn.Name.Name != "add" {
		t.Fatalf("expected function named add, got %v", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if len(fn.Body.Body) != 1 {
		t.Fatalf("expected one statement in body, got %d", len(fn.Body.Body))
	}
	ret, ok := fn.Body.Body[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected *ast.ReturnStatement, got %T", fn.Body.Body[0])
	}
	bin, ok := ret.Argument.(*ast.BinaryExpression)
	if !ok || bin.Operator != "+" {
		t.Fatalf("expected a + binary expression, got %#v", ret.Argument)
	}
}

func TestParsesComeHereLabelIntoComeHereStatement(t *testing.T) {
	prog := mustParse(t, `
function f(x) {
  COMEHERE: with ("checking x", x > 0) {
    log(x);
  }
}`)
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	goal, ok := fn.Body.Body[0].(*ast.ComeHereStatement)
	if !ok {
		t.Fatalf("expected *ast.ComeHereStatement, got %T", fn.Body.Body[0])
	}
	if len(goal.Args) != 2 {
		t.Fatalf("expected 2 with-args, got %d", len(goal.Args))
	}
	desc, ok := goal.Args[0].(*ast.StringLiteral)
	if !ok || desc.Value != "checking x" {
		t.Fatalf("expected the description string first, got %#v", goal.Args[0])
	}
	if len(goal.Body.Body) != 1 {
		t.Fatalf("expected one statement in the goal body, got %d", len(goal.Body.Body))
	}
}

func TestOrdinaryLabeledStatementIsNotAGoal(t *testing.T) {
	prog := mustParse(t, `
outer: while (true) {
  break outer;
}`)
	label, ok := prog.Body[0].(*ast.LabeledStatement)
	if !ok {
		t.Fatalf("expected *ast.LabeledStatement, got %T", prog.Body[0])
	}
	if label.Label.Name != "outer" {
		t.Fatalf("expected label outer, got %s", label.Label.Name)
	}
}

func TestParsesIfElseIfElseChain(t *testing.T) {
	prog := mustParse(t, `
if (a) {
  one();
} else if (b) {
  two();
} else {
  three();
}`)
	top, ok := prog.Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected *ast.IfStatement, got %T", prog.Body[0])
	}
	elseIf, ok := top.Alternate.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected the else-if arm to itself be an *ast.IfStatement, got %T", top.Alternate)
	}
	if elseIf.Alternate == nil {
		t.Fatalf("expected a final else block")
	}
}

func TestParsesForOfAndForInWithDeclKind(t *testing.T) {
	prog := mustParse(t, `
for (const x of items) { use(x); }
for (let k in obj) { use(k); }`)
	forOf, ok := prog.Body[0].(*ast.ForOfStatement)
	if !ok {
		t.Fatalf("expected *ast.ForOfStatement, got %T", prog.Body[0])
	}
	if forOf.DeclKind != ast.DeclConst {
		t.Fatalf("expected const decl kind, got %s", forOf.DeclKind)
	}
	forIn, ok := prog.Body[1].(*ast.ForInStatement)
	if !ok {
		t.Fatalf("expected *ast.ForInStatement, got %T", prog.Body[1])
	}
	if forIn.DeclKind != ast.DeclLet {
		t.Fatalf("expected let decl kind, got %s", forIn.DeclKind)
	}
}

func TestParsesClassWithMethodsAndFields(t *testing.T) {
	prog := mustParse(t, `
class Point {
  x = 0;
  constructor(x, y) { this.x = x; this.y = y; }
  get magnitude() { return this.x; }
}`)
	cls, ok := prog.Body[0].(*ast.ClassDeclaration)
	if !ok {
		t.Fatalf("expected *ast.ClassDeclaration, got %T", prog.Body[0])
	}
	if len(cls.Body.Members) != 3 {
		t.Fatalf("expected 3 class members, got %d", len(cls.Body.Members))
	}
	if _, ok := cls.Body.Members[0].(*ast.PropertyDefinition); !ok {
		t.Fatalf("expected first member to be a field, got %T", cls.Body.Members[0])
	}
	ctor, ok := cls.Body.Members[1].(*ast.MethodDefinition)
	if !ok || ctor.MethodKind != ast.MethodConstructor {
		t.Fatalf("expected the second member to be the constructor, got %#v", cls.Body.Members[1])
	}
	getter, ok := cls.Body.Members[2].(*ast.MethodDefinition)
	if !ok || getter.MethodKind != ast.MethodGetter {
		t.Fatalf("expected the third member to be a getter, got %#v", cls.Body.Members[2])
	}
}

func TestParsesArrowFunctionBothBodyForms(t *testing.T) {
	prog := mustParse(t, `
const inc = x => x + 1;
const log = (x) => { console.log(x); };`)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	fn := decl.Declarators[0].Init.(*ast.FunctionExpression)
	if !fn.IsArrow || len(fn.Params) != 1 {
		t.Fatalf("expected a 1-param arrow function, got %#v", fn)
	}
	if fn.ExprBody == nil {
		t.Fatalf("expected the concise-body arrow to carry ExprBody before normalization")
	}

	decl2 := prog.Body[1].(*ast.VariableDeclaration)
	fn2 := decl2.Declarators[0].Init.(*ast.FunctionExpression)
	if fn2.Body == nil || len(fn2.Body.Body) != 1 {
		t.Fatalf("expected the block-body arrow to carry a Body, got %#v", fn2)
	}
}

func TestUnrecognizedSyntaxFallsBackToRaw(t *testing.T) {
	prog := mustParse(t, "const re = /foo.*bar/g;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	if _, ok := decl.Declarators[0].Init.(*ast.RawExpression); !ok {
		t.Fatalf("expected a regex literal to fall back to *ast.RawExpression, got %T", decl.Declarators[0].Init)
	}
}

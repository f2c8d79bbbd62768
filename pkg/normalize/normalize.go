// Package normalize implements the block-normalizer (C3): every
// single-statement control-flow arm is wrapped in a block so that later
// passes have an insertion site without needing to re-wrap mid-mutation
// (SPEC_FULL.md §4.1). Must run before any other mutating pass, and must be
// idempotent (§8 "Round-trip and idempotence").
package normalize

import "github.com/mikesamuel/comehere/pkg/ast"

// Normalize mutates prog in place.
func Normalize(prog *ast.Program) {
	prog.Body = normalizeStatements(prog.Body)
}

func normalizeStatements(list []ast.Statement) []ast.Statement {
	for i, s := range list {
		list[i] = normalizeStatement(s)
	}
	return list
}

// normalizeStatement recurses into every nested statement, then returns its
// argument unchanged — arms are normalized in the parent via wrapBlock, not
// here, since only the parent knows which of its children are "arms" that
// need a block home.
func normalizeStatement(s ast.Statement) ast.Statement {
	switch n := s.(type) {
	case *ast.BlockStatement:
		n.Body = normalizeStatements(n.Body)
	case *ast.IfStatement:
		n.Consequent = wrapBlock(normalizeStatement(n.Consequent))
		if n.Alternate != nil {
			n.Alternate = wrapBlock(normalizeStatement(n.Alternate))
		}
	case *ast.SwitchStatement:
		for _, c := range n.Cases {
			c.Consequent = normalizeStatements(c.Consequent)
		}
	case *ast.WhileStatement:
		n.Body = wrapBlock(normalizeStatement(n.Body))
	case *ast.DoWhileStatement:
		n.Body = wrapBlock(normalizeStatement(n.Body))
	case *ast.ForStatement:
		n.Body = wrapBlock(normalizeStatement(n.Body))
	case *ast.ForOfStatement:
		n.Body = wrapBlock(normalizeStatement(n.Body))
	case *ast.ForInStatement:
		n.Body = wrapBlock(normalizeStatement(n.Body))
	case *ast.TryStatement:
		n.Block = normalizeStatement(n.Block).(*ast.BlockStatement)
		if n.Handler != nil {
			n.Handler.Body = normalizeStatement(n.Handler.Body).(*ast.BlockStatement)
		}
		if n.Finally != nil {
			n.Finally = normalizeStatement(n.Finally).(*ast.BlockStatement)
		}
	case *ast.LabeledStatement:
		n.Body = normalizeStatement(n.Body)
	case *ast.ComeHereStatement:
		n.Body = normalizeStatement(n.Body).(*ast.BlockStatement)
	case *ast.FunctionDeclaration:
		n.Body = normalizeStatement(n.Body).(*ast.BlockStatement)
	case *ast.ClassDeclaration:
		normalizeClassBody(n.Body)
	case *ast.ExpressionStatement:
		normalizeExpression(n.Expr)
	case *ast.VariableDeclaration:
		for _, d := range n.Declarators {
			if d.Init != nil {
				normalizeExpression(d.Init)
			}
		}
	case *ast.ReturnStatement:
		if n.Argument != nil {
			normalizeExpression(n.Argument)
		}
	case *ast.ThrowStatement:
		normalizeExpression(n.Argument)
	}
	return s
}

func normalizeClassBody(body *ast.ClassBody) {
	for _, m := range body.Members {
		if method, ok := m.(*ast.MethodDefinition); ok {
			method.Fn.Body = normalizeStatement(method.Fn.Body).(*ast.BlockStatement)
		}
	}
}

// normalizeExpression descends into expressions only far enough to find and
// normalize nested function/arrow bodies and class bodies — everything else
// is opaque to the normalizer.
func normalizeExpression(e ast.Expression) {
	switch n := e.(type) {
	case *ast.FunctionExpression:
		n.Body = wrapArrowBody(n)
	case *ast.ClassExpression:
		normalizeClassBody(n.Body)
	case *ast.CallExpression:
		normalizeExpression(n.Callee)
		for _, a := range n.Arguments {
			normalizeExpression(a)
		}
	case *ast.AssignmentExpression:
		normalizeExpression(n.Value)
	case *ast.LogicalExpression:
		normalizeExpression(n.Left)
		normalizeExpression(n.Right)
	case *ast.BinaryExpression:
		normalizeExpression(n.Left)
		normalizeExpression(n.Right)
	case *ast.ConditionalExpression:
		normalizeExpression(n.Consequent)
		normalizeExpression(n.Alternate)
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			normalizeExpression(el)
		}
	case *ast.ObjectLiteral:
		for _, m := range n.Properties {
			switch member := m.(type) {
			case *ast.ObjectProperty:
				normalizeExpression(member.Value)
			case *ast.ObjectMethod:
				member.Fn.Body = wrapArrowBody(member.Fn)
			}
		}
	case *ast.MemberExpression:
		normalizeExpression(n.Object)
	case *ast.UnaryExpression:
		normalizeExpression(n.Argument)
	case *ast.NewExpression:
		normalizeExpression(n.Callee)
		for _, a := range n.Arguments {
			normalizeExpression(a)
		}
	case *ast.SequenceExpression:
		for _, sub := range n.Expressions {
			normalizeExpression(sub)
		}
	case *ast.SpreadElement:
		normalizeExpression(n.Argument)
	}
}

// wrapBlock wraps a bare statement in a block unless it already is one.
// Idempotent: a BlockStatement passed in comes back unchanged.
func wrapBlock(s ast.Statement) ast.Statement {
	if block, ok := s.(*ast.BlockStatement); ok {
		return block
	}
	return ast.NewBlockStatement([]ast.Statement{s})
}

// wrapArrowBody turns an arrow function's expression body into a block
// containing a single return, per §4.1 "Arrow bodies that are expressions
// become a block with a single return." Ordinary function expressions
// already have a block body from the parser and pass through unchanged.
// Idempotent: a function whose ExprBody was already cleared by a prior run
// just has its existing Body normalized again.
func wrapArrowBody(fn *ast.FunctionExpression) *ast.BlockStatement {
	if fn.ExprBody != nil {
		normalizeExpression(fn.ExprBody)
		fn.Body = ast.NewBlockStatement([]ast.Statement{ast.NewReturnStatement(fn.ExprBody)})
		fn.ExprBody = nil
		return fn.Body
	}
	normalizeStatement(fn.Body)
	return fn.Body
}

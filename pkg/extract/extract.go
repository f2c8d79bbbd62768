// Package extract implements the extractor (C6): it walks the tree for
// `COMEHERE: with (...) { body }` statements, assigns each a 1-based goal
// id in source order, parses its initializer list, and replaces it with a
// guarded `if (seek == id) { seek = 0; body }` (SPEC_FULL.md §4.3).
//
// Active-frame conjunction (the `active_N &&` half of the guard) and
// prologue installation are left to the control driver (C7): only the
// driver walks a goal's full ancestor chain to module top, and every
// function on that chain — not just the goal's immediate enclosing one —
// needs its own activation bit. Extraction only needs to exist so the
// driver has a concrete if-statement, and a GoalBlock, to work from.
package extract

import (
	"fmt"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/support"
)

// Initializer is one parsed `path = expression` item from a goal's
// with-object expression list (§4.3 step 2). Consumed is flipped by the
// control driver's argument resolution (§4.4.3) so that extraction can
// report anything left over once driving completes.
type Initializer struct {
	Path     string
	Value    ast.Expression
	Consumed bool
}

// GoalBlock is one extracted COMEHERE site.
type GoalBlock struct {
	ID             int
	Description    string
	HasDescription bool
	Initializers   []*Initializer
	Guard          *ast.IfStatement // the synthesized if (seek == id) { ... }
	Body           *ast.BlockStatement
}

// Extract mutates prog in place, returning the ordered list of goals found.
func Extract(prog *ast.Program, reg *support.Registry, sink diag.Sink) []*GoalBlock {
	var blocks []*GoalBlock
	prog.Body = rewriteList(prog.Body, reg, sink, &blocks)
	return blocks
}

func rewriteList(body []ast.Statement, reg *support.Registry, sink diag.Sink, blocks *[]*GoalBlock) []ast.Statement {
	out := make([]ast.Statement, 0, len(body))
	for _, s := range body {
		out = append(out, rewriteStatement(s, reg, sink, blocks))
	}
	return out
}

// rewriteStatement recurses into every nested statement list, replacing any
// ComeHereStatement it finds along the way with its guard.
func rewriteStatement(s ast.Statement, reg *support.Registry, sink diag.Sink, blocks *[]*GoalBlock) ast.Statement {
	switch n := s.(type) {
	case *ast.ComeHereStatement:
		return extractOne(n, reg, sink, blocks)
	case *ast.BlockStatement:
		n.Body = rewriteList(n.Body, reg, sink, blocks)
	case *ast.IfStatement:
		n.Consequent = rewriteStatement(n.Consequent, reg, sink, blocks)
		if n.Alternate != nil {
			n.Alternate = rewriteStatement(n.Alternate, reg, sink, blocks)
		}
	case *ast.SwitchStatement:
		for _, c := range n.Cases {
			c.Consequent = rewriteList(c.Consequent, reg, sink, blocks)
		}
	case *ast.WhileStatement:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks)
	case *ast.DoWhileStatement:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks)
	case *ast.ForStatement:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks)
	case *ast.ForOfStatement:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks)
	case *ast.ForInStatement:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks)
	case *ast.TryStatement:
		n.Block = rewriteStatement(n.Block, reg, sink, blocks).(*ast.BlockStatement)
		if n.Handler != nil {
			n.Handler.Body = rewriteStatement(n.Handler.Body, reg, sink, blocks).(*ast.BlockStatement)
		}
		if n.Finally != nil {
			n.Finally = rewriteStatement(n.Finally, reg, sink, blocks).(*ast.BlockStatement)
		}
	case *ast.LabeledStatement:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks)
	case *ast.FunctionDeclaration:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks).(*ast.BlockStatement)
	case *ast.ClassDeclaration:
		rewriteClassBody(n.Body, reg, sink, blocks)
	case *ast.ExpressionStatement:
		rewriteExpression(n.Expr, reg, sink, blocks)
	case *ast.VariableDeclaration:
		for _, d := range n.Declarators {
			if d.Init != nil {
				rewriteExpression(d.Init, reg, sink, blocks)
			}
		}
	case *ast.ReturnStatement:
		if n.Argument != nil {
			rewriteExpression(n.Argument, reg, sink, blocks)
		}
	case *ast.ThrowStatement:
		rewriteExpression(n.Argument, reg, sink, blocks)
	}
	return s
}

func rewriteClassBody(body *ast.ClassBody, reg *support.Registry, sink diag.Sink, blocks *[]*GoalBlock) {
	for _, m := range body.Members {
		switch member := m.(type) {
		case *ast.MethodDefinition:
			member.Fn.Body = rewriteStatement(member.Fn.Body, reg, sink, blocks).(*ast.BlockStatement)
		case *ast.PropertyDefinition:
			if member.Value != nil {
				rewriteExpression(member.Value, reg, sink, blocks)
			}
		}
	}
}

// rewriteExpression descends into expressions only far enough to find nested
// FunctionExpression/ClassExpression bodies, mirroring normalize's own
// best-effort expression descent — a COMEHERE block may sit inside a
// function expression, arrow function, or IIFE reached through any of these
// expression positions (an assignment's value, a call's callee or
// arguments, an array/object literal element, etc.).
func rewriteExpression(e ast.Expression, reg *support.Registry, sink diag.Sink, blocks *[]*GoalBlock) {
	switch n := e.(type) {
	case *ast.FunctionExpression:
		n.Body = rewriteStatement(n.Body, reg, sink, blocks).(*ast.BlockStatement)
	case *ast.ClassExpression:
		rewriteClassBody(n.Body, reg, sink, blocks)
	case *ast.CallExpression:
		rewriteExpression(n.Callee, reg, sink, blocks)
		for _, a := range n.Arguments {
			rewriteExpression(a, reg, sink, blocks)
		}
	case *ast.NewExpression:
		rewriteExpression(n.Callee, reg, sink, blocks)
		for _, a := range n.Arguments {
			rewriteExpression(a, reg, sink, blocks)
		}
	case *ast.AssignmentExpression:
		rewriteExpression(n.Value, reg, sink, blocks)
	case *ast.LogicalExpression:
		rewriteExpression(n.Left, reg, sink, blocks)
		rewriteExpression(n.Right, reg, sink, blocks)
	case *ast.BinaryExpression:
		rewriteExpression(n.Left, reg, sink, blocks)
		rewriteExpression(n.Right, reg, sink, blocks)
	case *ast.UnaryExpression:
		rewriteExpression(n.Argument, reg, sink, blocks)
	case *ast.ConditionalExpression:
		rewriteExpression(n.Test, reg, sink, blocks)
		rewriteExpression(n.Consequent, reg, sink, blocks)
		rewriteExpression(n.Alternate, reg, sink, blocks)
	case *ast.SequenceExpression:
		for _, sub := range n.Expressions {
			rewriteExpression(sub, reg, sink, blocks)
		}
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			rewriteExpression(el, reg, sink, blocks)
		}
	case *ast.ObjectLiteral:
		for _, m := range n.Properties {
			switch member := m.(type) {
			case *ast.ObjectProperty:
				rewriteExpression(member.Value, reg, sink, blocks)
			case *ast.ObjectMethod:
				member.Fn.Body = rewriteStatement(member.Fn.Body, reg, sink, blocks).(*ast.BlockStatement)
			}
		}
	case *ast.SpreadElement:
		rewriteExpression(n.Argument, reg, sink, blocks)
	case *ast.MemberExpression:
		rewriteExpression(n.Object, reg, sink, blocks)
	}
}

func extractOne(ch *ast.ComeHereStatement, reg *support.Registry, sink diag.Sink, blocks *[]*GoalBlock) ast.Statement {
	// This goal takes its id and its slot in blocks before its own body is
	// searched, so COMEHERE blocks nested inside it (§8 nesting) receive
	// later ids and follow it in blocks, keeping ids in source order.
	id := len(*blocks) + 1

	block := &GoalBlock{ID: id, Body: ch.Body}
	parseArgs(ch.Args, block, sink)
	*blocks = append(*blocks, block)

	ch.Body.Body = rewriteList(ch.Body.Body, reg, sink, blocks)

	seekName := reg.Seek()
	guardTest := ast.NewBinaryExpression("==", ast.NewIdentifier(seekName), ast.NewNumberLiteral(fmt.Sprintf("%d", id)))
	resetSeek := ast.NewExpressionStatement(ast.NewAssignmentExpression("=", ast.NewIdentifier(seekName), ast.NewNumberLiteral("0")))
	guardBody := ast.NewBlockStatement(append([]ast.Statement{resetSeek}, ch.Body.Body...))
	guard := ast.NewIfStatement(guardTest, guardBody, nil)

	block.Guard = guard
	return guard
}

func parseArgs(args []ast.Expression, block *GoalBlock, sink diag.Sink) {
	if len(args) == 0 {
		return
	}
	rest := args
	if str, ok := args[0].(*ast.StringLiteral); ok {
		block.Description = str.Value
		block.HasDescription = true
		rest = args[1:]
	}
	if len(rest) == 1 {
		if id, ok := rest[0].(*ast.Identifier); ok && id.Name == "_" {
			return
		}
	}
	for _, item := range rest {
		assign, ok := item.(*ast.AssignmentExpression)
		if !ok || assign.Operator != "=" {
			sink.Error("goal %d: malformed initializer %q: expected `path = expression`", block.ID, ast.Expr(item))
			continue
		}
		path, ok := ast.DottedPath(assign.Target)
		if !ok {
			sink.Error("goal %d: malformed initializer: left side %q is not a dotted identifier chain", block.ID, ast.Expr(assign.Target))
			continue
		}
		block.Initializers = append(block.Initializers, &Initializer{Path: path, Value: assign.Value})
	}
}

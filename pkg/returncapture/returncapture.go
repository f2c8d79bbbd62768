// Package returncapture implements the return-trailing capture pass (C5):
// a `return E` immediately followed by one or more COMEHERE blocks is
// lifted into a try/finally so the trailing blocks can observe the
// returned value (SPEC_FULL.md §4.2). Runs after the block-normalizer and
// before extraction, so every arm it touches is already a BlockStatement.
package returncapture

import "github.com/mikesamuel/comehere/pkg/namepool"
import "github.com/mikesamuel/comehere/pkg/ast"

// Apply mutates prog in place, lifting every return-then-COMEHERE run it finds.
func Apply(prog *ast.Program, pool *namepool.Pool) {
	prog.Body = rewriteList(prog.Body, pool)
}

func rewriteList(body []ast.Statement, pool *namepool.Pool) []ast.Statement {
	out := make([]ast.Statement, 0, len(body))
	for i := 0; i < len(body); i++ {
		ret, ok := body[i].(*ast.ReturnStatement)
		if !ok || ret.Argument == nil {
			out = append(out, recurse(body[i], pool))
			continue
		}
		j := i + 1
		var trailing []*ast.ComeHereStatement
		for j < len(body) {
			ch, ok := body[j].(*ast.ComeHereStatement)
			if !ok {
				break
			}
			trailing = append(trailing, ch)
			j++
		}
		if len(trailing) == 0 {
			out = append(out, ret)
			continue
		}

		rName := pool.Fresh("R")
		for _, ch := range trailing {
			replaceFunctionReturnInStatement(ch.Body, rName)
			// The trailing blocks may themselves contain further
			// return-then-COMEHERE runs nested inside their own control
			// flow; recurse into them before moving on.
			ch.Body = recurse(ch.Body, pool).(*ast.BlockStatement)
		}

		declareR := ast.NewVariableDeclaration(ast.DeclLet, ast.NewVariableDeclarator(ast.NewIdentifier(rName), nil))
		capturedReturn := ast.NewReturnStatement(
			ast.NewAssignmentExpression("=", ast.NewIdentifier(rName), ret.Argument),
		)
		finallyBody := make([]ast.Statement, len(trailing))
		for k, ch := range trailing {
			finallyBody[k] = ch
		}
		tryStmt := ast.NewTryStatement(
			ast.NewBlockStatement([]ast.Statement{capturedReturn}),
			nil,
			ast.NewBlockStatement(finallyBody),
		)

		out = append(out, declareR, tryStmt)
		i = j - 1
	}
	return out
}

// recurse descends into a single statement's nested statement lists,
// applying rewriteList wherever a return could be followed by a COMEHERE
// sibling (block bodies, switch-case bodies, and so on).
func recurse(s ast.Statement, pool *namepool.Pool) ast.Statement {
	switch n := s.(type) {
	case *ast.BlockStatement:
		n.Body = rewriteList(n.Body, pool)
	case *ast.IfStatement:
		n.Consequent = recurse(n.Consequent, pool)
		if n.Alternate != nil {
			n.Alternate = recurse(n.Alternate, pool)
		}
	case *ast.SwitchStatement:
		for _, c := range n.Cases {
			c.Consequent = rewriteList(c.Consequent, pool)
		}
	case *ast.WhileStatement:
		n.Body = recurse(n.Body, pool)
	case *ast.DoWhileStatement:
		n.Body = recurse(n.Body, pool)
	case *ast.ForStatement:
		n.Body = recurse(n.Body, pool)
	case *ast.ForOfStatement:
		n.Body = recurse(n.Body, pool)
	case *ast.ForInStatement:
		n.Body = recurse(n.Body, pool)
	case *ast.TryStatement:
		n.Block = recurse(n.Block, pool).(*ast.BlockStatement)
		if n.Handler != nil {
			n.Handler.Body = recurse(n.Handler.Body, pool).(*ast.BlockStatement)
		}
		if n.Finally != nil {
			n.Finally = recurse(n.Finally, pool).(*ast.BlockStatement)
		}
	case *ast.LabeledStatement:
		n.Body = recurse(n.Body, pool)
	case *ast.ComeHereStatement:
		n.Body = recurse(n.Body, pool).(*ast.BlockStatement)
	case *ast.FunctionDeclaration:
		n.Body = recurse(n.Body, pool).(*ast.BlockStatement)
	case *ast.ClassDeclaration:
		recurseClassBody(n.Body, pool)
	}
	return s
}

func recurseClassBody(body *ast.ClassBody, pool *namepool.Pool) {
	for _, m := range body.Members {
		if method, ok := m.(*ast.MethodDefinition); ok {
			method.Fn.Body = recurse(method.Fn.Body, pool).(*ast.BlockStatement)
		}
	}
}

// isMagicReturnRef reports whether e is the surface syntax `Function.return`
// — the spec's spelling for "the value the enclosing return produced"
// (§4.2).
func isMagicReturnRef(e ast.Expression) bool {
	m, ok := e.(*ast.MemberExpression)
	if !ok || m.Computed {
		return false
	}
	obj, ok := m.Object.(*ast.Identifier)
	if !ok || obj.Name != "Function" {
		return false
	}
	prop, ok := m.Property.(*ast.Identifier)
	return ok && prop.Name == "return"
}

func replaceFunctionReturnInStatement(s ast.Statement, rName string) {
	switch n := s.(type) {
	case *ast.BlockStatement:
		for _, c := range n.Body {
			replaceFunctionReturnInStatement(c, rName)
		}
	case *ast.ExpressionStatement:
		n.Expr = replaceFunctionReturnInExpr(n.Expr, rName)
	case *ast.VariableDeclaration:
		for _, d := range n.Declarators {
			if d.Init != nil {
				d.Init = replaceFunctionReturnInExpr(d.Init, rName)
			}
		}
	case *ast.IfStatement:
		n.Test = replaceFunctionReturnInExpr(n.Test, rName)
		replaceFunctionReturnInStatement(n.Consequent, rName)
		if n.Alternate != nil {
			replaceFunctionReturnInStatement(n.Alternate, rName)
		}
	case *ast.ReturnStatement:
		if n.Argument != nil {
			n.Argument = replaceFunctionReturnInExpr(n.Argument, rName)
		}
	case *ast.ThrowStatement:
		n.Argument = replaceFunctionReturnInExpr(n.Argument, rName)
	case *ast.WhileStatement:
		n.Test = replaceFunctionReturnInExpr(n.Test, rName)
		replaceFunctionReturnInStatement(n.Body, rName)
	case *ast.TryStatement:
		replaceFunctionReturnInStatement(n.Block, rName)
		if n.Handler != nil {
			replaceFunctionReturnInStatement(n.Handler.Body, rName)
		}
		if n.Finally != nil {
			replaceFunctionReturnInStatement(n.Finally, rName)
		}
	case *ast.ComeHereStatement:
		replaceFunctionReturnInStatement(n.Body, rName)
	}
}

func replaceFunctionReturnInExpr(e ast.Expression, rName string) ast.Expression {
	if e == nil {
		return nil
	}
	if isMagicReturnRef(e) {
		return ast.NewIdentifier(rName)
	}
	switch n := e.(type) {
	case *ast.CallExpression:
		n.Callee = replaceFunctionReturnInExpr(n.Callee, rName)
		for i, a := range n.Arguments {
			n.Arguments[i] = replaceFunctionReturnInExpr(a, rName)
		}
	case *ast.NewExpression:
		for i, a := range n.Arguments {
			n.Arguments[i] = replaceFunctionReturnInExpr(a, rName)
		}
	case *ast.BinaryExpression:
		n.Left = replaceFunctionReturnInExpr(n.Left, rName)
		n.Right = replaceFunctionReturnInExpr(n.Right, rName)
	case *ast.LogicalExpression:
		n.Left = replaceFunctionReturnInExpr(n.Left, rName)
		n.Right = replaceFunctionReturnInExpr(n.Right, rName)
	case *ast.UnaryExpression:
		n.Argument = replaceFunctionReturnInExpr(n.Argument, rName)
	case *ast.AssignmentExpression:
		n.Value = replaceFunctionReturnInExpr(n.Value, rName)
	case *ast.ConditionalExpression:
		n.Test = replaceFunctionReturnInExpr(n.Test, rName)
		n.Consequent = replaceFunctionReturnInExpr(n.Consequent, rName)
		n.Alternate = replaceFunctionReturnInExpr(n.Alternate, rName)
	case *ast.MemberExpression:
		n.Object = replaceFunctionReturnInExpr(n.Object, rName)
	case *ast.ArrayLiteral:
		for i, el := range n.Elements {
			n.Elements[i] = replaceFunctionReturnInExpr(el, rName)
		}
	case *ast.SequenceExpression:
		for i, sub := range n.Expressions {
			n.Expressions[i] = replaceFunctionReturnInExpr(sub, rName)
		}
	}
	return e
}

package capturevars

import "github.com/mikesamuel/comehere/pkg/ast"

// rewriter performs the second, mutating pass once every capture
// variable's declaration site has been decided: rewrite every non-declaring
// use into name[1], and every bare-identifier assignment target into the
// sequence-wrap form (§4.6 steps 4-5). Names in disqualified are left alone
// entirely (§4.6 step 1).
type rewriter struct {
	disqualified map[string]bool
}

func (r *rewriter) captureOf(e ast.Expression) (*ast.Identifier, bool) {
	id, ok := isCaptureIdent(e)
	if !ok || r.disqualified[id.Name] {
		return nil, false
	}
	return id, true
}

func indexInto(name string, i int) *ast.MemberExpression {
	return ast.NewMemberExpression(ast.NewIdentifier(name), ast.NewNumberLiteral(numStr(i)), true)
}

func numStr(i int) string {
	if i == 0 {
		return "0"
	}
	return "1"
}

func (r *rewriter) rewriteList(body []ast.Statement) []ast.Statement {
	for i, s := range body {
		body[i] = r.stmt(s)
	}
	return body
}

func (r *rewriter) stmt(s ast.Statement) ast.Statement {
	switch n := s.(type) {
	case *ast.BlockStatement:
		n.Body = r.rewriteList(n.Body)
	case *ast.ExpressionStatement:
		n.Expr = r.expr(n.Expr)
	case *ast.VariableDeclaration:
		for _, d := range n.Declarators {
			if d.Init != nil {
				d.Init = r.expr(d.Init)
			}
		}
	case *ast.IfStatement:
		n.Test = r.expr(n.Test)
		n.Consequent = r.stmt(n.Consequent)
		if n.Alternate != nil {
			n.Alternate = r.stmt(n.Alternate)
		}
	case *ast.SwitchStatement:
		n.Discriminant = r.expr(n.Discriminant)
		for _, c := range n.Cases {
			if c.Test != nil {
				c.Test = r.expr(c.Test)
			}
			c.Consequent = r.rewriteList(c.Consequent)
		}
	case *ast.WhileStatement:
		n.Test = r.expr(n.Test)
		n.Body = r.stmt(n.Body)
	case *ast.DoWhileStatement:
		n.Body = r.stmt(n.Body)
		n.Test = r.expr(n.Test)
	case *ast.ForStatement:
		if vd, ok := n.Init.(*ast.VariableDeclaration); ok {
			n.Init = r.stmt(vd)
		} else if e, ok := n.Init.(ast.Expression); ok && e != nil {
			n.Init = r.expr(e)
		}
		if n.Test != nil {
			n.Test = r.expr(n.Test)
		}
		if n.Update != nil {
			n.Update = r.expr(n.Update)
		}
		n.Body = r.stmt(n.Body)
	case *ast.ForOfStatement:
		n.Right = r.expr(n.Right)
		n.Body = r.stmt(n.Body)
	case *ast.ForInStatement:
		n.Right = r.expr(n.Right)
		n.Body = r.stmt(n.Body)
	case *ast.ReturnStatement:
		if n.Argument != nil {
			n.Argument = r.expr(n.Argument)
		}
	case *ast.ThrowStatement:
		n.Argument = r.expr(n.Argument)
	case *ast.TryStatement:
		n.Block = r.stmt(n.Block).(*ast.BlockStatement)
		if n.Handler != nil {
			n.Handler.Body = r.stmt(n.Handler.Body).(*ast.BlockStatement)
		}
		if n.Finally != nil {
			n.Finally = r.stmt(n.Finally).(*ast.BlockStatement)
		}
	case *ast.LabeledStatement:
		n.Body = r.stmt(n.Body)
	case *ast.ComeHereStatement:
		for i, a := range n.Args {
			n.Args[i] = r.expr(a)
		}
		n.Body = r.stmt(n.Body).(*ast.BlockStatement)
	case *ast.FunctionDeclaration:
		n.Body = r.stmt(n.Body).(*ast.BlockStatement)
	case *ast.ClassDeclaration:
		r.classBody(n.Body)
	}
	return s
}

func (r *rewriter) classBody(body *ast.ClassBody) {
	for _, m := range body.Members {
		switch member := m.(type) {
		case *ast.MethodDefinition:
			if member.Computed {
				member.Key = r.expr(member.Key)
			}
			member.Fn.Body = r.stmt(member.Fn.Body).(*ast.BlockStatement)
		case *ast.PropertyDefinition:
			if member.Computed {
				member.Key = r.expr(member.Key)
			}
			if member.Value != nil {
				member.Value = r.expr(member.Value)
			}
		}
	}
}

// assignText builds the text-slot value for the sequence-wrap form: the
// right-hand side's printed surface followed by the assignment operator
// with its characters reversed (§4.6 step 5), so `$$x += 1` yields
// "1 =+" and `$$x = f(y)` yields "f(y) =". name is not part of the text.
func assignText(name, op string, value ast.Expression) string {
	reversed := []rune(op)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return ast.Expr(value) + " " + string(reversed)
}

func (r *rewriter) expr(e ast.Expression) ast.Expression {
	if e == nil {
		return nil
	}
	if id, ok := r.captureOf(e); ok {
		return indexInto(id.Name, 1)
	}
	switch n := e.(type) {
	case *ast.ArrayLiteral:
		for i, el := range n.Elements {
			n.Elements[i] = r.expr(el)
		}
	case *ast.ObjectLiteral:
		for _, m := range n.Properties {
			switch prop := m.(type) {
			case *ast.ObjectProperty:
				if prop.Computed {
					prop.Key = r.expr(prop.Key)
				}
				prop.Value = r.expr(prop.Value)
			case *ast.ObjectMethod:
				if prop.Computed {
					prop.Key = r.expr(prop.Key)
				}
				prop.Fn.Body = r.stmt(prop.Fn.Body).(*ast.BlockStatement)
			}
		}
	case *ast.SpreadElement:
		// Left as the bare reference: spreading `[text, value]` is the
		// point of the spread-context exception (§4.6, final paragraph).
		if _, ok := isCaptureIdent(n.Argument); !ok {
			n.Argument = r.expr(n.Argument)
		}
	case *ast.UnaryExpression:
		n.Argument = r.expr(n.Argument)
	case *ast.BinaryExpression:
		n.Left = r.expr(n.Left)
		n.Right = r.expr(n.Right)
	case *ast.LogicalExpression:
		n.Left = r.expr(n.Left)
		n.Right = r.expr(n.Right)
	case *ast.AssignmentExpression:
		if id, ok := r.captureOf(n.Target); ok {
			value := r.expr(n.Value)
			text := assignText(id.Name, n.Operator, value)
			return ast.NewSequenceExpression([]ast.Expression{
				ast.NewAssignmentExpression("=", indexInto(id.Name, 0), ast.NewStringLiteral(text)),
				ast.NewAssignmentExpression(n.Operator, indexInto(id.Name, 1), value),
			})
		}
		n.Target = r.expr(n.Target)
		n.Value = r.expr(n.Value)
	case *ast.ConditionalExpression:
		n.Test = r.expr(n.Test)
		n.Consequent = r.expr(n.Consequent)
		n.Alternate = r.expr(n.Alternate)
	case *ast.SequenceExpression:
		for i, sub := range n.Expressions {
			n.Expressions[i] = r.expr(sub)
		}
	case *ast.CallExpression:
		n.Callee = r.expr(n.Callee)
		for i, a := range n.Arguments {
			n.Arguments[i] = r.expr(a)
		}
	case *ast.NewExpression:
		n.Callee = r.expr(n.Callee)
		for i, a := range n.Arguments {
			n.Arguments[i] = r.expr(a)
		}
	case *ast.MemberExpression:
		n.Object = r.expr(n.Object)
		if n.Computed {
			n.Property = r.expr(n.Property)
		}
	case *ast.FunctionExpression:
		if n.Body != nil {
			n.Body = r.stmt(n.Body).(*ast.BlockStatement)
		}
		if n.ExprBody != nil {
			n.ExprBody = r.expr(n.ExprBody)
		}
	case *ast.ClassExpression:
		r.classBody(n.Body)
	case *ast.AwaitExpression:
		n.Argument = r.expr(n.Argument)
	case *ast.YieldExpression:
		if n.Argument != nil {
			n.Argument = r.expr(n.Argument)
		}
	}
	return e
}

// Package capturevars implements the capture-variable pass (C8): every
// identifier spelled with the two-sigil prefix `$$` auto-declares itself at
// the deepest function-or-module scope that dominates all of its uses, and
// is rewritten into a two-element array slot so that assignments can record
// both the assigned value and the textual form of the right-hand side
// (SPEC_FULL.md §4.6). Runs independently of, and after, the driver (C7):
// nothing in §4.4's rewrite rules cares about `$$` identifiers, and driving
// may itself introduce new `$$`-free synthesized names that must not be
// confused with user capture variables.
package capturevars

import (
	"strings"

	"github.com/mikesamuel/comehere/pkg/ast"
)

// Prefix is the two-sigil marker a capture variable's name must start with.
const Prefix = "$$"

// Apply mutates prog in place.
func Apply(prog *ast.Program) {
	uses, disqualified := collect(prog)

	for name, occs := range uses {
		if disqualified[name] || len(occs) == 0 {
			continue
		}
		scope := commonScope(occs)
		declareAt(prog, scope, name)
	}

	r := &rewriter{disqualified: disqualified}
	prog.Body = r.rewriteList(prog.Body)
}

// occurrence is one non-declaring appearance of a `$$name` identifier.
type occurrence struct {
	chain []ast.Node // enclosing functions, outermost first; empty means module scope
}

// commonScope returns the innermost function (nil for module scope) that is
// an ancestor of every occurrence — the longest common prefix of their
// function chains.
func commonScope(occs []*occurrence) ast.Node {
	common := occs[0].chain
	for _, occ := range occs[1:] {
		n := 0
		for n < len(common) && n < len(occ.chain) && common[n] == occ.chain[n] {
			n++
		}
		common = common[:n]
	}
	if len(common) == 0 {
		return nil
	}
	return common[len(common)-1]
}

func declareAt(prog *ast.Program, scope ast.Node, name string) {
	decl := ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(
		ast.NewIdentifier(name),
		ast.NewArrayLiteral([]ast.Expression{
			ast.NewStringLiteral(name),
			ast.NewUnaryExpression("void", true, ast.NewNumberLiteral("0")),
		}),
	))
	switch fn := scope.(type) {
	case *ast.FunctionDeclaration:
		ast.PrependStatement(fn.Body, decl)
	case *ast.FunctionExpression:
		ast.PrependStatement(fn.Body, decl)
	default:
		prog.Body = append([]ast.Statement{decl}, prog.Body...)
	}
}

// collect walks the whole program, recording every non-declaring `$$name`
// occurrence (with the function chain it sits in) and flagging any name that
// ever appears in a declaring position — such a name is left untouched
// everywhere, per §4.6 step 1.
func collect(prog *ast.Program) (map[string][]*occurrence, map[string]bool) {
	c := &collector{uses: map[string][]*occurrence{}, disqualified: map[string]bool{}}
	for _, s := range prog.Body {
		c.stmt(s, nil)
	}
	return c.uses, c.disqualified
}

type collector struct {
	uses         map[string][]*occurrence
	disqualified map[string]bool
}

func isCaptureIdent(e ast.Expression) (*ast.Identifier, bool) {
	id, ok := e.(*ast.Identifier)
	if !ok || !strings.HasPrefix(id.Name, Prefix) {
		return nil, false
	}
	return id, true
}

func (c *collector) declaring(e ast.Expression) {
	if id, ok := isCaptureIdent(e); ok {
		c.disqualified[id.Name] = true
	}
}

func (c *collector) use(id *ast.Identifier, chain []ast.Node) {
	c.uses[id.Name] = append(c.uses[id.Name], &occurrence{chain: chain})
}

func pushFunc(chain []ast.Node, fn ast.Node) []ast.Node {
	out := make([]ast.Node, len(chain)+1)
	copy(out, chain)
	out[len(chain)] = fn
	return out
}

func (c *collector) stmt(s ast.Statement, chain []ast.Node) {
	switch n := s.(type) {
	case *ast.BlockStatement:
		for _, stmt := range n.Body {
			c.stmt(stmt, chain)
		}
	case *ast.ExpressionStatement:
		c.expr(n.Expr, chain)
	case *ast.VariableDeclaration:
		for _, d := range n.Declarators {
			c.declaring(d.Target)
			if d.Init != nil {
				c.expr(d.Init, chain)
			}
		}
	case *ast.IfStatement:
		c.expr(n.Test, chain)
		c.stmt(n.Consequent, chain)
		if n.Alternate != nil {
			c.stmt(n.Alternate, chain)
		}
	case *ast.SwitchStatement:
		c.expr(n.Discriminant, chain)
		for _, cs := range n.Cases {
			if cs.Test != nil {
				c.expr(cs.Test, chain)
			}
			for _, stmt := range cs.Consequent {
				c.stmt(stmt, chain)
			}
		}
	case *ast.WhileStatement:
		c.expr(n.Test, chain)
		c.stmt(n.Body, chain)
	case *ast.DoWhileStatement:
		c.stmt(n.Body, chain)
		c.expr(n.Test, chain)
	case *ast.ForStatement:
		if vd, ok := n.Init.(*ast.VariableDeclaration); ok {
			c.stmt(vd, chain)
		} else if e, ok := n.Init.(ast.Expression); ok && e != nil {
			c.expr(e, chain)
		}
		if n.Test != nil {
			c.expr(n.Test, chain)
		}
		if n.Update != nil {
			c.expr(n.Update, chain)
		}
		c.stmt(n.Body, chain)
	case *ast.ForOfStatement:
		if n.DeclKind != "" {
			c.declaring(n.Left)
		} else {
			c.expr(n.Left, chain)
		}
		c.expr(n.Right, chain)
		c.stmt(n.Body, chain)
	case *ast.ForInStatement:
		if n.DeclKind != "" {
			c.declaring(n.Left)
		} else {
			c.expr(n.Left, chain)
		}
		c.expr(n.Right, chain)
		c.stmt(n.Body, chain)
	case *ast.ReturnStatement:
		if n.Argument != nil {
			c.expr(n.Argument, chain)
		}
	case *ast.ThrowStatement:
		c.expr(n.Argument, chain)
	case *ast.TryStatement:
		c.stmt(n.Block, chain)
		if n.Handler != nil {
			if n.Handler.Param != nil {
				c.declaring(n.Handler.Param)
			}
			c.stmt(n.Handler.Body, chain)
		}
		if n.Finally != nil {
			c.stmt(n.Finally, chain)
		}
	case *ast.LabeledStatement:
		c.stmt(n.Body, chain)
	case *ast.ComeHereStatement:
		for _, a := range n.Args {
			c.expr(a, chain)
		}
		c.stmt(n.Body, chain)
	case *ast.FunctionDeclaration:
		if n.Name != nil {
			c.declaring(n.Name)
		}
		for _, p := range n.Params {
			c.declaring(p.Pattern)
			if p.Default != nil {
				c.expr(p.Default, chain)
			}
		}
		inner := pushFunc(chain, n)
		c.stmt(n.Body, inner)
	case *ast.ClassDeclaration:
		if n.Name != nil {
			c.declaring(n.Name)
		}
		if n.SuperClass != nil {
			c.expr(n.SuperClass, chain)
		}
		c.classBody(n.Body, chain)
	}
}

func (c *collector) classBody(body *ast.ClassBody, chain []ast.Node) {
	for _, m := range body.Members {
		switch member := m.(type) {
		case *ast.MethodDefinition:
			if member.Computed {
				c.expr(member.Key, chain)
			} else {
				c.declaring(member.Key)
			}
			for _, p := range member.Fn.Params {
				c.declaring(p.Pattern)
				if p.Default != nil {
					c.expr(p.Default, chain)
				}
			}
			c.stmt(member.Fn.Body, pushFunc(chain, member.Fn))
		case *ast.PropertyDefinition:
			if member.Computed {
				c.expr(member.Key, chain)
			} else {
				c.declaring(member.Key)
			}
			if member.Value != nil {
				c.expr(member.Value, chain)
			}
		}
	}
}

func (c *collector) expr(e ast.Expression, chain []ast.Node) {
	if e == nil {
		return
	}
	if id, ok := isCaptureIdent(e); ok {
		c.use(id, chain)
		return
	}
	switch n := e.(type) {
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			c.expr(el, chain)
		}
	case *ast.ObjectLiteral:
		for _, m := range n.Properties {
			switch prop := m.(type) {
			case *ast.ObjectProperty:
				if prop.Computed {
					c.expr(prop.Key, chain)
				} else {
					c.declaring(prop.Key)
				}
				c.expr(prop.Value, chain)
			case *ast.ObjectMethod:
				if prop.Computed {
					c.expr(prop.Key, chain)
				} else {
					c.declaring(prop.Key)
				}
				for _, p := range prop.Fn.Params {
					c.declaring(p.Pattern)
					if p.Default != nil {
						c.expr(p.Default, chain)
					}
				}
				c.stmt(prop.Fn.Body, pushFunc(chain, prop.Fn))
			}
		}
	case *ast.SpreadElement:
		c.expr(n.Argument, chain)
	case *ast.UnaryExpression:
		c.expr(n.Argument, chain)
	case *ast.BinaryExpression:
		c.expr(n.Left, chain)
		c.expr(n.Right, chain)
	case *ast.LogicalExpression:
		c.expr(n.Left, chain)
		c.expr(n.Right, chain)
	case *ast.AssignmentExpression:
		// A bare `$$x = ...`/`$$x += ...` target is itself a use (the
		// special assignment-wrap form, §4.6 step 5), not a declaration.
		c.expr(n.Target, chain)
		c.expr(n.Value, chain)
	case *ast.ConditionalExpression:
		c.expr(n.Test, chain)
		c.expr(n.Consequent, chain)
		c.expr(n.Alternate, chain)
	case *ast.SequenceExpression:
		for _, sub := range n.Expressions {
			c.expr(sub, chain)
		}
	case *ast.CallExpression:
		c.expr(n.Callee, chain)
		for _, a := range n.Arguments {
			c.expr(a, chain)
		}
	case *ast.NewExpression:
		c.expr(n.Callee, chain)
		for _, a := range n.Arguments {
			c.expr(a, chain)
		}
	case *ast.MemberExpression:
		c.expr(n.Object, chain)
		if n.Computed {
			c.expr(n.Property, chain)
		}
	case *ast.FunctionExpression:
		if n.Name != nil {
			c.declaring(n.Name)
		}
		for _, p := range n.Params {
			c.declaring(p.Pattern)
			if p.Default != nil {
				c.expr(p.Default, chain)
			}
		}
		inner := pushFunc(chain, n)
		if n.Body != nil {
			c.stmt(n.Body, inner)
		}
		if n.ExprBody != nil {
			c.expr(n.ExprBody, inner)
		}
	case *ast.ClassExpression:
		if n.Name != nil {
			c.declaring(n.Name)
		}
		if n.SuperClass != nil {
			c.expr(n.SuperClass, chain)
		}
		c.classBody(n.Body, chain)
	case *ast.AwaitExpression:
		c.expr(n.Argument, chain)
	case *ast.YieldExpression:
		if n.Argument != nil {
			c.expr(n.Argument, chain)
		}
	}
}

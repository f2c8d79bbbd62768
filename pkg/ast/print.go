package ast

import (
	"fmt"
	"strings"
)

// Print renders a Program back to JavaScript source. Structured nodes are
// printed recursively; RawStatement/RawExpression nodes (anything the
// parser didn't need to model, plus every untouched fragment of the
// original input) are emitted verbatim from the text captured at parse
// time — the "thin generator" described in SPEC_FULL.md §1 and DESIGN.md,
// not a full pretty-printer.
func Print(prog *Program) string {
	p := &printer{}
	for _, s := range prog.Body {
		p.stmt(s, 0)
	}
	return p.b.String()
}

type printer struct {
	b strings.Builder
}

func (p *printer) indent(n int) {
	for i := 0; i < n; i++ {
		p.b.WriteString("  ")
	}
}

func (p *printer) line(n int, s string) {
	p.indent(n)
	p.b.WriteString(s)
	p.b.WriteByte('\n')
}

func (p *printer) stmt(s Statement, depth int) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *RawStatement:
		p.indent(depth)
		p.b.WriteString(n.Text)
		p.b.WriteByte('\n')
	case *BlockStatement:
		p.line(depth, "{")
		for _, c := range n.Body {
			p.stmt(c, depth+1)
		}
		p.line(depth, "}")
	case *ExpressionStatement:
		p.line(depth, Expr(n.Expr)+";")
	case *EmptyStatement:
		p.line(depth, ";")
	case *VariableDeclaration:
		p.line(depth, printVarDecl(n)+";")
	case *IfStatement:
		p.indent(depth)
		p.b.WriteString("if (")
		p.b.WriteString(Expr(n.Test))
		p.b.WriteString(") ")
		p.stmtInline(n.Consequent, depth)
		if n.Alternate != nil {
			p.indent(depth)
			p.b.WriteString("else ")
			p.stmtInline(n.Alternate, depth)
		}
	case *SwitchStatement:
		p.line(depth, "switch ("+Expr(n.Discriminant)+") {")
		for _, c := range n.Cases {
			if c.IsDefault() {
				p.line(depth+1, "default:")
			} else {
				p.line(depth+1, "case "+Expr(c.Test)+":")
			}
			for _, stmt := range c.Consequent {
				p.stmt(stmt, depth+2)
			}
		}
		p.line(depth, "}")
	case *WhileStatement:
		p.indent(depth)
		p.b.WriteString("while (" + Expr(n.Test) + ") ")
		p.stmtInline(n.Body, depth)
	case *DoWhileStatement:
		p.indent(depth)
		p.b.WriteString("do ")
		p.stmtInline(n.Body, depth)
		p.b.WriteString(" while (" + Expr(n.Test) + ");\n")
	case *ForStatement:
		init := ""
		if vd, ok := n.Init.(*VariableDeclaration); ok {
			init = printVarDecl(vd)
		} else if e, ok := n.Init.(Expression); ok && e != nil {
			init = Expr(e)
		}
		test, update := "", ""
		if n.Test != nil {
			test = Expr(n.Test)
		}
		if n.Update != nil {
			update = Expr(n.Update)
		}
		p.indent(depth)
		p.b.WriteString(fmt.Sprintf("for (%s; %s; %s) ", init, test, update))
		p.stmtInline(n.Body, depth)
	case *ForOfStatement:
		p.indent(depth)
		left := Expr(n.Left)
		if n.DeclKind != "" {
			left = string(n.DeclKind) + " " + left
		}
		await := ""
		if n.IsAwait {
			await = "await "
		}
		p.b.WriteString(fmt.Sprintf("for %s(%s of %s) ", await, left, Expr(n.Right)))
		p.stmtInline(n.Body, depth)
	case *ForInStatement:
		p.indent(depth)
		left := Expr(n.Left)
		if n.DeclKind != "" {
			left = string(n.DeclKind) + " " + left
		}
		p.b.WriteString(fmt.Sprintf("for (%s in %s) ", left, Expr(n.Right)))
		p.stmtInline(n.Body, depth)
	case *ReturnStatement:
		if n.Argument == nil {
			p.line(depth, "return;")
		} else {
			p.line(depth, "return "+Expr(n.Argument)+";")
		}
	case *BreakStatement:
		if n.Label != nil {
			p.line(depth, "break "+n.Label.Name+";")
		} else {
			p.line(depth, "break;")
		}
	case *ContinueStatement:
		if n.Label != nil {
			p.line(depth, "continue "+n.Label.Name+";")
		} else {
			p.line(depth, "continue;")
		}
	case *ThrowStatement:
		p.line(depth, "throw "+Expr(n.Argument)+";")
	case *TryStatement:
		p.indent(depth)
		p.b.WriteString("try ")
		p.stmtInline(n.Block, depth)
		if n.Handler != nil {
			p.indent(depth)
			if n.Handler.Param != nil {
				p.b.WriteString("catch (" + n.Handler.Param.Name + ") ")
			} else {
				p.b.WriteString("catch ")
			}
			p.stmtInline(n.Handler.Body, depth)
		}
		if n.Finally != nil {
			p.indent(depth)
			p.b.WriteString("finally ")
			p.stmtInline(n.Finally, depth)
		}
		p.b.WriteByte('\n')
	case *LabeledStatement:
		p.indent(depth)
		p.b.WriteString(n.Label.Name + ": ")
		p.stmtInline(n.Body, depth)
	case *ComeHereStatement:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = Expr(a)
		}
		p.indent(depth)
		p.b.WriteString("COMEHERE: with (" + strings.Join(parts, ", ") + ") ")
		p.stmtInline(n.Body, depth)
	case *FunctionDeclaration:
		p.indent(depth)
		if n.Exported {
			p.b.WriteString("export ")
		}
		p.b.WriteString(printFunctionHead("function", n.Name, n.Params, n.IsAsync, n.IsGenerator))
		p.b.WriteString(" ")
		p.stmtInline(n.Body, depth)
	case *ClassDeclaration:
		p.printClass(depth, "class", n.Name, n.SuperClass, n.Body, n.Exported)
	default:
		p.line(depth, fmt.Sprintf("/* unprintable statement %T */", s))
	}
}

// stmtInline prints a statement that must start on the current line (the
// consequent of an if, the body of a loop, ...). A block ends at its
// closing brace with no trailing newline; any other statement ends with a
// newline.
func (p *printer) stmtInline(s Statement, depth int) {
	if block, ok := s.(*BlockStatement); ok {
		p.b.WriteString("{\n")
		for _, c := range block.Body {
			p.stmt(c, depth+1)
		}
		p.indent(depth)
		p.b.WriteString("}")
		return
	}
	p.b.WriteString("\n")
	p.stmt(s, depth+1)
}

func printVarDecl(n *VariableDeclaration) string {
	parts := make([]string, len(n.Declarators))
	for i, d := range n.Declarators {
		if d.Init != nil {
			parts[i] = Expr(d.Target) + " = " + Expr(d.Init)
		} else {
			parts[i] = Expr(d.Target)
		}
	}
	return string(n.DeclKind) + " " + strings.Join(parts, ", ")
}

func printFunctionHead(keyword string, name *Identifier, params []*Parameter, isAsync, isGenerator bool) string {
	var b strings.Builder
	if isAsync {
		b.WriteString("async ")
	}
	b.WriteString(keyword)
	if isGenerator {
		b.WriteString("*")
	}
	if name != nil {
		b.WriteString(" " + name.Name)
	}
	b.WriteString("(" + printParams(params) + ")")
	return b.String()
}

func printParams(params []*Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		s := Expr(p.Pattern)
		if p.Rest {
			s = "..." + s
		}
		if p.Default != nil {
			s += " = " + Expr(p.Default)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func (p *printer) printClass(depth int, keyword string, name *Identifier, super Expression, body *ClassBody, exported bool) {
	p.indent(depth)
	if exported {
		p.b.WriteString("export ")
	}
	p.b.WriteString(keyword)
	if name != nil {
		p.b.WriteString(" " + name.Name)
	}
	if super != nil {
		p.b.WriteString(" extends " + Expr(super))
	}
	p.b.WriteString(" {\n")
	for _, m := range body.Members {
		p.classMember(m, depth+1)
	}
	p.indent(depth)
	p.b.WriteString("}\n")
}

func (p *printer) classMember(m ClassMember, depth int) {
	switch n := m.(type) {
	case *MethodDefinition:
		p.indent(depth)
		if n.Static {
			p.b.WriteString("static ")
		}
		if n.Fn.IsAsync {
			p.b.WriteString("async ")
		}
		if n.Fn.IsGenerator {
			p.b.WriteString("*")
		}
		switch n.MethodKind {
		case MethodGetter:
			p.b.WriteString("get ")
		case MethodSetter:
			p.b.WriteString("set ")
		}
		p.b.WriteString(memberKeyText(n.Key, n.Computed, n.Private))
		p.b.WriteString("(" + printParams(n.Fn.Params) + ") ")
		p.stmtInline(n.Fn.Body, depth)
		p.b.WriteString("\n")
	case *PropertyDefinition:
		p.indent(depth)
		if n.Static {
			p.b.WriteString("static ")
		}
		p.b.WriteString(memberKeyText(n.Key, n.Computed, false))
		if n.Value != nil {
			p.b.WriteString(" = " + Expr(n.Value))
		}
		p.b.WriteString(";\n")
	}
}

func memberKeyText(key Expression, computed, private bool) string {
	if computed {
		return "[" + Expr(key) + "]"
	}
	name := Expr(key)
	if private {
		return "#" + name
	}
	return name
}

// Expr renders a single expression; exported so other passes (diagnostics
// pretty-printing unconsumed initializers, §7) can reuse it without
// round-tripping through a whole Program.
func Expr(e Expression) string {
	if e == nil {
		return ""
	}
	switch n := e.(type) {
	case *RawExpression:
		return n.Text
	case *Identifier:
		return n.Name
	case *StringLiteral:
		return n.Raw
	case *NumberLiteral:
		return n.Raw
	case *BooleanLiteral:
		if n.Value {
			return "true"
		}
		return "false"
	case *NullLiteral:
		return "null"
	case *ThisExpression:
		return "this"
	case *ArrayLiteral:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = Expr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ObjectLiteral:
		parts := make([]string, len(n.Properties))
		for i, prop := range n.Properties {
			parts[i] = exprObjectMember(prop)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *SpreadElement:
		return "..." + Expr(n.Argument)
	case *UnaryExpression:
		if n.Prefix {
			return n.Operator + unarySpace(n.Operator) + maybeParen(n.Argument)
		}
		return maybeParen(n.Argument) + n.Operator
	case *BinaryExpression:
		return maybeParen(n.Left) + " " + n.Operator + " " + maybeParen(n.Right)
	case *LogicalExpression:
		return maybeParen(n.Left) + " " + n.Operator + " " + maybeParen(n.Right)
	case *AssignmentExpression:
		return Expr(n.Target) + " " + n.Operator + " " + Expr(n.Value)
	case *ConditionalExpression:
		return maybeParen(n.Test) + " ? " + Expr(n.Consequent) + " : " + Expr(n.Alternate)
	case *SequenceExpression:
		parts := make([]string, len(n.Expressions))
		for i, sub := range n.Expressions {
			parts[i] = Expr(sub)
		}
		return strings.Join(parts, ", ")
	case *CallExpression:
		args := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = Expr(a)
		}
		op := "("
		if n.Optional {
			op = "?.("
		}
		return maybeParen(n.Callee) + op + strings.Join(args, ", ") + ")"
	case *NewExpression:
		args := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = Expr(a)
		}
		return "new " + maybeParen(n.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *MemberExpression:
		op := "."
		if n.Optional {
			op = "?."
		}
		if n.Computed {
			return maybeParen(n.Object) + "[" + Expr(n.Property) + "]"
		}
		return maybeParen(n.Object) + op + Expr(n.Property)
	case *FunctionExpression:
		if n.IsArrow {
			return printArrow(n)
		}
		var b strings.Builder
		b.WriteString(printFunctionHead("function", n.Name, n.Params, n.IsAsync, n.IsGenerator))
		b.WriteString(" ")
		pr := &printer{}
		pr.stmtInline(n.Body, 0)
		b.WriteString(pr.b.String())
		return b.String()
	case *ClassExpression:
		pr := &printer{}
		pr.printClass(0, "class", n.Name, n.SuperClass, n.Body, false)
		return strings.TrimSuffix(pr.b.String(), "\n")
	case *AwaitExpression:
		return "await " + maybeParen(n.Argument)
	case *YieldExpression:
		star := ""
		if n.Delegate {
			star = "*"
		}
		if n.Argument == nil {
			return "yield" + star
		}
		return "yield" + star + " " + Expr(n.Argument)
	default:
		return fmt.Sprintf("/* unprintable expression %T */", e)
	}
}

func printArrow(n *FunctionExpression) string {
	var b strings.Builder
	if n.IsAsync {
		b.WriteString("async ")
	}
	b.WriteString("(" + printParams(n.Params) + ") => ")
	pr := &printer{}
	pr.stmtInline(n.Body, 0)
	b.WriteString(pr.b.String())
	return b.String()
}

func exprObjectMember(m ObjectMember) string {
	switch n := m.(type) {
	case *ObjectProperty:
		key := memberKeyText(n.Key, n.Computed, false)
		if n.Shorthand {
			return key
		}
		return key + ": " + Expr(n.Value)
	case *ObjectMethod:
		key := memberKeyText(n.Key, n.Computed, false)
		return key + "(" + printParams(n.Fn.Params) + ") " + strings.TrimSuffix((&printer{}).inlineString(n.Fn.Body), "\n")
	}
	return ""
}

func (p *printer) inlineString(s Statement) string {
	p.stmtInline(s, 0)
	return p.b.String()
}

func unarySpace(op string) string {
	if len(op) > 0 && (op[0] >= 'a' && op[0] <= 'z') {
		return " "
	}
	return ""
}

// maybeParen wraps operator-precedence-sensitive expressions in
// parentheses. Conservative: always parenthesizes binary/logical/
// conditional/assignment/sequence expressions nested inside another
// expression, trading a few redundant parens for never emitting an
// operator-precedence bug.
func maybeParen(e Expression) string {
	switch e.(type) {
	case *BinaryExpression, *LogicalExpression, *ConditionalExpression,
		*AssignmentExpression, *SequenceExpression, *FunctionExpression,
		*ClassExpression, *YieldExpression, *AwaitExpression:
		return "(" + Expr(e) + ")"
	default:
		return Expr(e)
	}
}

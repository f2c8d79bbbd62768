package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mikesamuel/comehere/pkg/ast"
)

// parseStatement converts one CST statement node. Anything it does not
// recognize falls back to a verbatim RawStatement (see parser.go's package
// doc for why that's the right failure mode here).
func (ctx *parseContext) parseStatement(node *sitter.Node) ast.Statement {
	if node == nil {
		return ast.NewEmptyStatement()
	}
	switch node.Kind() {
	case "expression_statement":
		return ctx.parseExpressionStatement(node)
	case "lexical_declaration", "variable_declaration":
		return ctx.parseVariableDeclaration(node)
	case "if_statement":
		return ctx.parseIfStatement(node)
	case "for_statement":
		return ctx.parseForStatement(node)
	case "for_in_statement":
		return ctx.parseForInOrOfStatement(node)
	case "while_statement":
		return ctx.parseWhileStatement(node)
	case "do_statement":
		return ctx.parseDoWhileStatement(node)
	case "try_statement":
		return ctx.parseTryStatement(node)
	case "throw_statement":
		return ast.NewThrowStatement(ctx.parseExpression(ctx.soleNamedChild(node)))
	case "return_statement":
		return ast.NewReturnStatement(ctx.optionalExpression(node))
	case "break_statement":
		return ast.NewBreakStatement(ctx.optionalLabel(node))
	case "continue_statement":
		return ast.NewContinueStatement(ctx.optionalLabel(node))
	case "labeled_statement":
		return ctx.parseLabeledStatement(node)
	case "switch_statement":
		return ctx.parseSwitchStatement(node)
	case "function_declaration", "generator_function_declaration":
		return ctx.parseFunctionDeclaration(node)
	case "class_declaration":
		return ctx.parseClassDeclaration(node)
	case "statement_block":
		return ctx.parseBlockStatement(node)
	case "empty_statement":
		return ast.NewEmptyStatement()
	default:
		return ctx.rawStatement(node)
	}
}

func (ctx *parseContext) parseBlockStatement(node *sitter.Node) *ast.BlockStatement {
	if node == nil {
		return ast.NewBlockStatement(nil)
	}
	children := ctx.namedChildren(node)
	body := make([]ast.Statement, 0, len(children))
	for _, c := range children {
		body = append(body, ctx.parseStatement(c))
	}
	return ast.NewBlockStatement(body)
}

// asBlock wraps a single non-block statement body (e.g. `if (x) y();`) in a
// BlockStatement so every downstream pass can assume control-flow arms are
// blocks (the normalizer's own contract, carried forward here so normalize
// has nothing left to do for bodies the parser already produced as blocks).
func (ctx *parseContext) asBlock(node *sitter.Node) *ast.BlockStatement {
	if node == nil {
		return nil
	}
	if node.Kind() == "statement_block" {
		return ctx.parseBlockStatement(node)
	}
	return ast.NewBlockStatement([]ast.Statement{ctx.parseStatement(node)})
}

func (ctx *parseContext) parseExpressionStatement(node *sitter.Node) ast.Statement {
	child := ctx.soleNamedChild(node)
	if child == nil {
		return ast.NewEmptyStatement()
	}
	return ast.NewExpressionStatement(ctx.parseExpression(child))
}

func (ctx *parseContext) soleNamedChild(node *sitter.Node) *sitter.Node {
	children := ctx.namedChildren(node)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func (ctx *parseContext) optionalExpression(node *sitter.Node) ast.Expression {
	child := ctx.soleNamedChild(node)
	if child == nil {
		return nil
	}
	return ctx.parseExpression(child)
}

func (ctx *parseContext) optionalLabel(node *sitter.Node) *ast.Identifier {
	child := node.ChildByFieldName("label")
	if child == nil {
		return nil
	}
	return ctx.identifier(child)
}

func (ctx *parseContext) declKindOf(node *sitter.Node) ast.DeclKind {
	switch {
	case ctx.hasChildOfKind(node, "const"):
		return ast.DeclConst
	case ctx.hasChildOfKind(node, "let"):
		return ast.DeclLet
	default:
		return ast.DeclVar
	}
}

func (ctx *parseContext) parseVariableDeclaration(node *sitter.Node) ast.Statement {
	kind := ctx.declKindOf(node)
	var decls []*ast.VariableDeclarator
	for _, c := range ctx.namedChildren(node) {
		if c.Kind() != "variable_declarator" {
			continue
		}
		nameNode := c.ChildByFieldName("name")
		valueNode := c.ChildByFieldName("value")
		var target ast.Expression
		if nameNode != nil && nameNode.Kind() == "identifier" {
			target = ctx.identifier(nameNode)
		} else {
			target = ctx.rawExpression(nameNode)
		}
		var init ast.Expression
		if valueNode != nil {
			init = ctx.parseExpression(valueNode)
		}
		decls = append(decls, ast.NewVariableDeclarator(target, init))
	}
	return ast.NewVariableDeclaration(kind, decls...)
}

func (ctx *parseContext) parseIfStatement(node *sitter.Node) ast.Statement {
	test := ctx.parseExpression(node.ChildByFieldName("condition"))
	cons := ctx.asBlock(node.ChildByFieldName("consequence"))
	altField := node.ChildByFieldName("alternative")
	var alt ast.Statement
	if altField != nil {
		// tree-sitter-javascript wraps the else arm in an `else_clause` node
		// whose sole named child is either a statement or a nested
		// if_statement (`else if`); unwrap it before converting.
		inner := altField
		if inner.Kind() == "else_clause" {
			inner = ctx.soleNamedChild(inner)
		}
		if inner != nil {
			if inner.Kind() == "if_statement" {
				alt = ctx.parseIfStatement(inner)
			} else {
				alt = ctx.asBlock(inner)
			}
		}
	}
	return ast.NewIfStatement(test, cons, alt)
}

func (ctx *parseContext) parseWhileStatement(node *sitter.Node) ast.Statement {
	test := ctx.parseExpression(node.ChildByFieldName("condition"))
	body := ctx.asBlock(node.ChildByFieldName("body"))
	return ast.NewWhileStatement(test, body)
}

func (ctx *parseContext) parseDoWhileStatement(node *sitter.Node) ast.Statement {
	body := ctx.asBlock(node.ChildByFieldName("body"))
	test := ctx.parseExpression(node.ChildByFieldName("condition"))
	return ast.NewDoWhileStatement(body, test)
}

func (ctx *parseContext) parseForStatement(node *sitter.Node) ast.Statement {
	var init ast.Node
	if initNode := node.ChildByFieldName("initializer"); initNode != nil {
		switch initNode.Kind() {
		case "lexical_declaration", "variable_declaration":
			init = ctx.parseVariableDeclaration(initNode)
		default:
			init = ctx.parseExpression(initNode)
		}
	}
	var test ast.Expression
	if t := node.ChildByFieldName("condition"); t != nil {
		test = ctx.parseExpression(t)
	}
	var update ast.Expression
	if u := node.ChildByFieldName("increment"); u != nil {
		update = ctx.parseExpression(u)
	}
	body := ctx.asBlock(node.ChildByFieldName("body"))
	return ast.NewForStatement(init, test, update, body)
}

// parseForInOrOfStatement handles tree-sitter-javascript's single
// "for_in_statement" production, which covers both `for (x in y)` and
// `for (x of y)` — disambiguated by the literal `in`/`of` child token.
func (ctx *parseContext) parseForInOrOfStatement(node *sitter.Node) ast.Statement {
	leftNode := node.ChildByFieldName("left")
	rightNode := node.ChildByFieldName("right")
	body := ctx.asBlock(node.ChildByFieldName("body"))

	declKind := ast.DeclKind("")
	var left ast.Expression
	switch {
	case leftNode == nil:
		left = ast.NewRawExpression("")
	case leftNode.Kind() == "identifier":
		left = ctx.identifier(leftNode)
	default:
		declKind = ctx.declKindOf(node)
		left = ctx.leftPatternOf(leftNode)
	}
	var right ast.Expression
	if rightNode != nil {
		right = ctx.parseExpression(rightNode)
	}

	if ctx.hasChildOfKind(node, "of") {
		return ast.NewForOfStatement(declKind, left, right, body)
	}
	return ast.NewForInStatement(declKind, left, right, body)
}

// leftPatternOf extracts the bound name out of a for-in/of left-hand side
// that the grammar wraps in its own declaration-like node (e.g.
// `variable_declarator`'s lone `name` field with no initializer).
func (ctx *parseContext) leftPatternOf(node *sitter.Node) ast.Expression {
	if node.Kind() == "identifier" {
		return ctx.identifier(node)
	}
	if name := node.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
		return ctx.identifier(name)
	}
	return ctx.rawExpression(node)
}

func (ctx *parseContext) parseTryStatement(node *sitter.Node) ast.Statement {
	var block *ast.BlockStatement
	var handler *ast.CatchClause
	var finally *ast.BlockStatement
	for _, c := range ctx.namedChildren(node) {
		switch c.Kind() {
		case "statement_block":
			block = ctx.parseBlockStatement(c)
		case "catch_clause":
			handler = ctx.parseCatchClause(c)
		case "finally_clause":
			finally = ctx.parseBlockStatement(ctx.soleNamedChild(c))
		}
	}
	return ast.NewTryStatement(block, handler, finally)
}

func (ctx *parseContext) parseCatchClause(node *sitter.Node) *ast.CatchClause {
	var param *ast.Identifier
	if p := node.ChildByFieldName("parameter"); p != nil && p.Kind() == "identifier" {
		param = ctx.identifier(p)
	}
	body := ctx.parseBlockStatement(node.ChildByFieldName("body"))
	return ast.NewCatchClause(param, body)
}

// parseLabeledStatement recognizes the COMEHERE surface syntax directly
// (§4.3 step 1): a label literally named "COMEHERE" wrapping a native
// `with_statement` becomes a ComeHereStatement instead of a generic
// LabeledStatement, so every later pass only ever has to match one node
// kind for a goal.
func (ctx *parseContext) parseLabeledStatement(node *sitter.Node) ast.Statement {
	labelNode := node.ChildByFieldName("label")
	bodyNode := node.ChildByFieldName("body")
	label := ctx.identifier(labelNode)
	if label.Name == "COMEHERE" && bodyNode != nil && bodyNode.Kind() == "with_statement" {
		return ctx.parseComeHere(bodyNode)
	}
	return ast.NewLabeledStatement(label, ctx.parseStatement(bodyNode))
}

func (ctx *parseContext) parseComeHere(node *sitter.Node) ast.Statement {
	objectNode := node.ChildByFieldName("object")
	bodyNode := node.ChildByFieldName("body")
	var args []ast.Expression
	if objectNode != nil {
		inner := objectNode
		// The with-statement's parenthesized object is itself wrapped in a
		// parenthesized_expression; unwrap it before checking for a
		// sequence_expression so a multi-argument goal (`with (a, b, c)`)
		// splits into individual Args.
		if inner.Kind() == "parenthesized_expression" {
			if c := ctx.soleNamedChild(inner); c != nil {
				inner = c
			}
		}
		if inner.Kind() == "sequence_expression" {
			args = ctx.flattenSequence(inner)
		} else {
			args = []ast.Expression{ctx.parseExpression(inner)}
		}
	}
	return ast.NewComeHereStatement(args, ctx.asBlock(bodyNode))
}

// flattenSequence splits a left-associative chain of comma expressions into
// its individual operands, since tree-sitter-javascript nests them as
// sequence_expression{left, right} rather than a flat list.
func (ctx *parseContext) flattenSequence(node *sitter.Node) []ast.Expression {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	var out []ast.Expression
	if left != nil && left.Kind() == "sequence_expression" {
		out = append(out, ctx.flattenSequence(left)...)
	} else if left != nil {
		out = append(out, ctx.parseExpression(left))
	}
	if right != nil {
		out = append(out, ctx.parseExpression(right))
	}
	return out
}

func (ctx *parseContext) parseSwitchStatement(node *sitter.Node) ast.Statement {
	discriminant := ctx.parseExpression(node.ChildByFieldName("value"))
	bodyNode := node.ChildByFieldName("body")
	var cases []*ast.SwitchCase
	for _, c := range ctx.namedChildren(bodyNode) {
		if c.Kind() != "switch_case" && c.Kind() != "switch_default" {
			continue
		}
		valueNode := c.ChildByFieldName("value")
		var test ast.Expression
		var testEnd uint
		if valueNode != nil {
			test = ctx.parseExpression(valueNode)
			testEnd = valueNode.EndByte()
		}
		var body []ast.Statement
		for _, cc := range ctx.namedChildren(c) {
			if valueNode != nil && cc.StartByte() < testEnd {
				continue
			}
			body = append(body, ctx.parseStatement(cc))
		}
		cases = append(cases, ast.NewSwitchCase(test, body))
	}
	return ast.NewSwitchStatement(discriminant, cases)
}

func (ctx *parseContext) parseFunctionDeclaration(node *sitter.Node) ast.Statement {
	name := ctx.identifier(node.ChildByFieldName("name"))
	params := ctx.parseParams(node.ChildByFieldName("parameters"))
	body := ctx.parseBlockStatement(node.ChildByFieldName("body"))
	fn := ast.NewFunctionDeclaration(name, params, body)
	fn.IsAsync = ctx.hasChildOfKind(node, "async")
	fn.IsGenerator = node.Kind() == "generator_function_declaration"
	return fn
}

func (ctx *parseContext) parseParams(node *sitter.Node) []*ast.Parameter {
	if node == nil {
		return nil
	}
	var params []*ast.Parameter
	for _, c := range ctx.namedChildren(node) {
		params = append(params, ctx.parseOneParam(c))
	}
	return params
}

func (ctx *parseContext) parseOneParam(node *sitter.Node) *ast.Parameter {
	switch node.Kind() {
	case "identifier":
		return ast.NewParameter(ctx.identifier(node), nil, false)
	case "rest_pattern":
		inner := ctx.soleNamedChild(node)
		var pattern ast.Expression
		if inner != nil && inner.Kind() == "identifier" {
			pattern = ctx.identifier(inner)
		} else {
			pattern = ctx.rawExpression(inner)
		}
		return ast.NewParameter(pattern, nil, true)
	case "assignment_pattern":
		leftNode := node.ChildByFieldName("left")
		rightNode := node.ChildByFieldName("right")
		var pattern ast.Expression
		if leftNode != nil && leftNode.Kind() == "identifier" {
			pattern = ctx.identifier(leftNode)
		} else {
			pattern = ctx.rawExpression(leftNode)
		}
		var def ast.Expression
		if rightNode != nil {
			def = ctx.parseExpression(rightNode)
		}
		return ast.NewParameter(pattern, def, false)
	default:
		// object_pattern / array_pattern destructuring: kept opaque per
		// Parameter's own documented contract (functions.go).
		return ast.NewParameter(ctx.rawExpression(node), nil, false)
	}
}

func (ctx *parseContext) parseClassDeclaration(node *sitter.Node) ast.Statement {
	name := ctx.identifier(node.ChildByFieldName("name"))
	var super ast.Expression
	if h := node.ChildByFieldName("heritage"); h != nil {
		if c := ctx.soleNamedChild(h); c != nil {
			super = ctx.parseExpression(c)
		}
	}
	body := ctx.parseClassBody(node.ChildByFieldName("body"))
	return ast.NewClassDeclaration(name, super, body)
}

func (ctx *parseContext) parseClassBody(node *sitter.Node) *ast.ClassBody {
	if node == nil {
		return ast.NewClassBody(nil)
	}
	var members []ast.ClassMember
	for _, c := range ctx.namedChildren(node) {
		switch c.Kind() {
		case "method_definition":
			members = append(members, ctx.parseMethodDefinition(c))
		case "field_definition", "public_field_definition":
			members = append(members, ctx.parsePropertyDefinition(c))
		}
	}
	return ast.NewClassBody(members)
}

func (ctx *parseContext) parseMethodDefinition(node *sitter.Node) *ast.MethodDefinition {
	keyNode := node.ChildByFieldName("name")
	computed := keyNode != nil && keyNode.Kind() != "property_identifier" && keyNode.Kind() != "identifier" && keyNode.Kind() != "private_property_identifier"
	private := keyNode != nil && keyNode.Kind() == "private_property_identifier"
	var key ast.Expression
	if computed {
		if inner := ctx.soleNamedChild(keyNode); inner != nil {
			key = ctx.parseExpression(inner)
		} else {
			key = ctx.rawExpression(keyNode)
		}
	} else {
		key = ctx.identifier(keyNode)
	}

	kind := ast.MethodPlain
	switch {
	case ctx.hasChildOfKind(node, "get"):
		kind = ast.MethodGetter
	case ctx.hasChildOfKind(node, "set"):
		kind = ast.MethodSetter
	}
	if id, ok := key.(*ast.Identifier); ok && id.Name == "constructor" {
		kind = ast.MethodConstructor
	}

	params := ctx.parseParams(node.ChildByFieldName("parameters"))
	body := ctx.parseBlockStatement(node.ChildByFieldName("body"))
	fn := ast.NewFunctionExpression(nil, params, body)
	fn.IsAsync = ctx.hasChildOfKind(node, "async")
	fn.IsGenerator = ctx.hasChildOfKind(node, "*")

	m := ast.NewMethodDefinition(key, kind, fn)
	m.Computed = computed
	m.Private = private
	m.Static = ctx.hasChildOfKind(node, "static")
	return m
}

func (ctx *parseContext) parsePropertyDefinition(node *sitter.Node) *ast.PropertyDefinition {
	keyNode := node.ChildByFieldName("property")
	if keyNode == nil {
		keyNode = node.ChildByFieldName("name")
	}
	computed := keyNode != nil && keyNode.Kind() != "property_identifier" && keyNode.Kind() != "identifier" && keyNode.Kind() != "private_property_identifier"
	var key ast.Expression
	if computed {
		if inner := ctx.soleNamedChild(keyNode); inner != nil {
			key = ctx.parseExpression(inner)
		} else {
			key = ctx.rawExpression(keyNode)
		}
	} else if keyNode != nil {
		key = ctx.identifier(keyNode)
	}
	var value ast.Expression
	if v := node.ChildByFieldName("value"); v != nil {
		value = ctx.parseExpression(v)
	}
	prop := ast.NewPropertyDefinition(key, value)
	prop.Computed = computed
	prop.Static = ctx.hasChildOfKind(node, "static")
	return prop
}

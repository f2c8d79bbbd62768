package parser

import (
	"strconv"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mikesamuel/comehere/pkg/ast"
)

// parseExpression converts one CST expression node, falling back to a
// verbatim RawExpression for anything this parser does not structurally
// model (template literals, regex literals, tagged templates, and so on —
// none of which the transformer ever needs to rewrite through).
func (ctx *parseContext) parseExpression(node *sitter.Node) ast.Expression {
	if node == nil {
		return ast.NewRawExpression("")
	}
	switch node.Kind() {
	case "identifier", "property_identifier", "shorthand_property_identifier", "private_property_identifier":
		return ctx.identifier(node)
	case "string", "string_fragment":
		return ctx.parseStringLiteral(node)
	case "number":
		return ast.NewNumberLiteral(ctx.text(node))
	case "true":
		return ast.NewBooleanLiteral(true)
	case "false":
		return ast.NewBooleanLiteral(false)
	case "null", "undefined":
		return ast.NewNullLiteral()
	case "this":
		return ast.NewThisExpression()
	case "array":
		return ctx.parseArrayLiteral(node)
	case "object":
		return ctx.parseObjectLiteral(node)
	case "spread_element":
		return ast.NewSpreadElement(ctx.parseExpression(ctx.soleNamedChild(node)))
	case "unary_expression":
		return ctx.parseUnaryExpression(node)
	case "update_expression":
		return ctx.parseUpdateExpression(node)
	case "binary_expression":
		return ctx.parseBinaryExpression(node)
	case "assignment_expression", "augmented_assignment_expression":
		return ctx.parseAssignmentExpression(node)
	case "ternary_expression":
		return ast.NewConditionalExpression(
			ctx.parseExpression(node.ChildByFieldName("condition")),
			ctx.parseExpression(node.ChildByFieldName("consequence")),
			ctx.parseExpression(node.ChildByFieldName("alternative")),
		)
	case "sequence_expression":
		return ast.NewSequenceExpression(ctx.flattenSequence(node))
	case "call_expression":
		return ctx.parseCallExpression(node)
	case "new_expression":
		return ctx.parseNewExpression(node)
	case "member_expression":
		return ctx.parseMemberExpression(node)
	case "subscript_expression":
		return ctx.parseSubscriptExpression(node)
	case "function_expression", "function", "generator_function":
		return ctx.parseFunctionExpression(node)
	case "arrow_function":
		return ctx.parseArrowFunction(node)
	case "class", "class_expression":
		return ctx.parseClassExpression(node)
	case "await_expression":
		return ast.NewAwaitExpression(ctx.parseExpression(ctx.soleNamedChild(node)))
	case "yield_expression":
		return ctx.parseYieldExpression(node)
	case "parenthesized_expression":
		if c := ctx.soleNamedChild(node); c != nil {
			return ctx.parseExpression(c)
		}
		return ast.NewRawExpression(ctx.text(node))
	default:
		return ctx.rawExpression(node)
	}
}

func (ctx *parseContext) parseStringLiteral(node *sitter.Node) ast.Expression {
	raw := ctx.text(node)
	value := raw
	if len(raw) >= 2 {
		value = raw[1 : len(raw)-1]
	}
	if unquoted, err := strconv.Unquote(`"` + value + `"`); err == nil {
		value = unquoted
	}
	return ast.NewStringLiteral(value)
}

func (ctx *parseContext) parseArrayLiteral(node *sitter.Node) ast.Expression {
	var elements []ast.Expression
	for _, c := range ctx.namedChildren(node) {
		elements = append(elements, ctx.parseExpression(c))
	}
	return ast.NewArrayLiteral(elements)
}

func (ctx *parseContext) parseObjectLiteral(node *sitter.Node) ast.Expression {
	// pkg/ast's ObjectMember family only models named/computed properties
	// and methods (§3); an object literal spread (`{...x}`) has no
	// rewritable shape any pass needs to reach into, so fall back to a
	// verbatim RawExpression for the whole literal rather than lossily
	// dropping the spread.
	for _, c := range ctx.namedChildren(node) {
		if c.Kind() == "spread_element" {
			return ctx.rawExpression(node)
		}
	}
	var props []ast.ObjectMember
	for _, c := range ctx.namedChildren(node) {
		switch c.Kind() {
		case "pair":
			key, computed := ctx.memberKey(c.ChildByFieldName("key"))
			value := ctx.parseExpression(c.ChildByFieldName("value"))
			props = append(props, ast.NewObjectProperty(key, value, computed))
		case "shorthand_property_identifier":
			id := ctx.identifier(c)
			prop := ast.NewObjectProperty(id, id, false)
			prop.Shorthand = true
			props = append(props, prop)
		case "method_definition":
			key, computed := ctx.memberKey(c.ChildByFieldName("name"))
			params := ctx.parseParams(c.ChildByFieldName("parameters"))
			body := ctx.parseBlockStatement(c.ChildByFieldName("body"))
			fn := ast.NewFunctionExpression(nil, params, body)
			fn.IsAsync = ctx.hasChildOfKind(c, "async")
			fn.IsGenerator = ctx.hasChildOfKind(c, "*")
			props = append(props, ast.NewObjectMethod(key, computed, fn))
		}
	}
	return ast.NewObjectLiteral(props)
}

// memberKey converts a property/method key field, reporting whether it is a
// computed (`[expr]`) key.
func (ctx *parseContext) memberKey(node *sitter.Node) (ast.Expression, bool) {
	if node == nil {
		return ast.NewRawExpression(""), false
	}
	switch node.Kind() {
	case "property_identifier", "identifier", "private_property_identifier":
		return ctx.identifier(node), false
	case "string":
		return ctx.parseStringLiteral(node), false
	case "number":
		return ast.NewNumberLiteral(ctx.text(node)), false
	case "computed_property_name":
		if inner := ctx.soleNamedChild(node); inner != nil {
			return ctx.parseExpression(inner), true
		}
		return ctx.rawExpression(node), true
	default:
		return ctx.parseExpression(node), false
	}
}

func (ctx *parseContext) parseUnaryExpression(node *sitter.Node) ast.Expression {
	op := ctx.text(node.ChildByFieldName("operator"))
	arg := ctx.parseExpression(node.ChildByFieldName("argument"))
	return ast.NewUnaryExpression(op, true, arg)
}

func (ctx *parseContext) parseUpdateExpression(node *sitter.Node) ast.Expression {
	argNode := node.ChildByFieldName("argument")
	arg := ctx.parseExpression(argNode)
	op := "++"
	if ctx.hasChildOfKind(node, "--") {
		op = "--"
	}
	// Postfix (`x++`) has the operand starting at the expression's own
	// start byte; prefix (`++x`) has the operator token first.
	prefix := true
	if argNode != nil && argNode.StartByte() == node.StartByte() {
		prefix = false
	}
	return ast.NewUnaryExpression(op, prefix, arg)
}

func (ctx *parseContext) parseBinaryExpression(node *sitter.Node) ast.Expression {
	op := ctx.text(node.ChildByFieldName("operator"))
	left := ctx.parseExpression(node.ChildByFieldName("left"))
	right := ctx.parseExpression(node.ChildByFieldName("right"))
	switch op {
	case "&&", "||", "??":
		return ast.NewLogicalExpression(op, left, right)
	default:
		return ast.NewBinaryExpression(op, left, right)
	}
}

func (ctx *parseContext) parseAssignmentExpression(node *sitter.Node) ast.Expression {
	op := ctx.text(node.ChildByFieldName("operator"))
	if op == "" {
		op = "="
	}
	targetNode := node.ChildByFieldName("left")
	var target ast.Expression
	if targetNode != nil && targetNode.Kind() == "identifier" {
		target = ctx.identifier(targetNode)
	} else {
		target = ctx.parseExpression(targetNode)
	}
	value := ctx.parseExpression(node.ChildByFieldName("right"))
	return ast.NewAssignmentExpression(op, target, value)
}

func (ctx *parseContext) parseCallExpression(node *sitter.Node) ast.Expression {
	callee := ctx.parseExpression(node.ChildByFieldName("function"))
	args := ctx.parseArguments(node.ChildByFieldName("arguments"))
	call := ast.NewCallExpression(callee, args)
	call.Optional = ctx.hasChildOfKind(node, "?.")
	return call
}

func (ctx *parseContext) parseArguments(node *sitter.Node) []ast.Expression {
	if node == nil {
		return nil
	}
	var args []ast.Expression
	for _, c := range ctx.namedChildren(node) {
		args = append(args, ctx.parseExpression(c))
	}
	return args
}

func (ctx *parseContext) parseNewExpression(node *sitter.Node) ast.Expression {
	callee := ctx.parseExpression(node.ChildByFieldName("constructor"))
	args := ctx.parseArguments(node.ChildByFieldName("arguments"))
	return ast.NewNewExpression(callee, args)
}

func (ctx *parseContext) parseMemberExpression(node *sitter.Node) ast.Expression {
	object := ctx.parseExpression(node.ChildByFieldName("object"))
	propNode := node.ChildByFieldName("property")
	var property ast.Expression
	if propNode != nil {
		property = ctx.identifier(propNode)
	}
	m := ast.NewMemberExpression(object, property, false)
	m.Optional = ctx.hasChildOfKind(node, "?.")
	return m
}

func (ctx *parseContext) parseSubscriptExpression(node *sitter.Node) ast.Expression {
	object := ctx.parseExpression(node.ChildByFieldName("object"))
	index := ctx.parseExpression(node.ChildByFieldName("index"))
	m := ast.NewMemberExpression(object, index, true)
	m.Optional = ctx.hasChildOfKind(node, "?.")
	return m
}

func (ctx *parseContext) parseFunctionExpression(node *sitter.Node) ast.Expression {
	var name *ast.Identifier
	if n := node.ChildByFieldName("name"); n != nil {
		name = ctx.identifier(n)
	}
	params := ctx.parseParams(node.ChildByFieldName("parameters"))
	body := ctx.parseBlockStatement(node.ChildByFieldName("body"))
	fn := ast.NewFunctionExpression(name, params, body)
	fn.IsAsync = ctx.hasChildOfKind(node, "async")
	fn.IsGenerator = node.Kind() == "generator_function"
	return fn
}

func (ctx *parseContext) parseArrowFunction(node *sitter.Node) ast.Expression {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		// The bare single-identifier shorthand (`x => x`) exposes the
		// parameter through a singular "parameter" field instead.
		paramsNode = node.ChildByFieldName("parameter")
	}
	params := ctx.arrowParams(paramsNode)
	bodyNode := node.ChildByFieldName("body")
	var fn *ast.FunctionExpression
	if bodyNode != nil && bodyNode.Kind() == "statement_block" {
		fn = ast.NewArrowFunction(params, ctx.parseBlockStatement(bodyNode))
	} else {
		fn = ast.NewArrowFunctionWithExprBody(params, ctx.parseExpression(bodyNode))
	}
	fn.IsAsync = ctx.hasChildOfKind(node, "async")
	return fn
}

// arrowParams handles the single-bare-identifier shorthand (`x => x`),
// whose parameter node (from the `parameter` field, see parseArrowFunction)
// is a plain identifier instead of a formal_parameters list.
func (ctx *parseContext) arrowParams(node *sitter.Node) []*ast.Parameter {
	if node == nil {
		return nil
	}
	if node.Kind() == "identifier" {
		return []*ast.Parameter{ast.NewParameter(ctx.identifier(node), nil, false)}
	}
	return ctx.parseParams(node)
}

func (ctx *parseContext) parseClassExpression(node *sitter.Node) ast.Expression {
	var name *ast.Identifier
	if n := node.ChildByFieldName("name"); n != nil {
		name = ctx.identifier(n)
	}
	var super ast.Expression
	if h := node.ChildByFieldName("heritage"); h != nil {
		if c := ctx.soleNamedChild(h); c != nil {
			super = ctx.parseExpression(c)
		}
	}
	body := ctx.parseClassBody(node.ChildByFieldName("body"))
	return ast.NewClassExpression(name, super, body)
}

func (ctx *parseContext) parseYieldExpression(node *sitter.Node) ast.Expression {
	delegate := ctx.hasChildOfKind(node, "*")
	arg := ctx.soleNamedChild(node)
	if arg == nil {
		return ast.NewYieldExpression(nil, delegate)
	}
	return ast.NewYieldExpression(ctx.parseExpression(arg), delegate)
}

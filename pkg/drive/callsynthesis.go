package drive

import (
	"fmt"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/extract"
	"github.com/mikesamuel/comehere/pkg/support"
)

// activeBit is the bookkeeping Drive keeps per function it has crossed: the
// synthesized boolean's name, and the bit index it reads from activeMask
// (§4.4.1). One entry per function, shared across every goal whose ancestor
// chain passes through it — the prologue is installed only once.
type activeBit struct {
	name string
	num  int
}

// boundaryFunctionNode reports the function-shaped node a path step crosses
// into, for both plain functions (RelFunctionBody) and class methods
// (RelClassMember) — the two shapes §4.4.3 distinguishes as invocation
// forms. Object-literal methods are not reachable here: FindPath does not
// descend into ObjectLiteral properties (see DESIGN.md).
func boundaryFunctionNode(prog *ast.Program, st ast.Step) (ast.Node, bool) {
	switch st.Relation {
	case ast.RelFunctionBody:
		switch st.Parent.(type) {
		case *ast.FunctionDeclaration, *ast.FunctionExpression:
			return st.Parent, true
		}
	case ast.RelClassMember:
		body, ok := st.Parent.(*ast.ClassBody)
		if !ok || st.Index >= len(body.Members) {
			return nil, false
		}
		if method, ok := body.Members[st.Index].(*ast.MethodDefinition); ok {
			return method.Fn, true
		}
	}
	return nil, false
}

func funcBodyOf(n ast.Node) *ast.BlockStatement {
	switch v := n.(type) {
	case *ast.FunctionDeclaration:
		return v.Body
	case *ast.FunctionExpression:
		return v.Body
	}
	return nil
}

// activeBitFor lazily allocates (name, bit index) for fn and installs the
// active-frame prologue (§4.4.1) into its body the first time it is seen.
// Later calls for the same fn return the cached bit without reinstalling.
func activeBitFor(fn ast.Node, reg *support.Registry, bits map[ast.Node]activeBit) (string, int) {
	if b, ok := bits[fn]; ok {
		return b.name, b.num
	}
	num := reg.FreshBit()
	name := reg.Fresh("active")
	bits[fn] = activeBit{name: name, num: num}
	if body := funcBodyOf(fn); body != nil {
		installPrologue(body, name, num, reg)
	}
	return name, num
}

func bigIntCall(n int) *ast.CallExpression {
	return ast.NewCallExpression(ast.NewIdentifier("BigInt"), []ast.Expression{ast.NewNumberLiteral(fmt.Sprintf("%d", n))})
}

func installPrologue(body *ast.BlockStatement, activeName string, bitNum int, reg *support.Registry) {
	maskName := reg.ActiveMask()
	declStmt := ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(ast.NewIdentifier(activeName),
		ast.NewBinaryExpression("&", ast.NewBinaryExpression(">>", ast.NewIdentifier(maskName), bigIntCall(bitNum)), ast.NewNumberLiteral("1n"))))
	resetStmt := ast.NewExpressionStatement(ast.NewAssignmentExpression("&=", ast.NewIdentifier(maskName),
		ast.NewUnaryExpression("~", true, ast.NewBinaryExpression("<<", ast.NewNumberLiteral("1n"), bigIntCall(bitNum)))))
	ast.PrependStatement(body, resetStmt)
	ast.PrependStatement(body, declStmt)
}

func setActiveBitStmt(reg *support.Registry, bitNum int) ast.Statement {
	return ast.NewExpressionStatement(ast.NewAssignmentExpression("|=", ast.NewIdentifier(reg.ActiveMask()),
		ast.NewBinaryExpression("<<", ast.NewNumberLiteral("1n"), bigIntCall(bitNum))))
}

func resetSeekFinally(reg *support.Registry) *ast.BlockStatement {
	return ast.NewBlockStatement([]ast.Statement{
		ast.NewExpressionStatement(ast.NewAssignmentExpression("=", ast.NewIdentifier(reg.Seek()), ast.NewNumberLiteral("0"))),
	})
}

// synthesizeCall dispatches to the right invocation form (§4.4.3) for the
// function boundary at steps[idx].
func synthesizeCall(prog *ast.Program, steps []ast.Step, idx int, block *extract.GoalBlock, reg *support.Registry, sink diag.Sink, outerActive string, bits map[ast.Node]activeBit) error {
	st := steps[idx]
	fn, ok := boundaryFunctionNode(prog, st)
	if !ok {
		return fmt.Errorf("goal %d: function boundary step had no resolvable function node", block.ID)
	}
	_, bitNum := activeBitFor(fn, reg, bits)

	switch st.Relation {
	case ast.RelFunctionBody:
		switch concrete := st.Parent.(type) {
		case *ast.FunctionDeclaration:
			return synthesizeDeclarationCall(steps, idx, concrete, bitNum, block, reg, sink, outerActive)
		case *ast.FunctionExpression:
			return synthesizeExpressionCall(steps, idx, concrete, bitNum, block, reg, sink, outerActive)
		}
	case ast.RelClassMember:
		body := st.Parent.(*ast.ClassBody)
		method := body.Members[st.Index].(*ast.MethodDefinition)
		return synthesizeMethodCall(prog, steps, idx, body, method, bitNum, block, reg, sink, outerActive)
	}
	return fmt.Errorf("goal %d: unrecognized function boundary relation", block.ID)
}

func resolveArgs(params []*ast.Parameter, block *extract.GoalBlock, reg *support.Registry, sink diag.Sink, classQualifier, funcQualifier string) ([]*ast.VariableDeclarator, []ast.Expression) {
	var declarators []*ast.VariableDeclarator
	var argRefs []ast.Expression
	for i, p := range params {
		name, named := p.Name()
		if !named {
			name = fmt.Sprintf("p%d", i)
		}
		var qualified []string
		if classQualifier != "" {
			qualified = append(qualified, classQualifier+"."+name)
		}
		if funcQualifier != "" {
			qualified = append(qualified, funcQualifier+"."+name)
		}
		qualified = append(qualified, name)

		var valueExpr ast.Expression
		if init := findInitializer(block, qualified); init != nil {
			init.Consumed = true
			valueExpr = init.Value
		} else if p.Default != nil {
			valueExpr = p.Default
		} else {
			sink.Warn("goal %d: missing argument for parameter %q (position %d, expected one of %v)", block.ID, name, i, qualified)
			valueExpr = ast.NewUnaryExpression("void", true, ast.NewNumberLiteral("0"))
		}
		localName := reg.Fresh("a")
		declarators = append(declarators, ast.NewVariableDeclarator(ast.NewIdentifier(localName), valueExpr))
		argRefs = append(argRefs, ast.NewIdentifier(localName))
	}
	return declarators, argRefs
}

func synthesizeDeclarationCall(steps []ast.Step, idx int, decl *ast.FunctionDeclaration, bitNum int, block *extract.GoalBlock, reg *support.Registry, sink diag.Sink, outerActive string) error {
	if idx == 0 {
		return fmt.Errorf("goal %d: function declaration has no containing statement slot", block.ID)
	}
	funcName := ""
	if decl.Name != nil {
		funcName = decl.Name.Name
	}
	declarators, argRefs := resolveArgs(decl.Params, block, reg, sink, "", funcName)
	calleeLocal := reg.Fresh("c")
	declarators = append([]*ast.VariableDeclarator{ast.NewVariableDeclarator(ast.NewIdentifier(calleeLocal), ast.NewIdentifier(funcName))}, declarators...)

	var invoke ast.Expression = ast.NewCallExpression(ast.NewIdentifier(calleeLocal), argRefs)
	if decl.IsGenerator {
		invoke = ast.NewCallExpression(ast.NewMemberExpression(invoke, ast.NewIdentifier("next"), false), nil)
	}

	body := []ast.Statement{
		ast.NewVariableDeclaration(ast.DeclConst, declarators...),
		setActiveBitStmt(reg, bitNum),
		ast.NewExpressionStatement(invoke),
	}
	tryStmt := ast.NewTryStatement(ast.NewBlockStatement(body), nil, resetSeekFinally(reg))
	guard := ast.NewIfStatement(goalGuard(reg.Seek(), block.ID, outerActive), ast.NewBlockStatement([]ast.Statement{tryStmt}), nil)
	return ast.InsertStatementAfter(steps[idx-1], guard)
}

func synthesizeExpressionCall(steps []ast.Step, idx int, fn *ast.FunctionExpression, bitNum int, block *extract.GoalBlock, reg *support.Registry, sink diag.Sink, outerActive string) error {
	if idx == 0 {
		return fmt.Errorf("goal %d: function expression has no containing expression slot", block.ID)
	}
	funcName := ""
	if fn.Name != nil {
		funcName = fn.Name.Name
	}
	declarators, argRefs := resolveArgs(fn.Params, block, reg, sink, "", funcName)
	calleeParam := reg.Fresh("fn")

	var invoke ast.Expression = ast.NewCallExpression(ast.NewIdentifier(calleeParam), argRefs)
	if fn.IsGenerator {
		invoke = ast.NewCallExpression(ast.NewMemberExpression(invoke, ast.NewIdentifier("next"), false), nil)
	}

	var body []ast.Statement
	if len(declarators) > 0 {
		body = append(body, ast.NewVariableDeclaration(ast.DeclConst, declarators...))
	}
	body = append(body, setActiveBitStmt(reg, bitNum), ast.NewExpressionStatement(invoke))
	tryStmt := ast.NewTryStatement(ast.NewBlockStatement(body), nil, resetSeekFinally(reg))
	guard := ast.NewIfStatement(goalGuard(reg.Seek(), block.ID, outerActive), ast.NewBlockStatement([]ast.Statement{tryStmt}), nil)

	iifeBody := ast.NewBlockStatement([]ast.Statement{guard, ast.NewReturnStatement(ast.NewIdentifier(calleeParam))})
	iife := ast.NewCallExpression(
		ast.NewArrowFunction([]*ast.Parameter{ast.NewParameter(ast.NewIdentifier(calleeParam), nil, false)}, iifeBody),
		[]ast.Expression{fn},
	)
	return ast.ReplaceExpression(steps[idx-1], iife)
}

func findClassOwning(prog *ast.Program, body *ast.ClassBody) ast.Node {
	var found ast.Node
	ast.Walk(prog, func(n ast.Node) {
		if found != nil {
			return
		}
		switch c := n.(type) {
		case *ast.ClassDeclaration:
			if c.Body == body {
				found = c
			}
		case *ast.ClassExpression:
			if c.Body == body {
				found = c
			}
		}
	})
	return found
}

func resolveReceiver(block *extract.GoalBlock, classQualifier, methodQualifier, classRefName string) ast.Expression {
	for _, qn := range []string{classQualifier + ".this", methodQualifier + ".this", "this"} {
		if init := findInitializer(block, []string{qn}); init != nil {
			init.Consumed = true
			return init.Value
		}
	}
	// No explicit receiver supplied: construct a fresh instance. A full
	// recursive resolution of the constructor's own parameters (§4.4.3) is
	// not implemented; this uses a zero-argument construction instead (see
	// DESIGN.md).
	return ast.NewNewExpression(ast.NewIdentifier(classRefName), nil)
}

func synthesizeMethodCall(prog *ast.Program, steps []ast.Step, idx int, classBody *ast.ClassBody, method *ast.MethodDefinition, bitNum int, block *extract.GoalBlock, reg *support.Registry, sink diag.Sink, outerActive string) error {
	if idx == 0 {
		return fmt.Errorf("goal %d: class method has no containing statement slot", block.ID)
	}
	classNode := findClassOwning(prog, classBody)
	if classNode == nil {
		return fmt.Errorf("goal %d: could not find the class declaring this method", block.ID)
	}

	methodName, named := method.KeyName()
	if !named {
		// Complex/private key workaround (§4.4.3): rename to a fresh stable
		// accessor key and leave a delegator behind under the original key.
		stable := reg.Fresh("member")
		delegator := ast.NewMethodDefinition(method.Key, method.MethodKind, ast.NewFunctionExpression(nil, clonedDelegatorParams(method.Fn.Params), delegatorBody(stable, method.Fn.Params)))
		delegator.Computed = method.Computed
		delegator.Private = method.Private
		delegator.Static = method.Static
		method.Key = ast.NewIdentifier(stable)
		method.Computed = false
		method.Private = false
		for i, m := range classBody.Members {
			if md, ok := m.(*ast.MethodDefinition); ok && md == method {
				classBody.Members[i] = delegator
				classBody.Members = append(classBody.Members, method)
				break
			}
		}
		methodName = stable
	}

	var className string
	var isExpr bool
	switch c := classNode.(type) {
	case *ast.ClassDeclaration:
		if c.Name != nil {
			className = c.Name.Name
		}
	case *ast.ClassExpression:
		isExpr = true
		if c.Name != nil {
			className = c.Name.Name
		}
	}

	classRefName := className
	if isExpr {
		classRefName = reg.Fresh("cls")
	}

	qualifiedMethod := className + "." + methodName
	declarators, argRefs := resolveArgs(method.Fn.Params, block, reg, sink, qualifiedMethod, methodName)

	var invoke ast.Expression
	if method.MethodKind == ast.MethodConstructor {
		invoke = ast.NewNewExpression(ast.NewIdentifier(classRefName), argRefs)
	} else {
		receiver := resolveReceiver(block, className, qualifiedMethod, classRefName)
		receiverLocal := reg.Fresh("recv")
		declarators = append([]*ast.VariableDeclarator{ast.NewVariableDeclarator(ast.NewIdentifier(receiverLocal), receiver)}, declarators...)
		switch method.MethodKind {
		case ast.MethodGetter:
			invoke = ast.NewMemberExpression(ast.NewIdentifier(receiverLocal), ast.NewIdentifier(methodName), false)
		case ast.MethodSetter:
			var v ast.Expression = ast.NewUnaryExpression("void", true, ast.NewNumberLiteral("0"))
			if len(argRefs) > 0 {
				v = argRefs[0]
			}
			invoke = ast.NewAssignmentExpression("=", ast.NewMemberExpression(ast.NewIdentifier(receiverLocal), ast.NewIdentifier(methodName), false), v)
		default:
			invoke = ast.NewCallExpression(ast.NewMemberExpression(ast.NewIdentifier(receiverLocal), ast.NewIdentifier(methodName), false), argRefs)
		}
	}
	if method.Fn.IsGenerator {
		invoke = ast.NewCallExpression(ast.NewMemberExpression(invoke, ast.NewIdentifier("next"), false), nil)
	}

	var body []ast.Statement
	if len(declarators) > 0 {
		body = append(body, ast.NewVariableDeclaration(ast.DeclConst, declarators...))
	}
	body = append(body, setActiveBitStmt(reg, bitNum), ast.NewExpressionStatement(invoke))
	tryStmt := ast.NewTryStatement(ast.NewBlockStatement(body), nil, resetSeekFinally(reg))
	guard := ast.NewIfStatement(goalGuard(reg.Seek(), block.ID, outerActive), ast.NewBlockStatement([]ast.Statement{tryStmt}), nil)

	if !isExpr {
		return ast.InsertStatementAfter(steps[idx-1], guard)
	}
	iifeBody := ast.NewBlockStatement([]ast.Statement{guard, ast.NewReturnStatement(ast.NewIdentifier(classRefName))})
	iife := ast.NewCallExpression(
		ast.NewArrowFunction([]*ast.Parameter{ast.NewParameter(ast.NewIdentifier(classRefName), nil, false)}, iifeBody),
		[]ast.Expression{classNode.(ast.Expression)},
	)
	return ast.ReplaceExpression(steps[idx-1], iife)
}

func clonedDelegatorParams(params []*ast.Parameter) []*ast.Parameter {
	out := make([]*ast.Parameter, len(params))
	for i, p := range params {
		out[i] = ast.NewParameter(p.Pattern, p.Default, p.Rest)
	}
	return out
}

func delegatorBody(stableKey string, params []*ast.Parameter) *ast.BlockStatement {
	args := make([]ast.Expression, 0, len(params))
	for _, p := range params {
		if name, ok := p.Name(); ok {
			args = append(args, ast.NewIdentifier(name))
		}
	}
	call := ast.NewCallExpression(ast.NewMemberExpression(ast.NewThisExpression(), ast.NewIdentifier(stableKey), false), args)
	return ast.NewBlockStatement([]ast.Statement{ast.NewReturnStatement(call)})
}

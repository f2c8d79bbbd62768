// Package preamble implements C9: emitting the fixed-order support-helper
// declarations a driven module actually referenced (SPEC_FULL.md §4.5).
// Nothing here allocates names — every name was already fixed by whichever
// C4/C7/C8 call first asked the registry for it; this package only decides,
// per helper, whether to emit it (via the registry's `*Requested` flags)
// and builds its declaration.
package preamble

import (
	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/support"
)

// Emit prepends, in the fixed order required by §4.5, the declaration for
// every support helper the module ended up using.
func Emit(prog *ast.Program, reg *support.Registry, moduleID string) {
	var decls []ast.Statement

	if reg.SeekRequested() {
		decls = append(decls, seekDeclaration(reg.Seek(), moduleID))
	}
	if reg.ActiveMaskRequested() {
		decls = append(decls, activeMaskDeclaration(reg.ActiveMask()))
	}
	if reg.ValueIteratorRequested() {
		decls = append(decls, valueIteratorFn(reg.ValueIterator()))
	}
	if reg.KeyIteratorRequested() {
		decls = append(decls, keyIteratorFn(reg.KeyIterator()))
	}
	if reg.OrHelperRequested() {
		decls = append(decls, shortCircuitHelperFn(reg.OrHelper(), "||"))
	}
	if reg.AndHelperRequested() {
		decls = append(decls, shortCircuitHelperFn(reg.AndHelper(), "&&"))
	}

	if len(decls) == 0 {
		return
	}
	prog.Body = append(decls, prog.Body...)
}

// seekDeclaration builds:
//
//	let seek = globalThis.debugHooks?.getWhichSeeking(<moduleID>) || 0;
func seekDeclaration(name, moduleID string) ast.Statement {
	debugHooks := ast.NewMemberExpression(ast.NewIdentifier("globalThis"), ast.NewIdentifier("debugHooks"), false)
	getWhichSeeking := ast.NewMemberExpression(debugHooks, ast.NewIdentifier("getWhichSeeking"), false)
	getWhichSeeking.Optional = true
	call := ast.NewCallExpression(getWhichSeeking, []ast.Expression{ast.NewStringLiteral(moduleID)})
	init := ast.NewLogicalExpression("||", call, ast.NewNumberLiteral("0"))
	return ast.NewVariableDeclaration(ast.DeclLet, ast.NewVariableDeclarator(ast.NewIdentifier(name), init))
}

// activeMaskDeclaration builds `let activeMask = 0n;` — a BigInt so the
// bit count can exceed a machine word (§4.4.1).
func activeMaskDeclaration(name string) ast.Statement {
	return ast.NewVariableDeclaration(ast.DeclLet, ast.NewVariableDeclarator(ast.NewIdentifier(name), ast.NewNumberLiteral("0n")))
}

// valueIteratorFn builds:
//
//	function* name(items, seek) {
//	  for (const x of items) { yield x; seek = false }
//	  if (seek) yield {};
//	}
func valueIteratorFn(name string) ast.Statement {
	return notEmptyIteratorFn(name, false, ast.NewObjectLiteral(nil))
}

// keyIteratorFn is the analogous key-iteration wrapper (§4.5), yielding an
// empty string placeholder instead of an empty object; the driver converts
// key-iteration to value-iteration once the wrap is in place, since this
// helper already yields keys as values (§4.4.2).
func keyIteratorFn(name string) ast.Statement {
	return notEmptyIteratorFn(name, true, ast.NewStringLiteral(""))
}

func notEmptyIteratorFn(name string, byKey bool, placeholder ast.Expression) ast.Statement {
	items := ast.NewIdentifier("items")
	seek := ast.NewIdentifier("seek")
	x := ast.NewIdentifier("x")

	loopBody := ast.NewBlockStatement([]ast.Statement{
		ast.NewExpressionStatement(ast.NewYieldExpression(x, false)),
		ast.NewExpressionStatement(ast.NewAssignmentExpression("=", ast.NewIdentifier("seek"), ast.NewBooleanLiteral(false))),
	})

	var loop ast.Statement
	if byKey {
		loop = ast.NewForInStatement(ast.DeclConst, x, items, loopBody)
	} else {
		loop = ast.NewForOfStatement(ast.DeclConst, x, items, loopBody)
	}

	flush := ast.NewIfStatement(seek, ast.NewExpressionStatement(ast.NewYieldExpression(placeholder, false)), nil)

	fn := ast.NewFunctionDeclaration(ast.NewIdentifier(name), []*ast.Parameter{
		ast.NewParameter(items, nil, false),
		ast.NewParameter(seek, nil, false),
	}, ast.NewBlockStatement([]ast.Statement{loop, flush}))
	fn.IsGenerator = true
	return fn
}

// shortCircuitHelperFn builds the `or`/`and` helper (§4.5):
//
//	function name(x, y, seek) {
//	  if (seek) { const r = y(); return x <op> r; }
//	  else return x <op> y();
//	}
func shortCircuitHelperFn(name, op string) ast.Statement {
	x := ast.NewIdentifier("x")
	y := ast.NewIdentifier("y")
	seek := ast.NewIdentifier("seek")
	r := ast.NewIdentifier("r")

	forced := ast.NewBlockStatement([]ast.Statement{
		ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(r, ast.NewCallExpression(y, nil))),
		ast.NewReturnStatement(ast.NewLogicalExpression(op, x, r)),
	})
	lazy := ast.NewBlockStatement([]ast.Statement{
		ast.NewReturnStatement(ast.NewLogicalExpression(op, x, ast.NewCallExpression(y, nil))),
	})

	body := ast.NewBlockStatement([]ast.Statement{
		ast.NewIfStatement(seek, forced, lazy),
	})

	return ast.NewFunctionDeclaration(ast.NewIdentifier(name), []*ast.Parameter{
		ast.NewParameter(x, nil, false),
		ast.NewParameter(y, nil, false),
		ast.NewParameter(seek, nil, false),
	}, body)
}

// Package drive implements the control driver (C7): for each extracted
// goal, walk from the goal's guard out to module top, mutating every
// enclosing construct so that when `seek == id` control reaches the goal
// (SPEC_FULL.md §4.4). This is the largest single pass — it owns the
// per-construct rewrite rules (§4.4.2), the active-frame prologue
// (§4.4.1), and call synthesis at function boundaries (§4.4.3).
package drive

import (
	"fmt"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/diag"
	"github.com/mikesamuel/comehere/pkg/extract"
	"github.com/mikesamuel/comehere/pkg/support"
)

// Drive mutates prog in place, driving every goal toward its guard. It
// returns a non-nil error for the "unsupported enclosing context" fatal
// case (§4.7) and when a rewrite cannot be spliced into the tree (for
// example a function expression in an expression slot ReplaceExpression
// does not cover); everything else is reported through sink and driving
// continues.
func Drive(prog *ast.Program, blocks []*extract.GoalBlock, reg *support.Registry, sink diag.Sink) error {
	bits := map[ast.Node]activeBit{}
	for _, block := range blocks {
		if err := driveOne(prog, block, reg, sink, bits); err != nil {
			return err
		}
	}
	reportUnconsumed(blocks, sink)
	return nil
}

func reportUnconsumed(blocks []*extract.GoalBlock, sink diag.Sink) {
	for _, block := range blocks {
		for _, init := range block.Initializers {
			if !init.Consumed {
				sink.Error("goal %d: unconsumed initializer %s = %s", block.ID, init.Path, ast.Expr(init.Value))
			}
		}
	}
}

func driveOne(prog *ast.Program, block *extract.GoalBlock, reg *support.Registry, sink diag.Sink, bits map[ast.Node]activeBit) error {
	path, ok := ast.FindPath(prog, block.Guard)
	if !ok {
		sink.Error("goal %d: could not locate its guard in the tree (likely an object-literal method body, not yet supported)", block.ID)
		return nil
	}
	steps := path.Steps

	var funcIdx []int
	for i, st := range steps {
		if _, ok := boundaryFunctionNode(prog, st); ok {
			funcIdx = append(funcIdx, i)
		}
	}
	fp := len(funcIdx) - 1
	currentActive := ""
	if fp >= 0 {
		fn, _ := boundaryFunctionNode(prog, steps[funcIdx[fp]])
		currentActive, _ = activeBitFor(fn, reg, bits)
	}

	seekName := reg.Seek()
	if currentActive != "" {
		block.Guard.Test = goalGuard(seekName, block.ID, currentActive)
	}

	for i := len(steps) - 1; i >= 0; i-- {
		st := steps[i]

		if fp >= 0 && funcIdx[fp] == i {
			fp--
			outer := ""
			if fp >= 0 {
				fn, _ := boundaryFunctionNode(prog, steps[funcIdx[fp]])
				outer, _ = activeBitFor(fn, reg, bits)
			}
			if err := synthesizeCall(prog, steps, i, block, reg, sink, outer, bits); err != nil {
				return err
			}
			currentActive = outer
			continue
		}

		switch st.Relation {
		case ast.RelIfConsequent:
			ifs := st.Parent.(*ast.IfStatement)
			ifs.Test = ast.NewLogicalExpression("||", ifs.Test, goalGuard(seekName, block.ID, currentActive))
		case ast.RelIfAlternate:
			ifs := st.Parent.(*ast.IfStatement)
			ifs.Test = ast.NewLogicalExpression("&&", ifs.Test, negGuard(seekName, block.ID, currentActive))
		case ast.RelConditionalConsequent:
			c := st.Parent.(*ast.ConditionalExpression)
			c.Test = ast.NewLogicalExpression("||", c.Test, goalGuard(seekName, block.ID, currentActive))
		case ast.RelConditionalAlternate:
			c := st.Parent.(*ast.ConditionalExpression)
			c.Test = ast.NewLogicalExpression("&&", c.Test, negGuard(seekName, block.ID, currentActive))
		case ast.RelSwitchCase:
			sw := st.Parent.(*ast.SwitchStatement)
			sentinelDecl := rewriteSwitch(sw, st.Index, reg, seekName, block.ID, currentActive)
			if i > 0 {
				if err := ast.InsertStatementBefore(steps[i-1], sentinelDecl); err != nil {
					return fmt.Errorf("goal %d: hoisting switch sentinel: %w", block.ID, err)
				}
			}
		case ast.RelWhileBody:
			w := st.Parent.(*ast.WhileStatement)
			w.Test = ast.NewLogicalExpression("||", w.Test, goalGuard(seekName, block.ID, currentActive))
		case ast.RelDoWhileBody:
			w := st.Parent.(*ast.DoWhileStatement)
			w.Test = ast.NewLogicalExpression("||", w.Test, goalGuard(seekName, block.ID, currentActive))
		case ast.RelForBody:
			f := st.Parent.(*ast.ForStatement)
			if f.Test == nil {
				f.Test = goalGuard(seekName, block.ID, currentActive)
			} else {
				f.Test = ast.NewLogicalExpression("||", f.Test, goalGuard(seekName, block.ID, currentActive))
			}
		case ast.RelForOfBody:
			fo := st.Parent.(*ast.ForOfStatement)
			fo.Right = ast.NewCallExpression(ast.NewIdentifier(reg.ValueIterator()), []ast.Expression{fo.Right, goalGuard(seekName, block.ID, currentActive)})
		case ast.RelForInBody:
			fi := st.Parent.(*ast.ForInStatement)
			newForOf := ast.NewForOfStatement(fi.DeclKind, fi.Left,
				ast.NewCallExpression(ast.NewIdentifier(reg.KeyIterator()), []ast.Expression{fi.Right, goalGuard(seekName, block.ID, currentActive)}),
				fi.Body)
			if i > 0 {
				if err := ast.ReplaceStatement(steps[i-1], newForOf); err != nil {
					return fmt.Errorf("goal %d: converting for-in to for-of: %w", block.ID, err)
				}
			}
		case ast.RelTryHandler:
			// Bookkeeping only; the throw-guard is installed while processing
			// the paired RelCatchBody step one level in (below, in path order).
		case ast.RelCatchBody:
			if i == 0 {
				continue
			}
			tryStmt, ok := steps[i-1].Parent.(*ast.TryStatement)
			if !ok {
				continue
			}
			errExpr := resolveThrownError(block, reg, tryStmt.Handler)
			guard := ast.NewIfStatement(goalGuard(seekName, block.ID, currentActive), ast.NewBlockStatement([]ast.Statement{ast.NewThrowStatement(errExpr)}), nil)
			ast.PrependStatement(tryStmt.Block, guard)
		case ast.RelTryBlock, ast.RelTryFinally, ast.RelLabeledBody, ast.RelBlockBody, ast.RelProgramBody,
			ast.RelClassMember, ast.RelFunctionBody, ast.RelSwitchCaseBody, ast.RelComeHereBody,
			ast.RelIfTest, ast.RelConditionalTest, ast.RelSwitchDiscriminant, ast.RelWhileTest, ast.RelDoWhileTest,
			ast.RelForInit, ast.RelForTest, ast.RelForUpdate, ast.RelForOfRight, ast.RelForInRight,
			ast.RelExpressionStatementExpr, ast.RelDeclaratorInit, ast.RelAssignmentTarget, ast.RelAssignmentValue,
			ast.RelCallArgument, ast.RelCallCallee, ast.RelNewArgument, ast.RelMemberObject,
			ast.RelBinaryLeft, ast.RelBinaryRight, ast.RelUnaryArgument, ast.RelSequenceExpr,
			ast.RelReturnArgument, ast.RelThrowArgument:
			// Pure containment or a plain expression slot with no rewrite
			// rule of its own (§4.4.2 only defines rules for if/switch/
			// while/for/try/short-circuit-logical). When this slot sits
			// just above a function boundary that call synthesis (§4.4.3)
			// already spliced an IIFE into, the splice is the only action
			// needed here too.
		case ast.RelLogicalRight:
			lg := st.Parent.(*ast.LogicalExpression)
			helper := reg.OrHelper()
			if lg.Operator == "&&" {
				helper = reg.AndHelper()
			}
			thunk := ast.NewArrowFunctionWithExprBody(nil, lg.Right)
			call := ast.NewCallExpression(ast.NewIdentifier(helper), []ast.Expression{lg.Left, thunk, goalGuard(seekName, block.ID, currentActive)})
			if i > 0 {
				if err := ast.ReplaceExpression(steps[i-1], call); err != nil {
					return fmt.Errorf("goal %d: rewriting short-circuit operator: %w", block.ID, err)
				}
			}
		case ast.RelLogicalLeft:
			// Left always evaluates; no rewrite needed.
		default:
			sink.Error("goal %d: unsupported enclosing context (%v)", block.ID, st.Relation)
			return fmt.Errorf("goal %d: unsupported enclosing context", block.ID)
		}
	}
	return nil
}

func goalGuard(seekName string, id int, activeName string) ast.Expression {
	base := ast.NewBinaryExpression("==", ast.NewIdentifier(seekName), ast.NewNumberLiteral(fmt.Sprintf("%d", id)))
	if activeName == "" {
		return base
	}
	return ast.NewLogicalExpression("&&", ast.NewIdentifier(activeName), base)
}

func negGuard(seekName string, id int, activeName string) ast.Expression {
	base := ast.NewBinaryExpression("!=", ast.NewIdentifier(seekName), ast.NewNumberLiteral(fmt.Sprintf("%d", id)))
	if activeName == "" {
		return base
	}
	return ast.NewLogicalExpression("||", ast.NewUnaryExpression("!", true, ast.NewIdentifier(activeName)), base)
}

// rewriteSwitch applies the multi-case switch rule (§4.4.2): the
// discriminant becomes `G ? sentinel : snapshot`, computed inside an
// immediately-invoked arrow so no extra hoisted variable is needed for the
// snapshot; a new case labelled by the (hoisted) sentinel is inserted right
// after the goal's case, absorbing its consequent. It returns the sentinel's
// declaration, which the caller hoists immediately before the switch — the
// sentinel must be a stable shared reference, not a fresh object literal
// evaluated twice, so unlike the snapshot it cannot live inside the IIFE.
func rewriteSwitch(sw *ast.SwitchStatement, goalCaseIdx int, reg *support.Registry, seekName string, id int, activeName string) ast.Statement {
	sentinel := reg.Fresh("sentinel")
	snapshot := reg.Fresh("snapshot")

	snapshotArrow := ast.NewArrowFunction(nil, ast.NewBlockStatement([]ast.Statement{
		ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(ast.NewIdentifier(snapshot), sw.Discriminant)),
		ast.NewReturnStatement(ast.NewConditionalExpression(goalGuard(seekName, id, activeName), ast.NewIdentifier(sentinel), ast.NewIdentifier(snapshot))),
	}))
	sw.Discriminant = ast.NewCallExpression(snapshotArrow, nil)

	goalCase := sw.Cases[goalCaseIdx]
	sentinelCase := ast.NewSwitchCase(ast.NewIdentifier(sentinel), goalCase.Consequent)
	newCases := make([]*ast.SwitchCase, 0, len(sw.Cases)+1)
	newCases = append(newCases, sw.Cases[:goalCaseIdx+1]...)
	newCases = append(newCases, sentinelCase)
	newCases = append(newCases, sw.Cases[goalCaseIdx+1:]...)
	sw.Cases = newCases

	return ast.NewVariableDeclaration(ast.DeclConst, ast.NewVariableDeclarator(ast.NewIdentifier(sentinel), ast.NewObjectLiteral(nil)))
}

// resolveThrownError picks the expression to throw for the try/catch rule
// (§4.4.2 "Try/catch"): an initializer consumed for the caught parameter
// name, a `catch.<name>` lookup, or a freshly constructed generic error.
func resolveThrownError(block *extract.GoalBlock, reg *support.Registry, handler *ast.CatchClause) ast.Expression {
	if handler != nil && handler.Param != nil {
		if init := findInitializer(block, []string{handler.Param.Name}); init != nil {
			init.Consumed = true
			return init.Value
		}
		if init := findInitializer(block, []string{"catch." + handler.Param.Name}); init != nil {
			init.Consumed = true
			return init.Value
		}
	}
	return ast.NewNewExpression(ast.NewIdentifier("Error"), []ast.Expression{ast.NewStringLiteral(fmt.Sprintf("goal %d", block.ID))})
}

func findInitializer(block *extract.GoalBlock, qualifiedNames []string) *extract.Initializer {
	for _, qn := range qualifiedNames {
		for _, init := range block.Initializers {
			if !init.Consumed && init.Path == qn {
				return init
			}
		}
	}
	return nil
}

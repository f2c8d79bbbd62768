package ast

import "fmt"

// Relation names the specific slot a child occupies in its parent. The
// control driver (C7) dispatches its per-construct rewrite rule (§4.4.2) by
// switching on the Relation of the step below the construct being visited,
// not on the construct's Go type alone — the same IfStatement needs a
// different rewrite depending on whether the goal is reachable through its
// Consequent or its Alternate arm.
type Relation int

const (
	RelProgramBody Relation = iota
	RelBlockBody
	RelIfTest
	RelIfConsequent
	RelIfAlternate
	RelConditionalTest
	RelConditionalConsequent
	RelConditionalAlternate
	RelSwitchDiscriminant
	RelSwitchCase
	RelSwitchCaseBody
	RelWhileTest
	RelWhileBody
	RelDoWhileTest
	RelDoWhileBody
	RelForInit
	RelForTest
	RelForUpdate
	RelForBody
	RelForOfRight
	RelForOfBody
	RelForInRight
	RelForInBody
	RelTryBlock
	RelTryHandler
	RelTryFinally
	RelCatchBody
	RelLabeledBody
	RelComeHereBody
	RelFunctionBody
	RelClassMember
	RelLogicalLeft
	RelLogicalRight
	RelBinaryLeft
	RelBinaryRight
	RelUnaryArgument
	RelAssignmentTarget
	RelAssignmentValue
	RelDeclaratorInit
	RelExpressionStatementExpr
	RelReturnArgument
	RelThrowArgument
	RelCallArgument
	RelCallCallee
	RelMemberObject
	RelNewArgument
	RelSequenceExpr
)

// Step is one hop from a node up to its immediate parent.
type Step struct {
	Parent   Node
	Relation Relation
	Index    int // meaningful only for slice-valued relations
}

// Path is the chain of Steps from a target node up to (but not including)
// the Program root, outermost first. Walking Steps from the end to the
// start replays the descent from the goal block out to module top — the
// exact traversal order §4.4 specifies for the control driver.
type Path struct {
	Steps []Step
}

// Innermost returns the step describing the target's immediate parent, or
// false if the target is the Program itself.
func (p *Path) Innermost() (Step, bool) {
	if len(p.Steps) == 0 {
		return Step{}, false
	}
	return p.Steps[len(p.Steps)-1], true
}

// FindPath performs a full recursive descent from root looking for target
// by pointer identity, returning the ancestor chain if found. Parent links
// are not stored on nodes themselves (§9 "Cyclic structure" — the only
// non-tree edge is the parent pointer, kept as a transient lookup rather
// than a field, so that nodes stay trivially copiable value types elsewhere
// in the tree).
func FindPath(root *Program, target Node) (*Path, bool) {
	v := &pathFinder{target: target}
	for i, stmt := range root.Body {
		v.push(Step{Parent: root, Relation: RelProgramBody, Index: i})
		if v.visitStatement(stmt) {
			return &Path{Steps: append([]Step(nil), v.path...)}, true
		}
		v.pop()
	}
	return nil, false
}

type pathFinder struct {
	target Node
	path   []Step
}

func (v *pathFinder) push(s Step) { v.path = append(v.path, s) }
func (v *pathFinder) pop()        { v.path = v.path[:len(v.path)-1] }

func (v *pathFinder) hit(n Node) bool { return n == v.target }

func (v *pathFinder) visitStatement(s Statement) bool {
	if s == nil {
		return false
	}
	if v.hit(s) {
		return true
	}
	switch n := s.(type) {
	case *BlockStatement:
		for i, c := range n.Body {
			v.push(Step{Parent: n, Relation: RelBlockBody, Index: i})
			if v.visitStatement(c) {
				return true
			}
			v.pop()
		}
	case *ExpressionStatement:
		v.push(Step{Parent: n, Relation: RelExpressionStatementExpr})
		if v.visitExpression(n.Expr) {
			return true
		}
		v.pop()
	case *VariableDeclaration:
		for _, d := range n.Declarators {
			if d.Init != nil {
				v.push(Step{Parent: d, Relation: RelDeclaratorInit})
				if v.visitExpression(d.Init) {
					return true
				}
				v.pop()
			}
		}
	case *IfStatement:
		v.push(Step{Parent: n, Relation: RelIfTest})
		if v.visitExpression(n.Test) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelIfConsequent})
		if v.visitStatement(n.Consequent) {
			return true
		}
		v.pop()
		if n.Alternate != nil {
			v.push(Step{Parent: n, Relation: RelIfAlternate})
			if v.visitStatement(n.Alternate) {
				return true
			}
			v.pop()
		}
	case *SwitchStatement:
		v.push(Step{Parent: n, Relation: RelSwitchDiscriminant})
		if v.visitExpression(n.Discriminant) {
			return true
		}
		v.pop()
		for ci, c := range n.Cases {
			v.push(Step{Parent: n, Relation: RelSwitchCase, Index: ci})
			for i, stmt := range c.Consequent {
				v.push(Step{Parent: c, Relation: RelSwitchCaseBody, Index: i})
				if v.visitStatement(stmt) {
					return true
				}
				v.pop()
			}
			v.pop()
		}
	case *WhileStatement:
		v.push(Step{Parent: n, Relation: RelWhileTest})
		if v.visitExpression(n.Test) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelWhileBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *DoWhileStatement:
		v.push(Step{Parent: n, Relation: RelDoWhileBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelDoWhileTest})
		if v.visitExpression(n.Test) {
			return true
		}
		v.pop()
	case *ForStatement:
		v.push(Step{Parent: n, Relation: RelForBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *ForOfStatement:
		v.push(Step{Parent: n, Relation: RelForOfRight})
		if v.visitExpression(n.Right) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelForOfBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *ForInStatement:
		v.push(Step{Parent: n, Relation: RelForInRight})
		if v.visitExpression(n.Right) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelForInBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *TryStatement:
		v.push(Step{Parent: n, Relation: RelTryBlock})
		if v.visitStatement(n.Block) {
			return true
		}
		v.pop()
		if n.Handler != nil {
			v.push(Step{Parent: n, Relation: RelTryHandler})
			v.push(Step{Parent: n.Handler, Relation: RelCatchBody})
			if v.visitStatement(n.Handler.Body) {
				return true
			}
			v.pop()
			v.pop()
		}
		if n.Finally != nil {
			v.push(Step{Parent: n, Relation: RelTryFinally})
			if v.visitStatement(n.Finally) {
				return true
			}
			v.pop()
		}
	case *LabeledStatement:
		v.push(Step{Parent: n, Relation: RelLabeledBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *ComeHereStatement:
		v.push(Step{Parent: n, Relation: RelComeHereBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *ReturnStatement:
		if n.Argument != nil {
			v.push(Step{Parent: n, Relation: RelReturnArgument})
			if v.visitExpression(n.Argument) {
				return true
			}
			v.pop()
		}
	case *ThrowStatement:
		v.push(Step{Parent: n, Relation: RelThrowArgument})
		if v.visitExpression(n.Argument) {
			return true
		}
		v.pop()
	case *FunctionDeclaration:
		v.push(Step{Parent: n, Relation: RelFunctionBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *ClassDeclaration:
		if v.visitClassBody(n.Body) {
			return true
		}
	}
	return false
}

func (v *pathFinder) visitClassBody(body *ClassBody) bool {
	for i, m := range body.Members {
		v.push(Step{Parent: body, Relation: RelClassMember, Index: i})
		switch member := m.(type) {
		case *MethodDefinition:
			if v.hit(member.Fn) || v.visitStatement(member.Fn.Body) {
				return true
			}
		case *PropertyDefinition:
			if member.Value != nil && v.visitExpression(member.Value) {
				return true
			}
		}
		v.pop()
	}
	return false
}

func (v *pathFinder) visitExpression(e Expression) bool {
	if e == nil {
		return false
	}
	if v.hit(e) {
		return true
	}
	switch n := e.(type) {
	case *LogicalExpression:
		v.push(Step{Parent: n, Relation: RelLogicalLeft})
		if v.visitExpression(n.Left) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelLogicalRight})
		if v.visitExpression(n.Right) {
			return true
		}
		v.pop()
	case *BinaryExpression:
		v.push(Step{Parent: n, Relation: RelBinaryLeft})
		if v.visitExpression(n.Left) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelBinaryRight})
		if v.visitExpression(n.Right) {
			return true
		}
		v.pop()
	case *UnaryExpression:
		v.push(Step{Parent: n, Relation: RelUnaryArgument})
		if v.visitExpression(n.Argument) {
			return true
		}
		v.pop()
	case *AssignmentExpression:
		v.push(Step{Parent: n, Relation: RelAssignmentValue})
		if v.visitExpression(n.Value) {
			return true
		}
		v.pop()
	case *ConditionalExpression:
		v.push(Step{Parent: n, Relation: RelConditionalTest})
		if v.visitExpression(n.Test) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelConditionalConsequent})
		if v.visitExpression(n.Consequent) {
			return true
		}
		v.pop()
		v.push(Step{Parent: n, Relation: RelConditionalAlternate})
		if v.visitExpression(n.Alternate) {
			return true
		}
		v.pop()
	case *SequenceExpression:
		for i, sub := range n.Expressions {
			v.push(Step{Parent: n, Relation: RelSequenceExpr, Index: i})
			if v.visitExpression(sub) {
				return true
			}
			v.pop()
		}
	case *CallExpression:
		v.push(Step{Parent: n, Relation: RelCallCallee})
		if v.visitExpression(n.Callee) {
			return true
		}
		v.pop()
		for i, a := range n.Arguments {
			v.push(Step{Parent: n, Relation: RelCallArgument, Index: i})
			if v.visitExpression(a) {
				return true
			}
			v.pop()
		}
	case *NewExpression:
		for i, a := range n.Arguments {
			v.push(Step{Parent: n, Relation: RelNewArgument, Index: i})
			if v.visitExpression(a) {
				return true
			}
			v.pop()
		}
	case *MemberExpression:
		v.push(Step{Parent: n, Relation: RelMemberObject})
		if v.visitExpression(n.Object) {
			return true
		}
		v.pop()
	case *FunctionExpression:
		v.push(Step{Parent: n, Relation: RelFunctionBody})
		if v.visitStatement(n.Body) {
			return true
		}
		v.pop()
	case *ClassExpression:
		if v.visitClassBody(n.Body) {
			return true
		}
	}
	return false
}

// ReplaceStatement overwrites the statement slot described by step with
// replacement. Used by every mutating pass once it has decided what a
// construct should become under the goal's guard.
func ReplaceStatement(step Step, replacement Statement) error {
	switch p := step.Parent.(type) {
	case *Program:
		p.Body[step.Index] = replacement
	case *BlockStatement:
		p.Body[step.Index] = replacement
	case *SwitchCase:
		p.Consequent[step.Index] = replacement
	case *IfStatement:
		switch step.Relation {
		case RelIfConsequent:
			p.Consequent = replacement
		case RelIfAlternate:
			p.Alternate = replacement
		default:
			return fmt.Errorf("ast: bad relation %v for IfStatement", step.Relation)
		}
	case *WhileStatement:
		p.Body = replacement
	case *DoWhileStatement:
		p.Body = replacement
	case *ForStatement:
		p.Body = replacement
	case *ForOfStatement:
		p.Body = replacement
	case *ForInStatement:
		p.Body = replacement
	case *TryStatement:
		switch step.Relation {
		case RelTryBlock:
			block, ok := replacement.(*BlockStatement)
			if !ok {
				return fmt.Errorf("ast: try block must remain a BlockStatement")
			}
			p.Block = block
		case RelTryFinally:
			block, ok := replacement.(*BlockStatement)
			if !ok {
				return fmt.Errorf("ast: finally must remain a BlockStatement")
			}
			p.Finally = block
		default:
			return fmt.Errorf("ast: bad relation %v for TryStatement", step.Relation)
		}
	case *CatchClause:
		block, ok := replacement.(*BlockStatement)
		if !ok {
			return fmt.Errorf("ast: catch body must remain a BlockStatement")
		}
		p.Body = block
	case *LabeledStatement:
		p.Body = replacement
	case *ComeHereStatement:
		block, ok := replacement.(*BlockStatement)
		if !ok {
			return fmt.Errorf("ast: COMEHERE body must remain a BlockStatement")
		}
		p.Body = block
	case *FunctionDeclaration:
		block, ok := replacement.(*BlockStatement)
		if !ok {
			return fmt.Errorf("ast: function body must remain a BlockStatement")
		}
		p.Body = block
	case *FunctionExpression:
		block, ok := replacement.(*BlockStatement)
		if !ok {
			return fmt.Errorf("ast: function body must remain a BlockStatement")
		}
		p.Body = block
	default:
		return fmt.Errorf("ast: ReplaceStatement: unsupported parent %T", step.Parent)
	}
	return nil
}

// ReplaceExpression overwrites the expression slot described by step.
func ReplaceExpression(step Step, replacement Expression) error {
	switch p := step.Parent.(type) {
	case *IfStatement:
		p.Test = replacement
	case *SwitchStatement:
		p.Discriminant = replacement
	case *WhileStatement:
		p.Test = replacement
	case *DoWhileStatement:
		p.Test = replacement
	case *ForStatement:
		switch step.Relation {
		case RelForTest:
			p.Test = replacement
		case RelForUpdate:
			p.Update = replacement
		default:
			return fmt.Errorf("ast: bad relation %v for ForStatement expr", step.Relation)
		}
	case *ForOfStatement:
		p.Right = replacement
	case *ForInStatement:
		p.Right = replacement
	case *LogicalExpression:
		switch step.Relation {
		case RelLogicalLeft:
			p.Left = replacement
		case RelLogicalRight:
			p.Right = replacement
		}
	case *BinaryExpression:
		switch step.Relation {
		case RelBinaryLeft:
			p.Left = replacement
		case RelBinaryRight:
			p.Right = replacement
		}
	case *ExpressionStatement:
		p.Expr = replacement
	case *ReturnStatement:
		p.Argument = replacement
	case *VariableDeclarator:
		p.Init = replacement
	case *CallExpression:
		if step.Relation == RelCallArgument {
			p.Arguments[step.Index] = replacement
		}
	default:
		return fmt.Errorf("ast: ReplaceExpression: unsupported parent %T", step.Parent)
	}
	return nil
}

// InsertStatementAfter inserts newStmt immediately after the statement list
// index described by step. Used to emplace guarded call-blocks (§4.4.3) and
// to splice the return-trailing try/finally rewrite (§4.2) into a block.
func InsertStatementAfter(step Step, newStmt Statement) error {
	insertAt := func(list *[]Statement, index int) {
		l := *list
		l = append(l, nil)
		copy(l[index+2:], l[index+1:])
		l[index+1] = newStmt
		*list = l
	}
	switch p := step.Parent.(type) {
	case *Program:
		insertAt(&p.Body, step.Index)
	case *BlockStatement:
		insertAt(&p.Body, step.Index)
	case *SwitchCase:
		insertAt(&p.Consequent, step.Index)
	default:
		return fmt.Errorf("ast: InsertStatementAfter: unsupported parent %T", step.Parent)
	}
	return nil
}

// InsertStatementBefore inserts newStmt immediately before the statement
// list index described by step — used to hoist the switch-rewrite's sentinel
// declaration (§4.4.2 "Multi-case switch") ahead of the switch it guards.
func InsertStatementBefore(step Step, newStmt Statement) error {
	insertAt := func(list *[]Statement, index int) {
		l := *list
		l = append(l, nil)
		copy(l[index+1:], l[index:])
		l[index] = newStmt
		*list = l
	}
	switch p := step.Parent.(type) {
	case *Program:
		insertAt(&p.Body, step.Index)
	case *BlockStatement:
		insertAt(&p.Body, step.Index)
	case *SwitchCase:
		insertAt(&p.Consequent, step.Index)
	default:
		return fmt.Errorf("ast: InsertStatementBefore: unsupported parent %T", step.Parent)
	}
	return nil
}

// PrependStatement inserts newStmt at the front of a block's body — used to
// install the active-frame prologue (§4.4.1) and the try/catch throw-guard
// (§4.4.2).
func PrependStatement(block *BlockStatement, newStmt Statement) {
	block.Body = append([]Statement{newStmt}, block.Body...)
}

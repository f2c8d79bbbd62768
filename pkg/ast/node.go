// Package ast defines a mutable, tagged-variant syntax tree for the
// JavaScript superset the transformer operates on: ordinary JS plus
// COMEHERE blocks and $$-capture identifiers.
package ast

// NodeKind tags every node so that rewrite rules can dispatch with an
// exhaustive switch instead of a class hierarchy.
type NodeKind string

const (
	KindIdentifier          NodeKind = "Identifier"
	KindStringLiteral       NodeKind = "StringLiteral"
	KindNumberLiteral       NodeKind = "NumberLiteral"
	KindBooleanLiteral      NodeKind = "BooleanLiteral"
	KindNullLiteral         NodeKind = "NullLiteral"
	KindThisExpression      NodeKind = "ThisExpression"
	KindArrayLiteral        NodeKind = "ArrayLiteral"
	KindObjectLiteral       NodeKind = "ObjectLiteral"
	KindSpreadElement       NodeKind = "SpreadElement"
	KindRawExpression       NodeKind = "RawExpression"
	KindUnaryExpression     NodeKind = "UnaryExpression"
	KindBinaryExpression    NodeKind = "BinaryExpression"
	KindLogicalExpression   NodeKind = "LogicalExpression"
	KindAssignmentExpr      NodeKind = "AssignmentExpression"
	KindConditionalExpr     NodeKind = "ConditionalExpression"
	KindSequenceExpression  NodeKind = "SequenceExpression"
	KindCallExpression      NodeKind = "CallExpression"
	KindNewExpression       NodeKind = "NewExpression"
	KindMemberExpression    NodeKind = "MemberExpression"
	KindFunctionExpression  NodeKind = "FunctionExpression"
	KindArrowFunction       NodeKind = "ArrowFunctionExpression"
	KindClassExpression     NodeKind = "ClassExpression"
	KindAwaitExpression     NodeKind = "AwaitExpression"
	KindYieldExpression     NodeKind = "YieldExpression"

	KindParameter NodeKind = "Parameter"

	KindBlockStatement      NodeKind = "BlockStatement"
	KindRawStatement        NodeKind = "RawStatement"
	KindExpressionStatement NodeKind = "ExpressionStatement"
	KindEmptyStatement      NodeKind = "EmptyStatement"
	KindVariableDeclaration NodeKind = "VariableDeclaration"
	KindVariableDeclarator  NodeKind = "VariableDeclarator"
	KindIfStatement         NodeKind = "IfStatement"
	KindSwitchStatement     NodeKind = "SwitchStatement"
	KindSwitchCase          NodeKind = "SwitchCase"
	KindWhileStatement      NodeKind = "WhileStatement"
	KindDoWhileStatement    NodeKind = "DoWhileStatement"
	KindForStatement        NodeKind = "ForStatement"
	KindForInStatement      NodeKind = "ForInStatement"
	KindForOfStatement      NodeKind = "ForOfStatement"
	KindReturnStatement     NodeKind = "ReturnStatement"
	KindBreakStatement      NodeKind = "BreakStatement"
	KindContinueStatement   NodeKind = "ContinueStatement"
	KindThrowStatement      NodeKind = "ThrowStatement"
	KindTryStatement        NodeKind = "TryStatement"
	KindCatchClause         NodeKind = "CatchClause"
	KindLabeledStatement    NodeKind = "LabeledStatement"
	KindComeHereStatement   NodeKind = "ComeHereStatement"
	KindFunctionDeclaration NodeKind = "FunctionDeclaration"
	KindClassDeclaration    NodeKind = "ClassDeclaration"
	KindClassBody           NodeKind = "ClassBody"
	KindMethodDefinition    NodeKind = "MethodDefinition"
	KindPropertyDefinition  NodeKind = "PropertyDefinition"
	KindObjectMethod        NodeKind = "ObjectMethod"
	KindObjectProperty      NodeKind = "ObjectProperty"

	KindProgram NodeKind = "Program"
)

// Node is the root interface implemented by every tree element.
type Node interface {
	Kind() NodeKind
	isNode()
}

type nodeImpl struct {
	kind NodeKind
}

func newNodeImpl(kind NodeKind) nodeImpl { return nodeImpl{kind: kind} }

func (n nodeImpl) Kind() NodeKind { return n.kind }
func (nodeImpl) isNode()          {}

// Marker interfaces partition nodes into the families the driver and
// extractor need to tell apart quickly.

// Expression is any node that can appear where a value is expected.
type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// Statement is any node that can appear in a statement list.
type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// ClassMember is a method, accessor, constructor or field inside a class body.
type ClassMember interface {
	Node
	classMemberNode()
}

type classMemberMarker struct{}

func (classMemberMarker) classMemberNode() {}

// ObjectMember is a property or method inside an object literal.
type ObjectMember interface {
	Node
	objectMemberNode()
}

type objectMemberMarker struct{}

func (objectMemberMarker) objectMemberNode() {}

package ast

// MethodKind distinguishes the member roles §3 enumerates: plain method,
// constructor, getter, setter.
type MethodKind string

const (
	MethodPlain       MethodKind = "method"
	MethodConstructor MethodKind = "constructor"
	MethodGetter      MethodKind = "get"
	MethodSetter      MethodKind = "set"
)

// MethodDefinition is one method/constructor/accessor inside a class body.
// Key is an *Identifier for a plain name; Computed means Key is an arbitrary
// expression in `[ ]`; Private means the source spelled the name `#name`
// (Key is still the *Identifier sans `#`).
type MethodDefinition struct {
	nodeImpl
	classMemberMarker

	Key         Expression
	Computed    bool
	Private     bool
	Static      bool
	MethodKind  MethodKind
	Fn          *FunctionExpression
}

func NewMethodDefinition(key Expression, kind MethodKind, fn *FunctionExpression) *MethodDefinition {
	return &MethodDefinition{nodeImpl: newNodeImpl(KindMethodDefinition), Key: key, MethodKind: kind, Fn: fn}
}

// KeyName returns the method's plain identifier name when Key is a simple,
// non-computed identifier (the common case the call-synthesis logic in
// §4.4.3 can name directly).
func (m *MethodDefinition) KeyName() (string, bool) {
	if m.Computed {
		return "", false
	}
	id, ok := m.Key.(*Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// PropertyDefinition is a class field (`x = 1;`), not a method.
type PropertyDefinition struct {
	nodeImpl
	classMemberMarker

	Key      Expression
	Computed bool
	Static   bool
	Value    Expression // nil if uninitialized
}

func NewPropertyDefinition(key Expression, value Expression) *PropertyDefinition {
	return &PropertyDefinition{nodeImpl: newNodeImpl(KindPropertyDefinition), Key: key, Value: value}
}

// ClassBody holds a class's ordered member list, exposed as a slice rather
// than boxed behind another Node so the driver can splice in delegator
// members (§4.4.3 "Complex keys / private members") with plain slice surgery.
type ClassBody struct {
	nodeImpl

	Members []ClassMember
}

func NewClassBody(members []ClassMember) *ClassBody {
	return &ClassBody{nodeImpl: newNodeImpl(KindClassBody), Members: members}
}

// ClassDeclaration is a named class, either a top-level declaration or
// (when used as the RHS of a binding) indistinguishable in shape from a
// class expression — ClassKind (declaration vs expression) lives only in
// how the driver references the node, per ClassExpression below.
type ClassDeclaration struct {
	nodeImpl
	statementMarker

	Name       *Identifier
	SuperClass Expression // nil if none
	Body       *ClassBody
	Exported   bool
}

func NewClassDeclaration(name *Identifier, super Expression, body *ClassBody) *ClassDeclaration {
	return &ClassDeclaration{nodeImpl: newNodeImpl(KindClassDeclaration), Name: name, SuperClass: super, Body: body}
}

// ClassExpression is a class used as an expression (may be anonymous).
type ClassExpression struct {
	nodeImpl
	expressionMarker

	Name       *Identifier // nil if anonymous
	SuperClass Expression
	Body       *ClassBody
}

func NewClassExpression(name *Identifier, super Expression, body *ClassBody) *ClassExpression {
	return &ClassExpression{nodeImpl: newNodeImpl(KindClassExpression), Name: name, SuperClass: super, Body: body}
}

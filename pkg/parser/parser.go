// Package parser converts a tree-sitter-javascript concrete syntax tree
// into this repository's own mutable pkg/ast tree (C1, SPEC_FULL.md §2,
// §3). Grounded on the teacher's pkg/parser/module_parser.go and helpers.go:
// a ModuleParser wraps a configured *sitter.Parser, and a parseContext
// carries the immutable source bytes so every helper can slice spans
// without threading them through every call.
//
// Coverage is a deliberately bounded, best-effort subset of the JavaScript
// grammar: every construct pkg/ast models (§3's statement/expression list)
// is handled structurally. Anything this parser does not recognize — rare
// syntax the transformer never needs to rewrite through (template strings,
// regex literals, destructuring patterns beyond a plain name, decorators,
// TS-style annotations if the grammar tolerates them) is preserved verbatim
// as a RawStatement/RawExpression rather than dropped or mis-parsed; this
// mirrors pkg/ast.Parameter's own documented "destructuring patterns are
// carried as raw text" escape hatch (functions.go) rather than inventing a
// new one.
package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mikesamuel/comehere/pkg/ast"
	"github.com/mikesamuel/comehere/pkg/parser/language"
)

// ModuleParser wraps a tree-sitter parser configured for the JavaScript
// superset this transformer operates on.
type ModuleParser struct {
	parser *sitter.Parser
}

// NewModuleParser constructs a parser with the JavaScript grammar loaded.
func NewModuleParser() (*ModuleParser, error) {
	lang := language.JavaScript()
	if lang == nil {
		return nil, fmt.Errorf("parser: javascript language not available")
	}
	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	return &ModuleParser{parser: p}, nil
}

// Close releases parser resources.
func (p *ModuleParser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
}

// Parse converts JavaScript source into the canonical ast.Program.
func (p *ModuleParser) Parse(source []byte) (*ast.Program, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("parser: nil parser")
	}
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parser: tree-sitter returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Kind() != "program" {
		return nil, fmt.Errorf("parser: unexpected root node")
	}
	if root.HasError() {
		return nil, fmt.Errorf("parser: syntax errors present")
	}

	ctx := newParseContext(source)
	body := make([]ast.Statement, 0, int(root.NamedChildCount()))
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if ctx.isIgnorable(child) {
			continue
		}
		body = append(body, ctx.parseStatement(child))
	}
	return ast.NewProgram(body), nil
}

// parseContext carries the immutable source bytes every conversion helper
// needs in order to slice spans for identifiers, literals, and raw
// fallbacks.
type parseContext struct {
	source []byte
}

func newParseContext(source []byte) *parseContext {
	return &parseContext{source: source}
}

func (ctx *parseContext) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := int(node.StartByte()), int(node.EndByte())
	if start < 0 || end < start || end > len(ctx.source) {
		return ""
	}
	return string(ctx.source[start:end])
}

// isIgnorable reports whether a CST node carries no semantic content for
// this transformer. Only comment nodes are ignored; other extra nodes are
// not filtered here.
func (ctx *parseContext) isIgnorable(node *sitter.Node) bool {
	if node == nil {
		return true
	}
	switch node.Kind() {
	case "comment", "html_comment":
		return true
	}
	return false
}

// namedChildren returns every non-ignorable named child of node.
func (ctx *parseContext) namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, int(node.NamedChildCount()))
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if !ctx.isIgnorable(child) {
			out = append(out, child)
		}
	}
	return out
}

// hasChildOfKind reports whether any direct child (named or not — this is
// how keyword tokens like `of`/`in`/`async`/`static`/`get`/`set` surface in
// tree-sitter-javascript) has the given kind.
func (ctx *parseContext) hasChildOfKind(node *sitter.Node, kind string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return true
		}
	}
	return false
}

func (ctx *parseContext) identifier(node *sitter.Node) *ast.Identifier {
	return ast.NewIdentifier(ctx.text(node))
}

// rawStatement preserves a CST subtree this parser doesn't structurally
// understand, verbatim, as an escape hatch rather than failing the parse.
func (ctx *parseContext) rawStatement(node *sitter.Node) ast.Statement {
	return ast.NewRawStatement(ctx.text(node))
}

func (ctx *parseContext) rawExpression(node *sitter.Node) ast.Expression {
	return ast.NewRawExpression(ctx.text(node))
}

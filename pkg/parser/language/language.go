// Package language exposes the tree-sitter grammar the transformer parses
// against. Unlike the teacher, which vendors its own grammar's C sources
// and cgo-wraps them directly (there being no published Go module for the
// Able grammar), tree-sitter-javascript ships its own prebuilt Go bindings
// package, so this wrapper only has to adapt its raw language pointer into
// the go-tree-sitter *Language type the rest of pkg/parser expects.
package language

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tsjavascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// JavaScript returns the tree-sitter language for the JavaScript superset
// this transformer operates on (ordinary JS plus COMEHERE/`$$` syntax,
// both of which reuse existing JS grammar productions — see pkg/parser).
func JavaScript() *sitter.Language {
	return sitter.NewLanguage(tsjavascript.Language())
}

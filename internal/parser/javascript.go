package parser

import (
	"github.com/PentesterFlow/routescan/internal/ast"
)

// NewJavaScriptProcessor creates the processor for .js files. It matches
// server route registrations, then client requests on the instance or a
// client library. A malformed file is logged and yields no records.
func NewJavaScriptProcessor(opts Options) FileProcessor {
	return newProcessor(ast.NewJavaScriptParser(), opts, true)
}

// NewProcessor returns the processor for a dialect.
func NewProcessor(d ast.Dialect, opts Options) (FileProcessor, bool) {
	switch d {
	case ast.Typed:
		return NewTypeScriptProcessor(opts), true
	case ast.Untyped:
		return NewJavaScriptProcessor(opts), true
	default:
		return nil, false
	}
}

package parser

import (
	"github.com/PentesterFlow/routescan/internal/ast"
)

// NewTypeScriptProcessor creates the processor for .ts files. It matches
// server route registrations only, and a malformed file aborts discovery.
func NewTypeScriptProcessor(opts Options) FileProcessor {
	return newProcessor(ast.NewTypeScriptParser(), opts, false)
}

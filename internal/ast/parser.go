package ast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Dialect identifies the source language of a file.
type Dialect string

const (
	// Typed is TypeScript.
	Typed Dialect = "typescript"
	// Untyped is JavaScript.
	Untyped Dialect = "javascript"
)

// FailureMode declares how a parse failure is surfaced to the caller.
type FailureMode int

const (
	// Strict parse failures abort the whole run.
	Strict FailureMode = iota
	// Tolerant parse failures are logged and the file yields nothing.
	Tolerant
)

// SourceParser builds a Program from source bytes.
type SourceParser interface {
	Dialect() Dialect
	FailureMode() FailureMode
	Parse(ctx context.Context, src []byte) (*Program, error)
}

// SyntaxError reports where a source failed to parse.
type SyntaxError struct {
	Dialect Dialect
	Line    int
	Column  int
	Near    string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("%s syntax error at %d:%d", e.Dialect, e.Line, e.Column)
	}
	return fmt.Sprintf("%s syntax error at %d:%d near %q", e.Dialect, e.Line, e.Column, e.Near)
}

// TypeScriptParser parses TypeScript with strict failure semantics.
type TypeScriptParser struct{}

// NewTypeScriptParser creates a TypeScript parser.
func NewTypeScriptParser() *TypeScriptParser { return &TypeScriptParser{} }

func (*TypeScriptParser) Dialect() Dialect         { return Typed }
func (*TypeScriptParser) FailureMode() FailureMode { return Strict }

// Parse builds a Program or returns a *SyntaxError.
func (p *TypeScriptParser) Parse(ctx context.Context, src []byte) (*Program, error) {
	return parse(ctx, typescript.GetLanguage(), Typed, src)
}

// JavaScriptParser parses JavaScript, including JSX, with tolerant failure
// semantics.
type JavaScriptParser struct{}

// NewJavaScriptParser creates a JavaScript parser.
func NewJavaScriptParser() *JavaScriptParser { return &JavaScriptParser{} }

func (*JavaScriptParser) Dialect() Dialect         { return Untyped }
func (*JavaScriptParser) FailureMode() FailureMode { return Tolerant }

// Parse builds a Program or returns a *SyntaxError.
func (p *JavaScriptParser) Parse(ctx context.Context, src []byte) (*Program, error) {
	return parse(ctx, javascript.GetLanguage(), Untyped, src)
}

// ForDialect returns the parser for a dialect.
func ForDialect(d Dialect) (SourceParser, bool) {
	switch d {
	case Typed:
		return NewTypeScriptParser(), true
	case Untyped:
		return NewJavaScriptParser(), true
	default:
		return nil, false
	}
}

func parse(ctx context.Context, lang *sitter.Language, dialect Dialect, src []byte) (*Program, error) {
	// A parser is not safe for concurrent use; one per call.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%s parse: %w", dialect, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(dialect, root, src)
	}

	b := &builder{src: src}
	return b.program(root), nil
}

func syntaxError(dialect Dialect, root *sitter.Node, src []byte) *SyntaxError {
	se := &SyntaxError{Dialect: dialect, Line: 1}
	bad := firstError(root)
	if bad == nil {
		return se
	}
	pt := bad.StartPoint()
	se.Line = int(pt.Row) + 1
	se.Column = int(pt.Column)
	near := bad.Content(src)
	if len(near) > 40 {
		near = near[:40]
	}
	se.Near = near
	return se
}

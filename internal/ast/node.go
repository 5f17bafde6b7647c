// Package ast turns TypeScript and JavaScript sources into a small, closed set
// of syntax node variants that the endpoint matchers pattern-match over.
package ast

import "strings"

// Kind tags a node variant.
type Kind int

const (
	KindRaw Kind = iota
	KindProgram
	KindCall
	KindMember
	KindIdentifier
	KindString
	KindNumber
	KindBool
	KindNull
	KindTemplate
	KindObject
	KindProperty
	KindArray
	KindFunction
	KindBlock
	KindDeclarator
)

var kindNames = [...]string{
	KindRaw:        "raw",
	KindProgram:    "program",
	KindCall:       "call",
	KindMember:     "member",
	KindIdentifier: "identifier",
	KindString:     "string",
	KindNumber:     "number",
	KindBool:       "bool",
	KindNull:       "null",
	KindTemplate:   "template",
	KindObject:     "object",
	KindProperty:   "property",
	KindArray:      "array",
	KindFunction:   "function",
	KindBlock:      "block",
	KindDeclarator: "declarator",
}

// String returns the kind name.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Span locates a node in its source file.
type Span struct {
	StartByte uint32
	EndByte   uint32
	Line      int // 1-based
	Column    int // 0-based
}

// Node is implemented by every variant. Children never contains nil.
type Node interface {
	Kind() Kind
	Children() []Node
	Span() Span
	// Text is the exact source text the node was built from.
	Text() string
	// Type is the grammar node type the variant was built from.
	Type() string
}

type base struct {
	span     Span
	text     string
	typeName string
}

func (b *base) Span() Span       { return b.span }
func (b *base) Text() string     { return b.text }
func (b *base) Type() string     { return b.typeName }
func (b *base) Children() []Node { return nil }

// Program is the root of a parsed file.
type Program struct {
	base
	Body []Node
}

func (*Program) Kind() Kind         { return KindProgram }
func (p *Program) Children() []Node { return p.Body }

// Call is a call expression: Callee(Args...).
type Call struct {
	base
	Callee Node
	Args   []Node
}

func (*Call) Kind() Kind { return KindCall }
func (c *Call) Children() []Node {
	return compact(append([]Node{c.Callee}, c.Args...))
}

// Member is a property access: Object.Property or Object[Index].
// For computed access with a string literal index, Property holds the literal.
type Member struct {
	base
	Object   Node
	Property string
	Computed bool
	Index    Node
}

func (*Member) Kind() Kind { return KindMember }
func (m *Member) Children() []Node {
	return compact([]Node{m.Object, m.Index})
}

// Identifier is a bare name.
type Identifier struct {
	base
	Name string
}

func (*Identifier) Kind() Kind { return KindIdentifier }

// String is a quoted string literal with escapes decoded.
type String struct {
	base
	Value string
}

func (*String) Kind() Kind { return KindString }

// Number is a numeric literal.
type Number struct {
	base
	Value float64
}

func (*Number) Kind() Kind { return KindNumber }

// Bool is true or false.
type Bool struct {
	base
	Value bool
}

func (*Bool) Kind() Kind { return KindBool }

// Null is null or undefined.
type Null struct {
	base
}

func (*Null) Kind() Kind { return KindNull }

// Template is a backtick literal. Quasis holds the raw static segments,
// always one more than Exprs.
type Template struct {
	base
	Quasis []string
	Exprs  []Node
}

func (*Template) Kind() Kind         { return KindTemplate }
func (t *Template) Children() []Node { return t.Exprs }

// Static reports the template text when it has no substitutions.
func (t *Template) Static() (string, bool) {
	if len(t.Exprs) > 0 {
		return "", false
	}
	if len(t.Quasis) == 0 {
		return "", true
	}
	return t.Quasis[0], true
}

// Joined concatenates the static segments, dropping substitutions.
func (t *Template) Joined() string {
	return strings.Join(t.Quasis, "")
}

// Object is an object literal. Rest holds spreads and methods.
type Object struct {
	base
	Props []*Property
	Rest  []Node
}

func (*Object) Kind() Kind { return KindObject }
func (o *Object) Children() []Node {
	out := make([]Node, 0, len(o.Props)+len(o.Rest))
	for _, p := range o.Props {
		out = append(out, p)
	}
	return append(out, o.Rest...)
}

// Get returns the value of the first non-computed property named key.
func (o *Object) Get(key string) (Node, bool) {
	for _, p := range o.Props {
		if !p.Computed && p.Key == key && p.Value != nil {
			return p.Value, true
		}
	}
	return nil, false
}

// Property is a key/value pair inside an object literal or object pattern.
type Property struct {
	base
	Key       string
	Value     Node
	Shorthand bool
	Computed  bool
}

func (*Property) Kind() Kind { return KindProperty }
func (p *Property) Children() []Node {
	return compact([]Node{p.Value})
}

// Array is an array literal.
type Array struct {
	base
	Elems []Node
}

func (*Array) Kind() Kind         { return KindArray }
func (a *Array) Children() []Node { return a.Elems }

// Function covers declarations, expressions, arrows and methods.
type Function struct {
	base
	Name   string
	Params []Node
	Body   Node
}

func (*Function) Kind() Kind { return KindFunction }
func (f *Function) Children() []Node {
	return compact(append(append([]Node{}, f.Params...), f.Body))
}

// ParamName returns the identifier name of parameter i, or "".
func (f *Function) ParamName(i int) string {
	if i < 0 || i >= len(f.Params) {
		return ""
	}
	if id, ok := f.Params[i].(*Identifier); ok {
		return id.Name
	}
	return ""
}

// Block is a statement block.
type Block struct {
	base
	Stmts []Node
}

func (*Block) Kind() Kind         { return KindBlock }
func (b *Block) Children() []Node { return b.Stmts }

// Declarator binds Init to Target, as in `const Target = Init` or
// `Target = Init`. Target may be an object pattern.
type Declarator struct {
	base
	Target Node
	Init   Node
}

func (*Declarator) Kind() Kind { return KindDeclarator }
func (d *Declarator) Children() []Node {
	return compact([]Node{d.Target, d.Init})
}

// Raw is any grammar node without a dedicated variant.
type Raw struct {
	base
	Kids []Node
}

func (*Raw) Kind() Kind         { return KindRaw }
func (r *Raw) Children() []Node { return r.Kids }

func compact(nodes []Node) []Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

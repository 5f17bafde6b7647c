package ast

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// builder converts a tree-sitter concrete syntax tree into Node variants.
type builder struct {
	src []byte
}

func (b *builder) program(root *sitter.Node) *Program {
	return &Program{base: b.base(root), Body: b.named(root)}
}

func (b *builder) base(n *sitter.Node) base {
	start := n.StartPoint()
	return base{
		span: Span{
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
			Line:      int(start.Row) + 1,
			Column:    int(start.Column),
		},
		text:     n.Content(b.src),
		typeName: n.Type(),
	}
}

// named converts the named children of n, skipping comments.
func (b *builder) named(n *sitter.Node) []Node {
	count := int(n.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := b.convert(n.NamedChild(i)); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (b *builder) field(n *sitter.Node, name string) Node {
	c := n.ChildByFieldName(name)
	if c == nil {
		return nil
	}
	return b.convert(c)
}

func (b *builder) convert(n *sitter.Node) Node {
	if n == nil || n.IsNull() {
		return nil
	}

	switch n.Type() {
	case "comment", "hash_bang_line":
		return nil

	case "program":
		return b.program(n)

	case "call_expression":
		call := &Call{base: b.base(n), Callee: b.field(n, "function")}
		if args := n.ChildByFieldName("arguments"); args != nil {
			if args.Type() == "arguments" {
				call.Args = b.named(args)
			} else if a := b.convert(args); a != nil {
				// tagged template: fn`...`
				call.Args = []Node{a}
			}
		}
		return call

	case "member_expression":
		m := &Member{base: b.base(n), Object: b.field(n, "object")}
		if p := n.ChildByFieldName("property"); p != nil {
			m.Property = p.Content(b.src)
		}
		return m

	case "subscript_expression":
		m := &Member{base: b.base(n), Object: b.field(n, "object"), Computed: true}
		m.Index = b.field(n, "index")
		switch idx := m.Index.(type) {
		case *String:
			m.Property = idx.Value
		case *Template:
			if s, ok := idx.Static(); ok {
				m.Property = s
			}
		}
		return m

	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "private_property_identifier",
		"this", "super":
		return &Identifier{base: b.base(n), Name: n.Content(b.src)}

	case "string":
		return &String{base: b.base(n), Value: b.stringValue(n)}

	case "number":
		if v, ok := parseNumber(n.Content(b.src)); ok {
			return &Number{base: b.base(n), Value: v}
		}
		return &Raw{base: b.base(n)}

	case "true", "false":
		return &Bool{base: b.base(n), Value: n.Type() == "true"}

	case "null", "undefined":
		return &Null{base: b.base(n)}

	case "template_string":
		return b.template(n)

	case "object", "object_pattern":
		return b.object(n)

	case "pair", "pair_pattern":
		return b.pair(n)

	case "array", "array_pattern":
		return &Array{base: b.base(n), Elems: b.named(n)}

	case "function_declaration", "function_expression", "function",
		"generator_function_declaration", "generator_function",
		"arrow_function", "method_definition":
		return b.function(n)

	case "statement_block":
		return &Block{base: b.base(n), Stmts: b.named(n)}

	case "variable_declarator":
		return &Declarator{base: b.base(n), Target: b.field(n, "name"), Init: b.field(n, "value")}

	case "assignment_expression", "assignment_pattern":
		return &Declarator{base: b.base(n), Target: b.field(n, "left"), Init: b.field(n, "right")}

	case "required_parameter", "optional_parameter":
		// TypeScript wraps the binding pattern with its type annotation.
		if p := b.field(n, "pattern"); p != nil {
			return p
		}

	case "parenthesized_expression", "as_expression", "satisfies_expression",
		"non_null_expression", "type_assertion":
		// Type-only wrappers are transparent to value extraction.
		if n.NamedChildCount() > 0 {
			if inner := n.NamedChild(0); inner != nil && inner.Type() != "type_arguments" {
				return b.convert(inner)
			}
		}
	}

	return &Raw{base: b.base(n), Kids: b.named(n)}
}

func (b *builder) function(n *sitter.Node) *Function {
	fn := &Function{base: b.base(n), Body: b.field(n, "body")}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = name.Content(b.src)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		fn.Params = b.named(params)
	} else if param := b.field(n, "parameter"); param != nil {
		// single unparenthesized arrow parameter: req => ...
		fn.Params = []Node{param}
	}
	return fn
}

func (b *builder) object(n *sitter.Node) *Object {
	obj := &Object{base: b.base(n)}
	for _, c := range b.named(n) {
		switch v := c.(type) {
		case *Property:
			obj.Props = append(obj.Props, v)
		case *Identifier:
			// shorthand { id }
			obj.Props = append(obj.Props, &Property{
				base:      v.base,
				Key:       v.Name,
				Value:     v,
				Shorthand: true,
			})
		case *Declarator:
			// shorthand with default in a pattern: { id = 1 }
			if id, ok := v.Target.(*Identifier); ok {
				obj.Props = append(obj.Props, &Property{
					base:      v.base,
					Key:       id.Name,
					Value:     v,
					Shorthand: true,
				})
				continue
			}
			obj.Rest = append(obj.Rest, v)
		default:
			obj.Rest = append(obj.Rest, c)
		}
	}
	return obj
}

func (b *builder) pair(n *sitter.Node) *Property {
	p := &Property{base: b.base(n), Value: b.field(n, "value")}
	key := n.ChildByFieldName("key")
	if key == nil {
		return p
	}
	switch key.Type() {
	case "string":
		p.Key = b.stringValue(key)
	case "computed_property_name":
		p.Computed = true
		p.Key = key.Content(b.src)
	default:
		p.Key = key.Content(b.src)
	}
	return p
}

func (b *builder) template(n *sitter.Node) *Template {
	t := &Template{base: b.base(n)}

	// Static segments are the byte gaps between substitutions, inside the
	// backticks. Escapes stay raw.
	start := n.StartByte() + 1
	end := n.EndByte() - 1
	cursor := start
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c.Type() != "template_substitution" {
			continue
		}
		t.Quasis = append(t.Quasis, string(b.src[cursor:c.StartByte()]))
		if c.NamedChildCount() > 0 {
			if e := b.convert(c.NamedChild(0)); e != nil {
				t.Exprs = append(t.Exprs, e)
			} else {
				t.Exprs = append(t.Exprs, &Raw{base: b.base(c)})
			}
		} else {
			t.Exprs = append(t.Exprs, &Raw{base: b.base(c)})
		}
		cursor = c.EndByte()
	}
	if end < cursor {
		end = cursor
	}
	t.Quasis = append(t.Quasis, string(b.src[cursor:end]))
	return t
}

func (b *builder) stringValue(n *sitter.Node) string {
	if n.NamedChildCount() == 0 {
		return unquote(n.Content(b.src))
	}
	var sb strings.Builder
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "string_fragment":
			sb.WriteString(c.Content(b.src))
		case "escape_sequence":
			sb.WriteString(decodeEscape(c.Content(b.src)))
		}
	}
	return sb.String()
}

func unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func decodeEscape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		if len(seq) == 2 {
			return "\x00"
		}
	case 'x':
		if v, err := strconv.ParseUint(seq[2:], 16, 8); err == nil {
			return string(rune(v))
		}
	case 'u':
		hex := strings.TrimSuffix(strings.TrimPrefix(seq[2:], "{"), "}")
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(v))
		}
	case '\n', '\r':
		// line continuation
		return ""
	}
	return seq[1:]
}

func parseNumber(text string) (float64, bool) {
	s := strings.ReplaceAll(text, "_", "")
	s = strings.TrimSuffix(s, "n") // BigInt
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			v, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(v), true
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstError locates the first ERROR or MISSING node in a tree.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if e := firstError(n.Child(i)); e != nil {
			return e
		}
	}
	return n
}

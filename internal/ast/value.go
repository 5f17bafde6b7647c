package ast

// Fragment stands in for an expression that has no literal value, such as a
// variable reference or a function call.
type Fragment struct {
	Type   string `json:"type" yaml:"type"`
	Source string `json:"source" yaml:"source"`
}

// FragmentOf wraps n as a Fragment.
func FragmentOf(n Node) Fragment {
	return Fragment{Type: n.Type(), Source: n.Text()}
}

// Value converts a literal node into a plain Go value:
// strings, float64, bool, nil, map[string]any and []any. Templates without
// substitutions become strings. Anything else becomes a Fragment.
func Value(n Node) any {
	switch v := n.(type) {
	case nil:
		return nil
	case *String:
		return v.Value
	case *Number:
		return v.Value
	case *Bool:
		return v.Value
	case *Null:
		return nil
	case *Template:
		if s, ok := v.Static(); ok {
			return s
		}
	case *Object:
		return ObjectValue(v)
	case *Array:
		out := make([]any, 0, len(v.Elems))
		for _, e := range v.Elems {
			out = append(out, Value(e))
		}
		return out
	}
	return FragmentOf(n)
}

// ObjectValue converts an object literal into a map. Computed keys and
// spreads are dropped. Later keys win.
func ObjectValue(o *Object) map[string]any {
	if o == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(o.Props))
	for _, p := range o.Props {
		if p.Computed {
			continue
		}
		out[p.Key] = Value(p.Value)
	}
	return out
}

// StringValue returns the text of a string literal or a static template.
func StringValue(n Node) (string, bool) {
	switch v := n.(type) {
	case *String:
		return v.Value, true
	case *Template:
		return v.Static()
	}
	return "", false
}

// Name returns the identifier name of n, or "".
func Name(n Node) string {
	if id, ok := n.(*Identifier); ok {
		return id.Name
	}
	return ""
}

package parser

import (
	"github.com/PentesterFlow/routescan/internal/ast"
	"github.com/PentesterFlow/routescan/internal/framework"
)

// Client config keys.
const (
	configHeaders = "headers"
	configParams  = "params"
	configData    = "data"
)

// Route option keys, read directly or under "schema".
var (
	optionHeaders = []string{"headers"}
	optionQuery   = []string{"querystring", "query"}
	optionBody    = []string{"body"}
)

// Extractor recovers path, headers, query parameters and body from a
// matched call. Each piece is independent; a missing one leaves the others
// untouched.
type Extractor struct {
	accessors framework.Accessors
}

// NewExtractor creates an extractor using the profile's request accessors.
func NewExtractor(profile *framework.Profile) *Extractor {
	return &Extractor{accessors: profile.Accessors}
}

// Extract dispatches on the match kind.
func (x *Extractor) Extract(call *ast.Call, match Match) Metadata {
	if match.Kind == KindRequest {
		return x.ExtractRequest(call, match.Method)
	}
	return x.ExtractRoute(call)
}

// RoutePath returns the literal first argument of a route registration.
// Templates count only when they have no substitutions; any computed path
// yields "".
func RoutePath(call *ast.Call) string {
	if len(call.Args) == 0 {
		return ""
	}
	path, _ := ast.StringValue(call.Args[0])
	return path
}

// RequestURL returns the URL argument of a client call. Unlike RoutePath,
// templates contribute their static segments.
func RequestURL(call *ast.Call) string {
	if len(call.Args) == 0 {
		return ""
	}
	if tpl, ok := call.Args[0].(*ast.Template); ok {
		return tpl.Joined()
	}
	return RoutePath(call)
}

// ExtractRequest reads an axios-style client call:
// client.get(url, config) or client.post(url, data, config).
func (x *Extractor) ExtractRequest(call *ast.Call, method framework.Method) Metadata {
	md := newMetadata()
	md.Path = RequestURL(call)

	rest := call.Args
	if len(rest) > 0 {
		rest = rest[1:]
	}

	if method.CarriesBody() && len(rest) > 0 {
		obj, isObj := rest[0].(*ast.Object)
		if !isObj || !isClientConfig(obj) {
			md.Body = ast.Value(rest[0])
			rest = rest[1:]
		}
	}

	config := firstConfig(rest)
	if config == nil {
		return md
	}
	if v, ok := config.Get(configHeaders); ok {
		mergeObject(md.Headers, v)
	}
	if v, ok := config.Get(configParams); ok {
		mergeObject(md.QueryParameters, v)
	}
	if v, ok := config.Get(configData); ok {
		md.Body = ast.Value(v)
	}
	return md
}

func isClientConfig(obj *ast.Object) bool {
	for _, key := range []string{configHeaders, configParams, configData} {
		if _, ok := obj.Get(key); ok {
			return true
		}
	}
	return false
}

func firstConfig(args []ast.Node) *ast.Object {
	for _, a := range args {
		if obj, ok := a.(*ast.Object); ok && isClientConfig(obj) {
			return obj
		}
	}
	return nil
}

// ExtractRoute reads a server registration: route options objects first,
// then the handler body. Literal option values win over scanned ones.
func (x *Extractor) ExtractRoute(call *ast.Call) Metadata {
	md := newMetadata()
	md.Path = RoutePath(call)

	if handler := lastFunction(call.Args); handler != nil {
		x.scanHandler(handler, &md)
	}

	if len(call.Args) > 1 {
		for _, a := range call.Args[1:] {
			if obj, ok := a.(*ast.Object); ok {
				applyOptions(obj, &md)
			}
		}
	}
	return md
}

func lastFunction(args []ast.Node) *ast.Function {
	for i := len(args) - 1; i >= 0; i-- {
		if fn, ok := args[i].(*ast.Function); ok {
			return fn
		}
	}
	return nil
}

func applyOptions(obj *ast.Object, md *Metadata) {
	sources := []*ast.Object{obj}
	if schema, ok := obj.Get("schema"); ok {
		if s, ok := schema.(*ast.Object); ok {
			sources = append(sources, s)
		}
	}
	for _, src := range sources {
		if v, ok := getAny(src, optionHeaders); ok {
			mergeObject(md.Headers, v)
		}
		if v, ok := getAny(src, optionQuery); ok {
			mergeObject(md.QueryParameters, v)
		}
		if v, ok := getAny(src, optionBody); ok {
			md.Body = ast.Value(v)
		}
	}
}

func getAny(obj *ast.Object, keys []string) (ast.Node, bool) {
	for _, k := range keys {
		if v, ok := obj.Get(k); ok {
			return v, true
		}
	}
	return nil, false
}

// mergeObject copies the properties of an object literal into dst.
// Non-object values carry no names and are ignored.
func mergeObject(dst map[string]any, v ast.Node) {
	obj, ok := v.(*ast.Object)
	if !ok {
		return
	}
	for k, val := range ast.ObjectValue(obj) {
		dst[k] = val
	}
}

// handlerScan collects request reads inside one handler.
type handlerScan struct {
	acc       framework.Accessors
	req       string
	bodyWhole ast.Node
	body      map[string]any
}

func (x *Extractor) scanHandler(fn *ast.Function, md *Metadata) {
	req := fn.ParamName(0)
	if req == "" || fn.Body == nil {
		return
	}
	s := &handlerScan{acc: x.accessors, req: req, body: make(map[string]any)}

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Function:
			return !s.shadows(v)
		case *ast.Member:
			s.member(v, md)
		case *ast.Call:
			s.call(v, md)
		case *ast.Declarator:
			s.destructure(v, md)
		}
		return true
	})

	switch {
	case len(s.body) > 0:
		md.Body = s.body
	case s.bodyWhole != nil:
		md.Body = ast.FragmentOf(s.bodyWhole)
	}
}

// shadows reports whether a nested function rebinds the request name.
func (s *handlerScan) shadows(fn *ast.Function) bool {
	for i := range fn.Params {
		if fn.ParamName(i) == s.req {
			return true
		}
	}
	return false
}

// isRequest reports whether n is the request object: req, ctx.request, c.req.
func (s *handlerScan) isRequest(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.Identifier:
		return v.Name == s.req
	case *ast.Member:
		return !v.Computed && contains(s.acc.Hops, v.Property) && ast.Name(v.Object) == s.req
	}
	return false
}

// accessor returns the request map a member reads from: req.headers → "headers".
func (s *handlerScan) accessor(n ast.Node) (string, bool) {
	m, ok := n.(*ast.Member)
	if !ok || m.Computed || !s.isRequest(m.Object) {
		return "", false
	}
	return m.Property, true
}

// member handles req.headers.X, req.headers["X"], req.query.X and req.body.X.
func (s *handlerScan) member(m *ast.Member, md *Metadata) {
	if name, ok := s.accessor(m); ok && contains(s.acc.Body, name) && s.bodyWhole == nil {
		s.bodyWhole = m
	}

	name, ok := s.accessor(m.Object)
	if !ok || m.Property == "" {
		return
	}
	frag := ast.FragmentOf(m)
	switch {
	case contains(s.acc.Headers, name):
		setIfAbsent(md.Headers, m.Property, frag)
	case contains(s.acc.Query, name):
		setIfAbsent(md.QueryParameters, m.Property, frag)
	case contains(s.acc.Body, name):
		setIfAbsent(s.body, m.Property, frag)
	}
}

// call handles req.get("X"), req.header("X"), c.req.query("x").
func (s *handlerScan) call(c *ast.Call, md *Metadata) {
	callee, ok := c.Callee.(*ast.Member)
	if !ok || callee.Computed || !s.isRequest(callee.Object) || len(c.Args) == 0 {
		return
	}
	key, ok := ast.StringValue(c.Args[0])
	if !ok || key == "" {
		return
	}
	frag := ast.FragmentOf(c)
	switch {
	case contains(s.acc.HeaderGetters, callee.Property):
		setIfAbsent(md.Headers, key, frag)
	case contains(s.acc.Query, callee.Property):
		setIfAbsent(md.QueryParameters, key, frag)
	}
}

// destructure handles const { a, b } = req.body and friends.
func (s *handlerScan) destructure(d *ast.Declarator, md *Metadata) {
	pattern, ok := d.Target.(*ast.Object)
	if !ok || d.Init == nil {
		return
	}
	name, ok := s.accessor(d.Init)
	if !ok {
		return
	}

	var dst map[string]any
	switch {
	case contains(s.acc.Headers, name):
		dst = md.Headers
	case contains(s.acc.Query, name):
		dst = md.QueryParameters
	case contains(s.acc.Body, name):
		dst = s.body
	default:
		return
	}
	for _, p := range pattern.Props {
		if p.Computed || p.Key == "" {
			continue
		}
		setIfAbsent(dst, p.Key, ast.Fragment{
			Type:   d.Init.Type(),
			Source: d.Init.Text() + "." + p.Key,
		})
	}
}

func setIfAbsent(m map[string]any, key string, v any) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Package framework provides routing and client conventions for the supported
// JavaScript and TypeScript HTTP frameworks.
package framework

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Type identifies a framework profile.
type Type string

const (
	TypeExpress Type = "express"
	TypeKoa     Type = "koa"
	TypeFastify Type = "fastify"
	TypeHono    Type = "hono"
	TypeRestify Type = "restify"
	TypeHapi    Type = "hapi"
	TypeAxios   Type = "axios" // client-only
)

// Method is an HTTP verb.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// String returns the verb.
func (m Method) String() string { return string(m) }

// CarriesBody reports whether a client call with this verb takes the request
// body as its second argument.
func (m Method) CarriesBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

// Accessors names the request-object members a handler reads metadata from.
type Accessors struct {
	// Hops lead from the handler parameter to the request object (ctx.request, c.req).
	Hops []string
	// Headers are header maps: req.headers.X.
	Headers []string
	// HeaderGetters are header lookup calls: req.get("X").
	HeaderGetters []string
	// Query are query maps: req.query.X. Called as a function they are lookups.
	Query []string
	// Body are parsed-body maps: req.body.X.
	Body []string
}

// DefaultAccessors returns the accessor conventions shared by the built-in
// profiles.
func DefaultAccessors() Accessors {
	return Accessors{
		Hops:          []string{"request", "req"},
		Headers:       []string{"headers"},
		HeaderGetters: []string{"get", "header"},
		Query:         []string{"query"},
		Body:          []string{"body"},
	}
}

// Profile is the verb-name convention table for one framework.
type Profile struct {
	Name        Type
	Description string
	// Routes maps server registration members to verbs: router.get(...).
	Routes map[string]Method
	// Requests maps client call members to verbs: axios.get(...).
	Requests map[string]Method
	// Clients are library identifiers matched in addition to the object instance.
	Clients   []string
	Accessors Accessors
}

// RouteMethod returns the verb for a server registration member.
func (p *Profile) RouteMethod(member string) (Method, bool) {
	m, ok := p.Routes[member]
	return m, ok
}

// RequestMethod returns the verb for a client call member.
func (p *Profile) RequestMethod(member string) (Method, bool) {
	m, ok := p.Requests[member]
	return m, ok
}

// IsClient reports whether name is a configured client library identifier.
func (p *Profile) IsClient(name string) bool {
	for _, c := range p.Clients {
		if c == name {
			return true
		}
	}
	return false
}

// ServesRoutes reports whether the profile registers server routes.
func (p *Profile) ServesRoutes() bool {
	return len(p.Routes) > 0
}

// Verbs returns the sorted route and request member names.
func (p *Profile) Verbs() []string {
	seen := make(map[string]bool)
	for k := range p.Routes {
		seen[k] = true
	}
	for k := range p.Requests {
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Routes = copyTable(p.Routes)
	c.Requests = copyTable(p.Requests)
	c.Clients = append([]string(nil), p.Clients...)
	a := p.Accessors
	c.Accessors = Accessors{
		Hops:          append([]string(nil), a.Hops...),
		Headers:       append([]string(nil), a.Headers...),
		HeaderGetters: append([]string(nil), a.HeaderGetters...),
		Query:         append([]string(nil), a.Query...),
		Body:          append([]string(nil), a.Body...),
	}
	return &c
}

// WithClients returns a copy of the profile with its client identifiers
// replaced. An empty list keeps the current ones.
func (p *Profile) WithClients(clients ...string) *Profile {
	c := p.Clone()
	if len(clients) == 0 {
		return c
	}
	c.Clients = c.Clients[:0]
	for _, name := range clients {
		if name = strings.TrimSpace(name); name != "" {
			c.Clients = append(c.Clients, name)
		}
	}
	return c
}

func copyTable(t map[string]Method) map[string]Method {
	out := make(map[string]Method, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Registry holds the known profiles.
type Registry struct {
	mu       sync.RWMutex
	profiles map[Type]*Profile
}

// NewRegistry creates a registry with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[Type]*Profile)}
	for _, p := range builtins() {
		r.profiles[p.Name] = p
	}
	return r
}

// Register adds or replaces a profile.
func (r *Registry) Register(p *Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
}

// Get returns a copy of the named profile. Names are case-insensitive.
func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[Type(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("unknown framework profile %q (known: %s)", name, strings.Join(r.names(), ", "))
	}
	return p.Clone(), nil
}

// Names returns the sorted profile names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	out := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		out = append(out, string(name))
	}
	sort.Strings(out)
	return out
}

var defaultRegistry = NewRegistry()

// Lookup returns a copy of a built-in or registered profile.
func Lookup(name string) (*Profile, error) {
	return defaultRegistry.Get(name)
}

// Names returns the names of the default registry's profiles.
func Names() []string {
	return defaultRegistry.Names()
}

// Register adds a profile to the default registry.
func Register(p *Profile) {
	defaultRegistry.Register(p)
}

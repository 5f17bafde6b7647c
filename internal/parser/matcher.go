package parser

import (
	"github.com/PentesterFlow/routescan/internal/ast"
	"github.com/PentesterFlow/routescan/internal/framework"
)

// Matcher decides whether a call expression is a route registration or a
// client request under a framework profile.
type Matcher struct {
	profile  *framework.Profile
	instance string
	requests bool
}

// NewMatcher creates a matcher for calls on instance. When requests is true
// the client-request pattern is tried after the server-route pattern.
func NewMatcher(profile *framework.Profile, instance string, requests bool) *Matcher {
	return &Matcher{profile: profile, instance: instance, requests: requests}
}

// Match reports whether call matches. Only the callee shape is inspected;
// arguments never affect the outcome. A call matches at most one pattern.
func (m *Matcher) Match(call *ast.Call) (Match, bool) {
	member, ok := call.Callee.(*ast.Member)
	if !ok || member.Computed {
		return Match{}, false
	}
	target := ast.Name(member.Object)
	if target == "" {
		return Match{}, false
	}

	if target == m.instance {
		if method, ok := m.profile.RouteMethod(member.Property); ok {
			return Match{Kind: KindRoute, Method: method, Member: member.Property}, true
		}
	}

	if !m.requests {
		return Match{}, false
	}
	if target == m.instance || m.profile.IsClient(target) {
		if method, ok := m.profile.RequestMethod(member.Property); ok {
			return Match{Kind: KindRequest, Method: method, Member: member.Property}, true
		}
	}
	return Match{}, false
}

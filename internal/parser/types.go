package parser

import (
	"github.com/PentesterFlow/routescan/internal/framework"
)

// Kind distinguishes server route registrations from client requests.
type Kind string

const (
	KindRoute   Kind = "route"
	KindRequest Kind = "request"
)

// Endpoint is one discovered API route or request.
type Endpoint struct {
	Method          framework.Method `json:"method" yaml:"method"`
	Path            string           `json:"path" yaml:"path"`
	Headers         map[string]any   `json:"headers" yaml:"headers"`
	QueryParameters map[string]any   `json:"queryParameters" yaml:"queryParameters"`
	Body            any              `json:"body" yaml:"body"`
	SourceFile      string           `json:"sourceFile" yaml:"sourceFile"`
	ResourceName    string           `json:"resourceName" yaml:"resourceName"`
	Line            int              `json:"line" yaml:"line"`
	Kind            Kind             `json:"kind" yaml:"kind"`
}

// Key identifies the route an endpoint describes, ignoring where it was found.
func (e Endpoint) Key() string {
	return string(e.Method) + " " + e.Path
}

// Match is a call that satisfied a route or request pattern.
type Match struct {
	Kind   Kind
	Method framework.Method
	Member string
}

// Metadata is what the extractor recovers from a matched call.
type Metadata struct {
	Path            string
	Headers         map[string]any
	QueryParameters map[string]any
	Body            any
}

func newMetadata() Metadata {
	return Metadata{
		Headers:         make(map[string]any),
		QueryParameters: make(map[string]any),
	}
}

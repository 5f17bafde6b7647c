package framework

import (
	"reflect"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		want    Type
		wantErr bool
	}{
		{"express", TypeExpress, false},
		{"Koa", TypeKoa, false},
		{" fastify ", TypeFastify, false},
		{"hono", TypeHono, false},
		{"restify", TypeRestify, false},
		{"hapi", TypeHapi, false},
		{"axios", TypeAxios, false},
		{"rails", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Lookup(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && p.Name != tt.want {
				t.Errorf("Name = %v, want %v", p.Name, tt.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	want := []string{"axios", "express", "fastify", "hapi", "hono", "koa", "restify"}
	if got := NewRegistry().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestProfile_RouteMethod(t *testing.T) {
	tests := []struct {
		profile Type
		member  string
		want    Method
		ok      bool
	}{
		{TypeExpress, "get", MethodGet, true},
		{TypeExpress, "delete", MethodDelete, true},
		{TypeExpress, "del", "", false},
		{TypeExpress, "use", "", false},
		{TypeKoa, "del", MethodDelete, true},
		{TypeRestify, "opts", MethodOptions, true},
		{TypeRestify, "patch", MethodPatch, true},
		{TypeAxios, "get", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile)+"."+tt.member, func(t *testing.T) {
			p, err := Lookup(string(tt.profile))
			if err != nil {
				t.Fatal(err)
			}
			got, ok := p.RouteMethod(tt.member)
			if ok != tt.ok || got != tt.want {
				t.Errorf("RouteMethod(%q) = %v, %v; want %v, %v", tt.member, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestProfile_RequestMethod(t *testing.T) {
	p, _ := Lookup("axios")

	if m, ok := p.RequestMethod("post"); !ok || m != MethodPost {
		t.Errorf("RequestMethod(post) = %v, %v", m, ok)
	}
	if _, ok := p.RequestMethod("interceptors"); ok {
		t.Error("RequestMethod(interceptors) should not match")
	}
	if p.ServesRoutes() {
		t.Error("axios profile should not serve routes")
	}
}

func TestProfile_Clients(t *testing.T) {
	p, _ := Lookup("express")

	if !p.IsClient("axios") {
		t.Error("axios should be a default client")
	}
	if p.IsClient("fetch") {
		t.Error("fetch should not be a default client")
	}

	custom := p.WithClients("api", " http ", "")
	if !reflect.DeepEqual(custom.Clients, []string{"api", "http"}) {
		t.Errorf("Clients = %v", custom.Clients)
	}
	if !p.IsClient("axios") {
		t.Error("WithClients should not modify the original")
	}
	if kept := p.WithClients(); !kept.IsClient("axios") {
		t.Error("WithClients() with no names should keep the current clients")
	}
}

func TestProfile_HapiPayload(t *testing.T) {
	p, err := Lookup("hapi")
	if err != nil {
		t.Fatalf("Lookup(hapi) error = %v", err)
	}
	if !reflect.DeepEqual(p.Accessors.Body, []string{"payload"}) {
		t.Errorf("Body accessors = %v, want [payload]", p.Accessors.Body)
	}
	if !reflect.DeepEqual(p.Accessors.Headers, DefaultAccessors().Headers) {
		t.Errorf("Header accessors = %v", p.Accessors.Headers)
	}
	if !p.ServesRoutes() {
		t.Error("hapi should serve routes")
	}
}

func TestProfile_CloneIsolation(t *testing.T) {
	a, _ := Lookup("express")
	a.Routes["get"] = MethodPost
	a.Accessors.Body[0] = "payload"

	b, _ := Lookup("express")
	if b.Routes["get"] != MethodGet {
		t.Error("Lookup should return an isolated copy of the route table")
	}
	if b.Accessors.Body[0] != "body" {
		t.Error("Lookup should return an isolated copy of the accessors")
	}
}

func TestProfile_Verbs(t *testing.T) {
	p, _ := Lookup("koa")
	verbs := p.Verbs()

	want := map[string]bool{"get": true, "del": true, "options": true}
	for _, v := range verbs {
		delete(want, v)
	}
	if len(want) != 0 {
		t.Errorf("Verbs() = %v, missing %v", verbs, want)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(&Profile{
		Name:      "nest",
		Routes:    map[string]Method{"Get": MethodGet},
		Accessors: DefaultAccessors(),
	})

	p, err := r.Get("nest")
	if err != nil {
		t.Fatalf("Get(nest) error = %v", err)
	}
	if m, ok := p.RouteMethod("Get"); !ok || m != MethodGet {
		t.Errorf("RouteMethod(Get) = %v, %v", m, ok)
	}
}

func TestMethod_CarriesBody(t *testing.T) {
	tests := []struct {
		m    Method
		want bool
	}{
		{MethodGet, false},
		{MethodPost, true},
		{MethodPut, true},
		{MethodPatch, true},
		{MethodDelete, false},
		{MethodHead, false},
	}

	for _, tt := range tests {
		if got := tt.m.CarriesBody(); got != tt.want {
			t.Errorf("%v.CarriesBody() = %v, want %v", tt.m, got, tt.want)
		}
	}
}

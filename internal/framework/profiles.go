package framework

// DefaultClients are the HTTP client libraries recognized by default.
var DefaultClients = []string{"axios"}

func standardVerbs() map[string]Method {
	return map[string]Method{
		"get":     MethodGet,
		"post":    MethodPost,
		"put":     MethodPut,
		"delete":  MethodDelete,
		"patch":   MethodPatch,
		"head":    MethodHead,
		"options": MethodOptions,
	}
}

func withAliases(base map[string]Method, aliases map[string]Method) map[string]Method {
	for k, v := range aliases {
		base[k] = v
	}
	return base
}

func builtins() []*Profile {
	return []*Profile{
		{
			Name:        TypeExpress,
			Description: "Express routers and apps: router.get(path, ...handlers)",
			Routes:      standardVerbs(),
			Requests:    standardVerbs(),
			Clients:     append([]string(nil), DefaultClients...),
			Accessors:   DefaultAccessors(),
		},
		{
			Name:        TypeKoa,
			Description: "koa-router: router.get(path, ctx => ...), with router.del",
			Routes:      withAliases(standardVerbs(), map[string]Method{"del": MethodDelete}),
			Requests:    standardVerbs(),
			Clients:     append([]string(nil), DefaultClients...),
			Accessors:   DefaultAccessors(),
		},
		{
			Name:        TypeFastify,
			Description: "Fastify shorthand routes: fastify.get(path, [opts], handler)",
			Routes:      standardVerbs(),
			Requests:    standardVerbs(),
			Clients:     append([]string(nil), DefaultClients...),
			Accessors:   DefaultAccessors(),
		},
		{
			Name:        TypeHono,
			Description: "Hono apps: app.get(path, c => ...) reading c.req",
			Routes:      standardVerbs(),
			Requests:    standardVerbs(),
			Clients:     append([]string(nil), DefaultClients...),
			Accessors:   DefaultAccessors(),
		},
		{
			Name:        TypeRestify,
			Description: "Restify servers: server.get(path, ...), with server.del and server.opts",
			Routes: withAliases(standardVerbs(), map[string]Method{
				"del":  MethodDelete,
				"opts": MethodOptions,
			}),
			Requests:  standardVerbs(),
			Clients:   append([]string(nil), DefaultClients...),
			Accessors: DefaultAccessors(),
		},
		{
			Name:        TypeHapi,
			Description: "hapi-style handlers: (request, h) => ... reading request.payload",
			Routes:      standardVerbs(),
			Requests:    standardVerbs(),
			Clients:     append([]string(nil), DefaultClients...),
			Accessors:   hapiAccessors(),
		},
		{
			Name:        TypeAxios,
			Description: "Client calls only: axios.get(url, config), instance.post(url, data, config)",
			Routes:      map[string]Method{},
			Requests:    standardVerbs(),
			Clients:     append([]string(nil), DefaultClients...),
			Accessors:   DefaultAccessors(),
		},
	}
}

// hapiAccessors reads the parsed body from request.payload.
func hapiAccessors() Accessors {
	a := DefaultAccessors()
	a.Body = []string{"payload"}
	return a
}

// Package module wires the photo identification endpoint into the API
package module

import (
	"net/http"

	modkit "platewise/internal/modkit"
	"platewise/internal/modkit/httpkit"
	"platewise/internal/platform/ratelimit"
	str "platewise/internal/platform/strings"

	photohttp "platewise/internal/services/api/photo/http"
)

// Ports carries the photo pipeline into the module
type Ports struct {
	Pipeline photohttp.Pipeline
}

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	name      string
	prefix    string
	mws       []func(http.Handler) http.Handler
	ports     Ports
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs a photo module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("photo"),
		modkit.WithPrefix("/photo"),
		modkit.WithMiddlewares(httpkit.RateLimit(deps.Limiter, ratelimit.ClassPhoto)),
	}, opts...)...)

	p, ok := b.Ports.(Ports)
	if !ok || p.Pipeline == nil {
		panic("photo module requires a Pipeline port")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		ports:     p,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		photohttp.Register(r, photohttp.Deps{Pipeline: p.Pipeline})
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "photo") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares implements the modkit.Module interface
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return m.ports }

// Package module wires the database passthrough search into the API
package module

import (
	"net/http"

	modkit "platewise/internal/modkit"
	"platewise/internal/modkit/httpkit"
	"platewise/internal/platform/ratelimit"
	str "platewise/internal/platform/strings"

	lookuphttp "platewise/internal/services/api/lookup/http"
)

// Ports carries the database client into the module
type Ports struct {
	DB lookuphttp.Searcher
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

// New constructs a lookup module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("lookup"),
		modkit.WithPrefix("/lookup"),
		modkit.WithMiddlewares(httpkit.RateLimit(deps.Limiter, ratelimit.ClassText)),
	}, opts...)...)

	p, ok := b.Ports.(Ports)
	if !ok || p.DB == nil {
		panic("lookup module requires a DB port")
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
		lookuphttp.Register(r, lookuphttp.Deps{DB: p.DB})
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
func (m *Module) Name() string { return str.MustString(m.name, "lookup") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares implements the modkit.Module interface
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return m.ports }

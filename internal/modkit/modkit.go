package modkit

import (
	phttp "platewise/internal/platform/net/http"
)

// Module is what every API module exposes: routes to mount and ports for
// cross-module wiring. Kept tiny so modules stay decoupled
type Module interface {
	// MountRoutes attaches HTTP routes to the router seam
	MountRoutes(r phttp.Router)
	// Ports returns the module's port bundle for cross wiring
	Ports() any

	// Name returns the module name
	Name() string
}

// Builder builds a Module from shared deps and options; modules expose
// New(deps Deps, opts ...Option) Module in this shape
type Builder func(Deps, ...Option) Module

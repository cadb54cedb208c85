// Package api provides the HTTP API for the application
package api

import (
	"platewise/internal/platform/cache"
	"platewise/internal/platform/config"
	phttp "platewise/internal/platform/net/http"
	"platewise/internal/platform/ratelimit"

	"platewise/internal/modkit"
	"platewise/internal/modkit/httpkit"
	"platewise/internal/modkit/module"
	"platewise/internal/modkit/swaggerkit"

	"platewise/internal/adapters/upstream/fdc"
	"platewise/internal/adapters/upstream/genai"
	"platewise/internal/core/realism"
	"platewise/internal/services/photo"
	"platewise/internal/services/resolve"

	estimatemod "platewise/internal/services/api/estimate/module"
	lookupmod "platewise/internal/services/api/lookup/module"
	metamod "platewise/internal/services/api/meta/module"
	photomod "platewise/internal/services/api/photo/module"
)

// Options are the API options
type Options struct {
	Config    config.Conf
	DB        *fdc.Client
	Estimator *genai.Client
	Cache     cache.Store
	Limiter   *ratelimit.Limiter
	Limits    realism.Limits

	CORSOrigins    []string
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:     opt.Config,
		Cache:   opt.Cache,
		Limiter: opt.Limiter,
	}

	// core services shared across modules
	resolver := resolve.New(opt.DB, opt.Estimator, opt.Cache, opt.Limits)
	pipeline := photo.New(opt.Estimator, resolver, opt.Limits)

	mods := []module.Module{
		metamod.New(deps, modkit.WithPorts(metamod.Ports{
			DB:        opt.DB,
			Estimator: opt.Estimator,
		})),
		estimatemod.New(deps, modkit.WithPorts(estimatemod.Ports{
			Resolver: resolver,
		})),
		photomod.New(deps, modkit.WithPorts(photomod.Ports{
			Pipeline: pipeline,
		})),
		lookupmod.New(deps, modkit.WithPorts(lookupmod.Ports{
			DB: opt.DB,
		})),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.CORSOrigins...), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}

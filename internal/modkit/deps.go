// Package modkit provides module wiring and core deps
package modkit

import (
	"platewise/internal/platform/cache"
	"platewise/internal/platform/config"
	"platewise/internal/platform/logger"
	"platewise/internal/platform/ratelimit"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	Cache   cache.Store
	Limiter *ratelimit.Limiter
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional collaborators
func (d Deps) ZeroOK() bool { return true }

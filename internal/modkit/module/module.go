// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "platewise/internal/platform/net/http"
)

// Module mirrors the modkit contract; it lives here so a module exporting
// its own ports type avoids an import knot
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

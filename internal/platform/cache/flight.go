package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Flight coalesces concurrent identical resolutions so only one upstream
// cascade runs per normalized key. The flight entry is removed when the shared
// call settles, success or failure, no matter how many callers awaited it
type Flight struct {
	g singleflight.Group
}

// NewFlight returns an empty coalescing group
func NewFlight() *Flight { return &Flight{} }

// Do runs fn once per key across concurrent callers and hands every caller the
// same result. shared reports whether the result was produced by another
// caller's invocation
func (f *Flight) Do(ctx context.Context, key string, fn func() (any, error)) (v any, shared bool, err error) {
	ch := f.g.DoChan(key, func() (any, error) {
		defer f.g.Forget(key)
		return fn()
	})
	select {
	case <-ctx.Done():
		// the flight keeps running for other waiters; this caller abandons it.
		// Forget so a fresh request after cancellation starts a new flight
		f.g.Forget(key)
		return nil, false, ctx.Err()
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	}
}

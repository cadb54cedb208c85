package module

import "sync"

// process-global registry used while main wires modules together;
// guarded for concurrent use so tests can share it
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores a port bundle under a module name
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs looks up name and asserts the bundle to T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// Reset empties the registry between tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}

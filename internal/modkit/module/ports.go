package module

import "reflect"

// PortSet marks a module-defined port bundle; modules declare their own
// concrete interface types and hand them back from Ports
type PortSet = any

// PortsOf extracts an interface T from a module's Ports() bundle, checking
// the bundle itself first and then its exported struct fields
func PortsOf[T any](m Module) (t T, ok bool) {
	p := m.Ports()
	if p == nil {
		return t, false
	}
	// the bundle may implement T directly
	if v, ok2 := p.(T); ok2 {
		return v, true
	}
	rv := reflect.ValueOf(p)
	rt := rv.Type()
	// otherwise scan exported struct fields
	if rt.Kind() == reflect.Struct {
		for i := 0; i < rt.NumField(); i++ {
			f := rv.Field(i)
			if !f.CanInterface() {
				continue
			}
			if v, ok2 := f.Interface().(T); ok2 {
				return v, true
			}
		}
	}
	return t, false
}

// MustPortsOf is PortsOf for wiring paths where absence is a bug
func MustPortsOf[T any](m Module) T {
	if v, ok := PortsOf[T](m); ok {
		return v
	}
	panic("module: requested port not found on module " + m.Name())
}

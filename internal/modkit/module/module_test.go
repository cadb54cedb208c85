package module

import (
	"testing"

	phttp "platewise/internal/platform/net/http"
)

// recordingModule is a minimal test double that satisfies Module
// it records when MountRoutes is called and returns a configurable ports value
type recordingModule struct {
	mounted *bool
	ports   any
}

// MountRoutes marks that it was invoked
func (s *recordingModule) MountRoutes(_ phttp.Router) {
	if s.mounted != nil {
		*s.mounted = true
	}
}

// Ports returns the configured ports value
func (s *recordingModule) Ports() any   { return s.ports }
func (s *recordingModule) Name() string { return "" }

// compile time assertion that recordingModule implements Module
var _ Module = (*recordingModule)(nil)

// TestModule_MountRoutes verifies that MountRoutes can be called and is observable
func TestModule_MountRoutes(t *testing.T) {
	called := false
	m := &recordingModule{mounted: &called}

	// allow a nil typed router since the contract does not require usage
	var r phttp.Router = nil
	m.MountRoutes(r)

	if !called {
		t.Fatalf("expected MountRoutes to set called but it did not")
	}
}

// TestModule_Ports verifies that Ports can return arbitrary values including nil
func TestModule_Ports(t *testing.T) {
	type estimatorPorts struct {
		Model   string
		Retries int
	}

	cases := []struct {
		name    string
		portsIn any
		check   func(t *testing.T, v any)
	}{
		{
			name:    "nil ports",
			portsIn: nil,
			check: func(t *testing.T, v any) {
				if v != nil {
					t.Fatalf("expected nil ports got %T", v)
				}
			},
		},
		{
			name:    "primitive ports",
			portsIn: "cascade",
			check: func(t *testing.T, v any) {
				s, ok := v.(string)
				if !ok || s != "cascade" {
					t.Fatalf("expected string cascade got %v", v)
				}
			},
		},
		{
			name:    "struct ports",
			portsIn: estimatorPorts{Model: "gemini-2.0-flash", Retries: 1},
			check: func(t *testing.T, v any) {
				ps, ok := v.(estimatorPorts)
				if !ok {
					t.Fatalf("expected estimatorPorts got %T", v)
				}
				if ps.Model != "gemini-2.0-flash" || ps.Retries != 1 {
					t.Fatalf("unexpected estimatorPorts contents %+v", ps)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &recordingModule{ports: tc.portsIn}
			tc.check(t, m.Ports())
		})
	}
}

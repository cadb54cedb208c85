// Package raw reads environment variables during bootstrap. It must stay
// free of the logger package so logging can configure itself through it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a namespaced view over environment variables (e.g., "API_", "LOG_")
type Conf struct{ prefix string }

// New returns an unprefixed root Conf
func New() Conf { return Conf{} }

// Prefix narrows the view by appending a prefix (e.g. "LOG_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// key builds the full env var name
func (c Conf) key(k string) string { return c.prefix + k }

// Get returns the trimmed env value, or def when unset or blank
func (c Conf) Get(key, def string) string {
	v := strings.TrimSpace(os.Getenv(c.key(key)))
	if v == "" {
		return def
	}
	return v
}

// GetBool accepts "1", "true", or "yes" as true; anything else is false,
// and unset falls back to def
func (c Conf) GetBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(c.key(key))))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

// GetInt parses a non-negative integer; non-numeric or negative values
// fall back to def
func (c Conf) GetInt(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(c.key(key)))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

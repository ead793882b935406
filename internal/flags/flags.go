// Package flags holds the reader's feature flags. Flags are read-only after
// initialization and unknown flags are off.
package flags

import (
	"maps"

	"github.com/zjrosen/peruse/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagPrefetch makes the viewer walk the next page in the background
	// after each page move so the row cache is warm when the reader gets there.
	FlagPrefetch = "prefetch"

	// FlagTraceCursors wraps the top-level row cursor in cursor.Traced and
	// exports a span per navigation call.
	FlagTraceCursors = "trace-cursors"

	// FlagLogCursors logs each call the row cache makes to the layout
	// layer. Lines are written at debug level, so it needs --debug.
	FlagLogCursors = "log-cursors"

	// FlagWatch reloads the open book when its file changes on disk.
	FlagWatch = "watch"
)

// Defaults returns the flag values used when the config names none.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagPrefetch:     true,
		FlagTraceCursors: false,
		FlagLogCursors:   false,
		FlagWatch:        true,
	}
}

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags (safe default).
// Returns false when called on nil registry (nil-safe).
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}

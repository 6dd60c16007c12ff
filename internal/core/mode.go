// Package core is the orchestration layer.  It composes transports,
// line connections and capabilities into complete operational modes
// and provides a builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  line  →  session  →  capability  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete operational mode of linewire (connect or listen).
// Each mode owns its full lifecycle from connection establishment to
// teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// Package capability defines what happens over an established line
// connection.  Each Capability is a single behaviour (relay lines to
// and from local I/O, echo lines back) and operates on a Session
// rather than a raw Connection, which keeps it testable.
package capability

import (
	"context"

	"linewire/internal/session"
)

// Capability handles a single connection.
type Capability interface {
	// Handle runs the capability against sess.  It blocks until the
	// conversation is over or ctx is cancelled, and leaves the
	// connection disconnected when it returns.
	Handle(ctx context.Context, sess *session.Session) error
}

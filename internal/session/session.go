// Package session binds one line connection to the local I/O endpoints
// a capability works against.
//
// A capability never touches os.Stdin or os.Stdout directly; it reads
// and writes through the session, so tests can swap in buffers.
package session

import (
	"io"

	"linewire/internal/line"
	"linewire/util"
)

// Session is the runtime context for a single connection.
type Session struct {
	Conn   *line.Connection
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger
}

// New creates a Session.  A nil logger is replaced with a quiet one.
func New(conn *line.Connection, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Session{
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
	}
}

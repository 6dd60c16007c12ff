package capability

import (
	"context"
	"io"

	"linewire/internal/session"
)

// Echo sends every received line straight back to the peer.
type Echo struct{}

// Handle echoes until the peer closes or ctx is cancelled.
func (e *Echo) Handle(ctx context.Context, sess *session.Session) error {
	conn := sess.Conn
	defer conn.Disconnect() //nolint:errcheck

	stop := context.AfterFunc(ctx, func() { conn.Disconnect() }) //nolint:errcheck
	defer stop()

	for {
		msg, err := conn.ReadLine()
		if err == io.EOF {
			sess.Logger.Verbose("peer closed the connection")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		sess.Logger.Debug("echo %q", msg)
		if err := conn.Send(msg); err != nil {
			return err
		}
	}
}

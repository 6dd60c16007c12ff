package capability

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	lwerr "linewire/internal/errors"
	"linewire/internal/line"
	"linewire/internal/session"
)

// Relay sends every line read from the session's stdin and prints
// every line received from the peer, the default interactive / pipe mode.
//
// It finishes when the peer closes the connection.  Once stdin is
// exhausted no more lines are sent; with Linger > 0 the relay then
// waits at most that long for the peer before disconnecting.
type Relay struct {
	Linger time.Duration
}

// Handle runs the relay until the peer hangs up, the linger period
// after stdin EOF expires, or ctx is cancelled.
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	conn := sess.Conn
	defer conn.Disconnect() //nolint:errcheck

	inbound := make(chan error, 1)
	go func() { inbound <- receive(conn, sess.Stdout) }()

	// The stdin goroutine may stay blocked on a terminal after we
	// return; it exits on the next read.
	outbound := make(chan error, 1)
	go func() { outbound <- transmit(conn, sess.Stdin) }()

	var linger <-chan time.Time
	for {
		select {
		case err := <-inbound:
			if err == nil {
				sess.Logger.Verbose("peer closed the connection")
			}
			return err

		case err := <-outbound:
			outbound = nil
			if err != nil {
				conn.Disconnect() //nolint:errcheck
				<-inbound
				if errors.Is(err, lwerr.ErrNotConnected) {
					return nil // peer went away between lines
				}
				return err
			}
			sess.Logger.Verbose("stdin closed")
			if r.Linger > 0 {
				t := time.NewTimer(r.Linger)
				defer t.Stop()
				linger = t.C
			}

		case <-linger:
			sess.Logger.Verbose("no close from peer after %s, disconnecting", r.Linger)
			conn.Disconnect() //nolint:errcheck
			<-inbound
			return nil

		case <-ctx.Done():
			conn.Disconnect() //nolint:errcheck
			<-inbound
			return nil
		}
	}
}

// receive prints lines from conn to w until the peer closes.
func receive(conn *line.Connection, w io.Writer) error {
	for {
		msg, err := conn.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, msg+"\n"); err != nil {
			return err
		}
	}
}

// transmit sends every line of r.  A final line without "\n" is sent too.
func transmit(conn *line.Connection, r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			if serr := conn.Send(strings.TrimSuffix(raw, "\n")); serr != nil {
				return serr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

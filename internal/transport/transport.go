// Package transport provides the byte-stream sockets that line
// connections run over.  A Socket is the connect/read/write/close
// primitive; a Dialer decides how the stream is reached: plain TCP,
// forwarded through an SSH gateway, or carried in WebSocket frames.
package transport

import (
	"context"
	"io"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// Socket is a reliable bidirectional byte stream that can be connected
// once and closed.
type Socket interface {
	// Connect opens the stream to host:port.  Errors from name
	// resolution, refusal or unreachability are returned as reported
	// by the dialer, wrapped in a *errors.NetworkError.
	Connect(ctx context.Context, host string, port int) error

	// IsConnected reports whether the stream is currently open.  It
	// turns false after Close and after a read or write observes the
	// peer hanging up.
	IsConnected() bool

	// Reader is the inbound byte stream.
	Reader() io.Reader

	// Writer is the outbound byte stream.
	Writer() io.Writer

	// RemoteAddr names the peer for diagnostics ("" when unconnected).
	RemoteAddr() string

	// Close closes the stream.  It is safe to call more than once.
	Close() error
}

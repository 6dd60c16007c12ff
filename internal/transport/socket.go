package transport

import (
	"context"
	"io"
	"net"
	"sync"

	lwerr "linewire/internal/errors"
	"linewire/util"
)

// StreamSocket implements [Socket] on top of a net.Conn obtained from a
// Dialer, or handed over already connected via [WrapConn].
type StreamSocket struct {
	dialer Dialer

	mu   sync.RWMutex
	conn net.Conn
	open bool
}

// NewStreamSocket returns an unconnected socket that will reach its peer
// through d.  A nil dialer means plain TCP.
func NewStreamSocket(d Dialer) *StreamSocket {
	if d == nil {
		d = &TCPDialer{}
	}
	return &StreamSocket{dialer: d}
}

// WrapConn returns a socket that is already connected over conn, e.g. a
// connection returned by net.Listener.Accept.
func WrapConn(conn net.Conn) *StreamSocket {
	s := NewStreamSocket(nil)
	s.conn = conn
	s.open = conn != nil
	return s
}

// Connect dials host:port.  Calling it on an open socket returns
// ErrAlreadyConnected and leaves the existing stream in place.
func (s *StreamSocket) Connect(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return lwerr.ErrAlreadyConnected
	}

	addr := util.FormatAddr(host, port)
	conn, err := s.dialer.Dial(ctx, "tcp", addr)
	if err != nil {
		return lwerr.Wrap("dial", addr, err)
	}

	if s.conn != nil {
		s.conn.Close() // stale stream left behind by a peer hang-up
	}
	s.conn = conn
	s.open = true
	return nil
}

// IsConnected reports whether the stream is open.
func (s *StreamSocket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Reader returns the inbound byte stream.
func (s *StreamSocket) Reader() io.Reader { return socketReader{s} }

// Writer returns the outbound byte stream.
func (s *StreamSocket) Writer() io.Writer { return socketWriter{s} }

// RemoteAddr returns the peer address, or "" when unconnected.
func (s *StreamSocket) RemoteAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil || s.conn.RemoteAddr() == nil {
		return ""
	}
	return s.conn.RemoteAddr().String()
}

// Close closes the underlying connection.  Repeated calls return nil.
func (s *StreamSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = false
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if lwerr.IsClosed(err) {
		return nil
	}
	return err
}

func (s *StreamSocket) current() net.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// observe flips the socket to disconnected when err shows that conn is
// gone.  A later Connect may already have replaced conn.
func (s *StreamSocket) observe(conn net.Conn, err error) {
	if !lwerr.IsClosed(err) {
		return
	}
	s.mu.Lock()
	if s.conn == conn {
		s.open = false
	}
	s.mu.Unlock()
}

type socketReader struct{ s *StreamSocket }

func (r socketReader) Read(p []byte) (int, error) {
	conn := r.s.current()
	if conn == nil {
		return 0, net.ErrClosed
	}
	n, err := conn.Read(p)
	r.s.observe(conn, err)
	return n, err
}

type socketWriter struct{ s *StreamSocket }

func (w socketWriter) Write(p []byte) (int, error) {
	conn := w.s.current()
	if conn == nil {
		return 0, net.ErrClosed
	}
	n, err := conn.Write(p)
	w.s.observe(conn, err)
	return n, err
}

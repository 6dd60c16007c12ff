// Package line implements a newline-delimited text transport on top of
// a byte-stream socket.
//
// A Connection owns one [transport.Socket].  Once the socket is open it
// derives a buffered reader and an auto-flushing writer over the
// socket's streams; Send writes one message plus "\n", ReadLine returns
// the next message with its "\n" removed.
//
// End of stream: ReadLine returns ("", io.EOF) when the peer closes the
// connection on a line boundary.  Every other failure, including a close
// in the middle of a line (io.ErrUnexpectedEOF), is logged and returned
// as a *errors.NetworkError.  Calling Send or ReadLine on a connection
// that is not open returns errors.ErrNotConnected without any I/O.
//
// One goroutine may call ReadLine while another calls Send.  Concurrent
// calls of the same method must be serialised by the caller.
package line

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	lwerr "linewire/internal/errors"
	"linewire/internal/metrics"
	"linewire/internal/transport"
	"linewire/util"
)

// streams is the established reader/writer pair.  A Connection holds
// either both (non-nil *streams) or neither (nil).
type streams struct {
	reader *bufio.Reader
	writer *bufio.Writer
	remote string
}

// Connection is a line transport over a socket.
type Connection struct {
	id      string
	socket  transport.Socket
	logger  *util.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	streams *streams
	counted bool // reported to metrics as an open connection
	closed  bool // Disconnect was called; terminal
}

// New returns a Connection over sock.  If sock is already connected the
// streams are set up immediately; otherwise they wait for Connect.  A nil
// sock means a fresh, unconnected TCP socket.  logger and m may be nil.
func New(sock transport.Socket, logger *util.Logger, m *metrics.Collector) *Connection {
	if sock == nil {
		sock = transport.NewStreamSocket(&transport.TCPDialer{})
	}
	if logger == nil {
		logger = util.NewLogger(0)
	}

	id := uuid.NewString()[:8]
	c := &Connection{
		id:      id,
		socket:  sock,
		logger:  logger.Named("conn " + id),
		metrics: m,
	}

	c.mu.Lock()
	if c.establishLocked() {
		c.logger.Verbose("attached to %s", c.streams.remote)
	}
	c.mu.Unlock()
	return c
}

// ID returns the short identifier used in log lines.
func (c *Connection) ID() string { return c.id }

// RemoteAddr returns the peer address, or "" when not connected.
func (c *Connection) RemoteAddr() string { return c.socket.RemoteAddr() }

// IsConnected reports whether the underlying socket is open.  It does not
// look at the streams.
func (c *Connection) IsConnected() bool { return c.socket.IsConnected() }

// Connect opens the socket to host:port and sets up the streams.  Errors
// from the socket are returned as-is.  It returns ErrAlreadyConnected if
// the socket is open and ErrClosed after Disconnect.
func (c *Connection) Connect(ctx context.Context, host string, port int) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return lwerr.ErrClosed
	}

	addr := util.FormatAddr(host, port)
	c.logger.Verbose("connecting to %s", addr)

	if err := c.socket.Connect(ctx, host, port); err != nil {
		c.logger.Verbose("connect to %s failed: %v", addr, err)
		c.metrics.RecordError(err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		// Disconnect ran while we were dialing.
		c.socket.Close() //nolint:errcheck
		return lwerr.ErrClosed
	}
	if c.establishLocked() {
		c.logger.Verbose("connected to %s", c.streams.remote)
	}
	return nil
}

// Send writes msg followed by "\n" and flushes it to the socket.  A msg
// containing "\n" arrives at the peer as several lines.
func (c *Connection) Send(msg string) error {
	s, err := c.ready()
	if err != nil {
		return err
	}

	s.writer.WriteString(msg) //nolint:errcheck // sticky; reported by Flush
	s.writer.WriteByte('\n')  //nolint:errcheck
	if err := s.writer.Flush(); err != nil {
		return c.fail("write", s.remote, err)
	}

	c.metrics.LineSent(len(msg) + 1)
	c.logger.Debug("sent %d bytes", len(msg)+1)
	return nil
}

// ReadLine blocks until the next "\n" and returns the text before it.
// Invalid UTF-8 is replaced with U+FFFD.  A clean close by the peer
// returns io.EOF; Disconnect from another goroutine aborts a pending
// call with an error.
func (c *Connection) ReadLine() (string, error) {
	s, err := c.ready()
	if err != nil {
		return "", err
	}

	raw, err := s.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if raw == "" {
				c.logger.Verbose("peer %s closed the connection", s.remote)
				return "", io.EOF
			}
			err = io.ErrUnexpectedEOF
		}
		return "", c.fail("read", s.remote, err)
	}

	c.metrics.LineReceived(len(raw))
	c.logger.Debug("received %d bytes", len(raw))

	text := raw[:len(raw)-1]
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	return text, nil
}

// Disconnect drops the streams and closes the socket.  It may be called
// any number of times; afterwards IsConnected is false, Send and
// ReadLine return ErrNotConnected, and Connect returns ErrClosed.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.logger.Verbose("disconnecting")
	}
	c.streams = nil
	if c.counted {
		c.counted = false
		c.metrics.ConnectionClosed()
	}

	if err := c.socket.Close(); err != nil {
		c.logger.Warn("close: %v", err)
		return err
	}
	return nil
}

// Close is Disconnect, for use with defer and io.Closer.
func (c *Connection) Close() error { return c.Disconnect() }

// ready returns the streams for an I/O call, establishing them first if
// the socket was connected behind our back.
func (c *Connection) ready() (*streams, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.socket.IsConnected() {
		return nil, lwerr.ErrNotConnected
	}
	if c.streams == nil && !c.establishLocked() {
		return nil, lwerr.ErrNotConnected
	}
	return c.streams, nil
}

// establishLocked builds the reader/writer pair if the socket is open,
// replacing any previous pair.  It reports false, and changes nothing,
// when the socket is not connected.  c.mu must be held.
func (c *Connection) establishLocked() bool {
	if !c.socket.IsConnected() {
		return false
	}
	c.streams = &streams{
		reader: bufio.NewReader(c.socket.Reader()),
		writer: bufio.NewWriter(c.socket.Writer()),
		remote: c.socket.RemoteAddr(),
	}
	if !c.counted {
		c.counted = true
		c.metrics.ConnectionOpened()
	}
	return true
}

// fail logs an I/O error and wraps it for the caller.  Errors caused by
// our own Disconnect are expected and logged quietly.
func (c *Connection) fail(op, remote string, err error) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	nerr := lwerr.Wrap(op, remote, err)
	if closed {
		c.logger.Verbose("%s aborted by disconnect: %v", op, err)
	} else {
		c.logger.Error("%v", nerr)
		c.metrics.RecordError(nerr.Error())
	}
	return nerr
}

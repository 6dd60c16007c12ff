package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// WSDialer reaches the peer through a WebSocket endpoint.  The returned
// connection carries the byte stream in binary frames: every Write is one
// frame, and Read yields message payloads back to back.  Frames are not
// aligned to UTF-8 boundaries, so text frames would not be valid here.
type WSDialer struct {
	Path    string // request path, default "/"
	Timeout time.Duration
}

// Dial performs the WebSocket handshake with ws://address/Path.  The
// network argument is ignored; WebSocket always runs over TCP.
func (d *WSDialer) Dial(ctx context.Context, _, address string) (net.Conn, error) {
	path := d.Path
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: address, Path: path}

	dialer := ws.Dialer{Timeout: d.Timeout}
	conn, br, _, err := dialer.Dial(ctx, u.String())
	if err != nil {
		return nil, err
	}
	return newWSConn(conn, br), nil
}

// Close is a no-op; each Dial owns its own connection.
func (d *WSDialer) Close() error { return nil }

// wsConn adapts a client-side WebSocket to a plain byte stream.
type wsConn struct {
	net.Conn

	rd      wsutil.Reader
	pending []byte

	wmu       sync.Mutex
	closeOnce sync.Once
}

func newWSConn(conn net.Conn, br *bufio.Reader) *wsConn {
	var src io.Reader = conn
	if br != nil {
		// Frames the server sent right after the handshake are
		// already buffered in br.
		src = br
	}
	c := &wsConn{Conn: conn}
	c.rd = wsutil.Reader{
		Source:         src,
		State:          ws.StateClientSide,
		OnIntermediate: c.handleControl,
	}
	return c
}

// Read returns bytes from the current message, fetching the next data
// message when it is exhausted.  A close frame from the server reads
// as io.EOF.
func (c *wsConn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		msg, err := c.nextMessage()
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return 0, io.EOF
			}
			return 0, err
		}
		c.pending = msg
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *wsConn) nextMessage() ([]byte, error) {
	for {
		hdr, err := c.rd.NextFrame()
		if err != nil {
			return nil, err
		}
		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, &c.rd); err != nil {
				return nil, err
			}
			continue
		}
		return io.ReadAll(&c.rd)
	}
}

// handleControl answers ping and close frames.  The reply is rendered
// into a buffer first so it goes out as one write and cannot interleave
// with a concurrent data frame.
func (c *wsConn) handleControl(hdr ws.Header, r io.Reader) error {
	var reply bytes.Buffer
	herr := wsutil.ControlFrameHandler(&reply, ws.StateClientSide)(hdr, r)
	if reply.Len() > 0 {
		if err := c.writeRaw(reply.Bytes()); err != nil && herr == nil {
			return err
		}
	}
	return herr
}

// Write sends p as a single masked binary frame.
func (c *wsConn) Write(p []byte) (int, error) {
	frame := ws.MaskFrame(ws.NewBinaryFrame(p))
	raw, err := ws.CompileFrame(frame)
	if err != nil {
		return 0, err
	}
	if err := c.writeRaw(raw); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) writeRaw(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.Conn.Write(b)
	return err
}

// Close sends a normal-closure frame (best effort) and closes the TCP
// connection.
func (c *wsConn) Close() error {
	err := net.ErrClosed
	c.closeOnce.Do(func() {
		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
		frame := ws.MaskFrame(ws.NewCloseFrame(body))
		if raw, cerr := ws.CompileFrame(frame); cerr == nil {
			c.writeRaw(raw) //nolint:errcheck
		}
		err = c.Conn.Close()
	})
	return err
}

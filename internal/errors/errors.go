// Package errors defines the error values shared across linewire.
//
// Misuse of a connection is reported with sentinels compared through
// errors.Is.  I/O failures are *NetworkError values carrying the
// operation, the peer address and whether another attempt could help.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

var (
	// ErrNotConnected is the usage error returned by Send and ReadLine
	// when the connection is not open.  No I/O has been performed.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected is returned by Connect on a live socket.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrClosed is returned by Connect after Disconnect.
	ErrClosed = errors.New("connection is closed")

	ErrTunnelClosed = errors.New("tunnel is closed")
	ErrAuthFailed   = errors.New("authentication failed")
)

// NetworkError is a failed dial, read, write or tunnel forward.
type NetworkError struct {
	Op        string // "dial", "read", "write", "forward"
	Addr      string // peer address
	Err       error
	Retryable bool // a later attempt may succeed
}

func (e *NetworkError) Error() string {
	msg := e.Op + " " + e.Addr + ": " + e.Err.Error()
	if e.Retryable {
		msg += " (retryable)"
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Wrap builds a NetworkError, classifying err for retry.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err, Retryable: transient(err)}
}

// SSHError is a failure talking to an SSH gateway.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s: %v", e.Op, net.JoinHostPort(e.Host, fmt.Sprint(e.Port)), e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// WrapSSH builds an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ConfigError is an invalid or missing option.  Field is the flag name
// without dashes.
type ConfigError struct {
	Field   string
	Value   interface{} // nil when the option is missing
	Message string
	Hint    string // optional example of a correct invocation
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config: --" + e.Field)
	if e.Value != nil {
		fmt.Fprintf(&b, "=%v", e.Value)
	}
	b.WriteString(": " + e.Message)
	if e.Hint != "" {
		b.WriteString("\n  hint: " + e.Hint)
	}
	return b.String()
}

// ── Classification ───────────────────────────────────────────────────

// closedCauses all mean the byte stream is gone.
var closedCauses = []error{ //nolint:gochecknoglobals
	io.EOF,
	io.ErrUnexpectedEOF,
	io.ErrClosedPipe,
	net.ErrClosed,
	syscall.ECONNRESET,
	syscall.EPIPE,
}

// IsClosed reports whether err means the byte stream is gone: the peer
// hung up, the local side closed the socket, or the connection was reset.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	for _, cause := range closedCauses {
		if errors.Is(err, cause) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether a connect that failed with err is worth
// another attempt.  A *NetworkError answers for itself.
func IsRetryable(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return transient(err)
}

// transient recognises failures that can clear up on their own: a peer
// that is not listening yet, or a temporary resolver error.
func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck
	}
	return false
}

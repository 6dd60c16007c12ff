package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"linewire/internal/capability"
	"linewire/internal/line"
	"linewire/internal/metrics"
	"linewire/internal/session"
	"linewire/internal/transport"
	"linewire/util"
)

// ListenMode accepts inbound TCP connections and runs a capability on
// each one.  With KeepOpen=true it serves every connection on its own
// goroutine; otherwise it handles one connection and returns.
type ListenMode struct {
	Address    string // "host:port" or ":port"
	KeepOpen   bool
	Capability capability.Capability
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ListenMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ListenMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run starts listening and dispatches accepted connections to the
// capability.  It returns nil once ctx is cancelled and every
// connection handler has finished.
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.Address, err)
	}
	defer ln.Close()

	m.Logger.Verbose("listening on %s", ln.Addr())

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		m.Logger.Verbose("connection from %s", nc.RemoteAddr())

		if !m.KeepOpen {
			ln.Close()
			return m.serveConn(ctx, nc)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.serveConn(ctx, nc); err != nil {
				m.Logger.Warn("%s: %v", nc.RemoteAddr(), err)
			}
		}()
	}
}

// serveConn wraps an accepted connection in a line transport and runs
// the capability on it.
func (m *ListenMode) serveConn(ctx context.Context, nc net.Conn) error {
	conn := line.New(transport.WrapConn(nc), m.Logger, m.Metrics)
	defer conn.Disconnect() //nolint:errcheck

	stop := context.AfterFunc(ctx, func() { conn.Disconnect() }) //nolint:errcheck
	defer stop()

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger)
	return m.Capability.Handle(ctx, sess)
}

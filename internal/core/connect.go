package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"linewire/internal/capability"
	lwerr "linewire/internal/errors"
	"linewire/internal/line"
	"linewire/internal/metrics"
	"linewire/internal/retry"
	"linewire/internal/session"
	"linewire/internal/transport"
	"linewire/util"
)

// ConnectMode opens a line connection to Host:Port and runs a
// capability on it, the default client mode.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Host       string
	Port       int
	Backoff    *retry.Backoff // nil means a single attempt
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run connects, retrying transient failures per Backoff, and hands the
// connection to the capability.  The connection and the dialer are
// closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	conn := line.New(transport.NewStreamSocket(m.Dialer), m.Logger, m.Metrics)
	defer conn.Disconnect() //nolint:errcheck

	addr := util.FormatAddr(m.Host, m.Port)
	if err := m.backoff(addr).Do(ctx, func(int) error {
		return conn.Connect(ctx, m.Host, m.Port)
	}); err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	// A blocked ReadLine only returns once the socket is closed.
	stop := context.AfterFunc(ctx, func() { conn.Disconnect() }) //nolint:errcheck
	defer stop()

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger)
	return m.Capability.Handle(ctx, sess)
}

// backoff returns a copy of m.Backoff that only retries transient
// network errors and logs each retry.
func (m *ConnectMode) backoff(addr string) *retry.Backoff {
	b := retry.ForConnect(1)
	if m.Backoff != nil {
		cp := *m.Backoff
		b = &cp
	}
	if b.Retryable == nil {
		b.Retryable = lwerr.IsRetryable
	}
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.Metrics.ConnectRetried()
		m.Logger.Warn("connect to %s failed (attempt %d): %v; retrying in %s",
			addr, attempt, err, wait.Truncate(time.Millisecond))
	}
	return b
}

package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"linewire/tunnel"
	"linewire/util"
)

// SSHDialer reaches addresses through an SSH gateway.  The gateway
// session is opened by the first Dial and reopened by a later Dial if
// it has dropped in between, so connect retries survive a lost tunnel.
type SSHDialer struct {
	tunnel  tunnel.Tunnel
	gateway string // user@host:port, for log lines
	logger  *util.Logger

	mu sync.Mutex
}

// NewSSHDialer returns a dialer for the gateway described by cfg.
// No network I/O happens until Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &SSHDialer{
		tunnel:  tunnel.NewSSHTunnel(cfg, logger),
		gateway: cfg.User + "@" + cfg.Addr(),
		logger:  logger,
	}
}

// Dial opens a forwarded connection to address.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.ensureTunnel(ctx); err != nil {
		return nil, err
	}
	return d.tunnel.Dial(ctx, network, address)
}

// Close shuts the gateway session.  Connections dialed through it end too.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tunnel.Close()
}

func (d *SSHDialer) ensureTunnel(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tunnel.IsAlive() {
		return nil
	}

	d.logger.Verbose("opening SSH tunnel %s", d.gateway)
	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel %s: %w", d.gateway, err)
	}
	d.logger.Verbose("SSH tunnel %s up", d.gateway)
	return nil
}

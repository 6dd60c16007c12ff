package tunnel

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	lwerr "linewire/internal/errors"
	"linewire/util"
)

// SSHConfig holds everything needed to reach an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration // TCP dial plus handshake
	KeepAlive     time.Duration // 0 disables keepalive requests
}

// Addr returns the gateway's host:port.
func (c *SSHConfig) Addr() string { return util.FormatAddr(c.Host, c.Port) }

// SSHTunnel implements [Tunnel] over one SSH client connection.
// Forwarded connections are "direct-tcpip" channels on that client.
type SSHTunnel struct {
	config SSHConfig
	logger *util.Logger

	mu sync.RWMutex
	gw *gateway // nil while down
}

// gateway is one live SSH client plus the goroutines watching it.
type gateway struct {
	client *ssh.Client
	stop   chan struct{}
	once   sync.Once
}

func (g *gateway) shutdown() error {
	var err error
	g.once.Do(func() {
		close(g.stop)
		err = g.client.Close()
	})
	return err
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	c := *cfg
	if c.Port == 0 {
		c.Port = 22
	}
	if c.ConnTimeout == 0 {
		c.ConnTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &SSHTunnel{config: c, logger: logger.Named("ssh")}
}

// Connect dials the gateway and completes the handshake.  A previous
// connection, if any, is replaced.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	clientCfg, err := t.clientConfig()
	if err != nil {
		return err
	}

	addr := t.config.Addr()
	t.logger.Debug("dialing %s as %s", addr, t.config.User)

	d := net.Dialer{Timeout: t.config.ConnTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return lwerr.Wrap("dial", addr, err)
	}

	// The handshake ignores ctx; bound it with the connect timeout.
	raw.SetDeadline(time.Now().Add(t.config.ConnTimeout)) //nolint:errcheck
	conn, chans, reqs, err := ssh.NewClientConn(raw, addr, clientCfg)
	if err != nil {
		raw.Close()
		return lwerr.WrapSSH("handshake", t.config.Host, t.config.Port, err)
	}
	raw.SetDeadline(time.Time{}) //nolint:errcheck

	gw := &gateway{client: ssh.NewClient(conn, chans, reqs), stop: make(chan struct{})}

	t.mu.Lock()
	old := t.gw
	t.gw = gw
	t.mu.Unlock()
	if old != nil {
		old.shutdown() //nolint:errcheck
	}

	go t.watch(gw)
	if t.config.KeepAlive > 0 {
		go t.keepAlive(gw, t.config.KeepAlive)
	}
	return nil
}

// Dial opens a forwarded connection to address.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	gw := t.gw
	t.mu.RUnlock()

	if gw == nil {
		return nil, lwerr.ErrTunnelClosed
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.logger.Debug("forwarding %s %s", network, address)
	conn, err := gw.client.Dial(network, address)
	if err != nil {
		return nil, lwerr.Wrap("forward", address, err)
	}
	return conn, nil
}

// Close shuts down the SSH connection.  Forwarded connections die with it.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	gw := t.gw
	t.gw = nil
	t.mu.Unlock()

	if gw == nil {
		return nil
	}
	if err := gw.shutdown(); err != nil && !lwerr.IsClosed(err) {
		return err
	}
	return nil
}

// IsAlive reports whether the tunnel is connected.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gw != nil
}

func (t *SSHTunnel) clientConfig() (*ssh.ClientConfig, error) {
	auth, err := BuildAuthMethods(&t.config)
	if err != nil {
		return nil, lwerr.WrapSSH("auth", t.config.Host, t.config.Port, err)
	}
	hostKey, err := hostKeyCallback(&t.config)
	if err != nil {
		return nil, lwerr.WrapSSH("hostkey", t.config.Host, t.config.Port, err)
	}
	return &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         t.config.ConnTimeout,
	}, nil
}

// watch marks the tunnel down once gw's connection ends.
func (t *SSHTunnel) watch(gw *gateway) {
	err := gw.client.Wait()

	t.mu.Lock()
	if t.gw == gw {
		t.gw = nil
	}
	t.mu.Unlock()
	gw.shutdown() //nolint:errcheck

	if err != nil {
		t.logger.Verbose("tunnel closed: %v", err)
	} else {
		t.logger.Verbose("tunnel closed")
	}
}

// keepAlive sends a global request every interval and drops the
// connection on the first unanswered one.
func (t *SSHTunnel) keepAlive(gw *gateway, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-gw.stop:
			return
		case <-ticker.C:
			if _, _, err := gw.client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				t.logger.Warn("keepalive to %s failed: %v", t.config.Addr(), err)
				gw.client.Close()
				return
			}
			t.logger.Debug("keepalive ok")
		}
	}
}

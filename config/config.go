// Package config defines the runtime configuration for linewire and
// provides helpers for parsing ports and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	lwerr "linewire/internal/errors"
)

// Config holds every tuneable for a single linewire run.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host      string
	Port      int // destination port (connect mode)
	LocalPort int // -p: listen port, or source port when connecting
	Listen    bool
	KeepOpen  bool
	NoDNS     bool
	Timeout   time.Duration // dial timeout; 0 means DefaultConnTimeout
	Retries   int           // extra connect attempts after the first
	Linger    time.Duration // -q: wait for the peer after stdin EOF

	// ── WebSocket ────────────────────────────────────────────────────
	WebSocket bool
	WSPath    string

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw [user@]host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string
	SSHKeepAlive   time.Duration // 0 disables keepalive requests

	// ── Behaviour ────────────────────────────────────────────────────
	Echo bool // answer every line with itself instead of relaying stdio

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	Stats   bool
	DryRun  bool
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Timeout:      DefaultConnTimeout,
		Retries:      DefaultRetries,
		WSPath:       DefaultWSPath,
		TunnelPort:   DefaultSSHPort,
		SSHKeepAlive: DefaultSSHKeepAlive,
	}
}

// ── Port parser ──────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ResolveTunnel parses TunnelSpec into the Tunnel* fields.  It is a
// no-op when no spec is set.
func (c *Config) ResolveTunnel() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &lwerr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: err.Error(),
			Hint:    "use -T user@gateway or -T user@gateway:2222",
		}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Listen {
		if c.LocalPort == 0 {
			return &lwerr.ConfigError{
				Field:   "port",
				Message: "listen mode requires a local port",
				Hint:    "linewire -l -p 9000",
			}
		}
		if c.TunnelEnabled {
			return &lwerr.ConfigError{
				Field:   "tunnel",
				Value:   c.TunnelSpec,
				Message: "listen mode through an SSH tunnel is not supported",
			}
		}
		if c.WebSocket {
			return &lwerr.ConfigError{
				Field:   "ws",
				Message: "WebSocket is only available when connecting",
			}
		}
	} else {
		if c.Host == "" {
			return &lwerr.ConfigError{
				Field:   "host",
				Message: "hostname is required",
				Hint:    "linewire <host> <port>, or --help for usage",
			}
		}
		if c.Port == 0 {
			return &lwerr.ConfigError{
				Field:   "port",
				Message: "destination port is required",
				Hint:    "linewire " + c.Host + " 9000",
			}
		}
		if c.KeepOpen {
			return &lwerr.ConfigError{
				Field:   "keep-open",
				Message: "-k only applies to listen mode",
				Hint:    "add -l",
			}
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		return &lwerr.ConfigError{Field: "port", Value: c.Port, Message: "out of range 1-65535"}
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 {
		return &lwerr.ConfigError{Field: "port", Value: c.LocalPort, Message: "out of range 1-65535"}
	}
	if c.Retries < 0 {
		return &lwerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
	}
	if c.Timeout < 0 {
		return &lwerr.ConfigError{Field: "wait", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.Linger < 0 {
		return &lwerr.ConfigError{Field: "quit", Value: c.Linger, Message: "must not be negative"}
	}
	if c.SSHKeepAlive < 0 {
		return &lwerr.ConfigError{Field: "ssh-keepalive", Value: c.SSHKeepAlive, Message: "must not be negative"}
	}

	if c.WebSocket {
		if c.TunnelEnabled {
			return &lwerr.ConfigError{
				Field:   "ws",
				Message: "--ws and -T are mutually exclusive",
			}
		}
		if !strings.HasPrefix(c.WSPath, "/") {
			return &lwerr.ConfigError{
				Field:   "ws-path",
				Value:   c.WSPath,
				Message: "must start with /",
				Hint:    "--ws-path /lines",
			}
		}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &lwerr.ConfigError{
			Field:   "tunnel",
			Message: "tunnel host is required",
			Hint:    "-T user@gateway",
		}
	}

	return nil
}

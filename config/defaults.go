package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultSSHKeepAlive is the interval between keepalive requests on
	// an SSH tunnel.
	DefaultSSHKeepAlive = 30 * time.Second

	// DefaultConnTimeout is the TCP/SSH/WebSocket dial timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRetries is the number of extra connect attempts.
	DefaultRetries = 0

	// DefaultWSPath is the request path for the WebSocket handshake.
	DefaultWSPath = "/"

	// EnvPrefix prefixes every environment variable read by LoadFromEnv.
	EnvPrefix = "LINEWIRE_"
)

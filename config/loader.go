package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the LINEWIRE_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed env vars override the existing value.  Call it BEFORE
// flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := env("HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("PORT"); v > 0 {
		cfg.LocalPort = v
	}
	if envBool("LISTEN") {
		cfg.Listen = true
	}
	if envBool("NO_DNS") {
		cfg.NoDNS = true
	}
	if envBool("KEEP_OPEN") {
		cfg.KeepOpen = true
	}
	if v := envInt("TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v, ok := envIntOK("RETRIES"); ok && v >= 0 {
		cfg.Retries = v
	}
	if v := envInt("QUIT"); v > 0 {
		cfg.Linger = secondsDuration(v)
	}
	if envBool("ECHO") {
		cfg.Echo = true
	}

	// WebSocket
	if envBool("WS") {
		cfg.WebSocket = true
	}
	if v := env("WS_PATH"); v != "" {
		cfg.WSPath = v
	}

	// SSH tunnel
	if v := env("TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := env("SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := env("KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}
	if v, ok := envIntOK("SSH_KEEPALIVE"); ok && v >= 0 {
		cfg.SSHKeepAlive = secondsDuration(v)
	}

	// Output
	if v := envInt("VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("STATS") {
		cfg.Stats = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func env(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func envIntOK(key string) (int, bool) {
	v := env(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt(key string) int {
	n, _ := envIntOK(key)
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(env(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

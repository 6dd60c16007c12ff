package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Host(t *testing.T) {
	t.Setenv("LINEWIRE_HOST", "test.example.com")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Host != "test.example.com" {
		t.Errorf("Host = %q, want %q", cfg.Host, "test.example.com")
	}
}

func TestLoadFromEnv_Port(t *testing.T) {
	t.Setenv("LINEWIRE_PORT", "8080")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.LocalPort != 8080 {
		t.Errorf("LocalPort = %d, want 8080", cfg.LocalPort)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		key    string
		values []string
		get    func(*Config) bool
	}{
		{"LINEWIRE_LISTEN", []string{"1", "true", "yes", "TRUE", "Yes"}, func(c *Config) bool { return c.Listen }},
		{"LINEWIRE_NO_DNS", []string{"true"}, func(c *Config) bool { return c.NoDNS }},
		{"LINEWIRE_KEEP_OPEN", []string{"1"}, func(c *Config) bool { return c.KeepOpen }},
		{"LINEWIRE_ECHO", []string{"yes"}, func(c *Config) bool { return c.Echo }},
		{"LINEWIRE_WS", []string{"1"}, func(c *Config) bool { return c.WebSocket }},
		{"LINEWIRE_STATS", []string{"true"}, func(c *Config) bool { return c.Stats }},
	}

	for _, tt := range tests {
		for _, v := range tt.values {
			t.Run(tt.key+"="+v, func(t *testing.T) {
				t.Setenv(tt.key, v)
				cfg := &Config{}
				LoadFromEnv(cfg)
				if !tt.get(cfg) {
					t.Errorf("%s=%s should enable the field", tt.key, v)
				}
			})
		}
	}
}

func TestLoadFromEnv_FalseValues(t *testing.T) {
	for _, v := range []string{"0", "false", "no", "off"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("LINEWIRE_LISTEN", v)
			cfg := &Config{}
			LoadFromEnv(cfg)
			if cfg.Listen {
				t.Errorf("LINEWIRE_LISTEN=%s should not enable listen", v)
			}
		})
	}
}

func TestLoadFromEnv_Durations(t *testing.T) {
	t.Setenv("LINEWIRE_TIMEOUT", "10")
	t.Setenv("LINEWIRE_QUIT", "2")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.Linger != 2*time.Second {
		t.Errorf("Linger = %v, want 2s", cfg.Linger)
	}
}

func TestLoadFromEnv_Retries(t *testing.T) {
	t.Setenv("LINEWIRE_RETRIES", "0")
	cfg := &Config{Retries: 3}
	LoadFromEnv(cfg)
	if cfg.Retries != 0 {
		t.Errorf("Retries = %d, explicit 0 should override", cfg.Retries)
	}

	t.Setenv("LINEWIRE_RETRIES", "-2")
	cfg = &Config{Retries: 3}
	LoadFromEnv(cfg)
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d, negative value should be ignored", cfg.Retries)
	}
}

func TestLoadFromEnv_WebSocketPath(t *testing.T) {
	t.Setenv("LINEWIRE_WS_PATH", "/chat")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.WSPath != "/chat" {
		t.Errorf("WSPath = %q", cfg.WSPath)
	}
}

func TestLoadFromEnv_SSHFields(t *testing.T) {
	t.Setenv("LINEWIRE_TUNNEL", "admin@bastion:2222")
	t.Setenv("LINEWIRE_SSH_KEY", "/home/user/.ssh/id_rsa")
	t.Setenv("LINEWIRE_SSH_PASSWORD", "true")
	t.Setenv("LINEWIRE_SSH_AGENT", "1")
	t.Setenv("LINEWIRE_STRICT_HOSTKEY", "yes")
	t.Setenv("LINEWIRE_KNOWN_HOSTS", "/custom/known_hosts")
	t.Setenv("LINEWIRE_SSH_KEEPALIVE", "0")

	cfg := &Config{}
	LoadFromEnv(cfg)

	if cfg.TunnelSpec != "admin@bastion:2222" {
		t.Errorf("TunnelSpec = %q", cfg.TunnelSpec)
	}
	if cfg.SSHKeyPath != "/home/user/.ssh/id_rsa" {
		t.Errorf("SSHKeyPath = %q", cfg.SSHKeyPath)
	}
	if !cfg.SSHPassword {
		t.Error("SSHPassword should be true")
	}
	if !cfg.UseSSHAgent {
		t.Error("UseSSHAgent should be true")
	}
	if !cfg.StrictHostKey {
		t.Error("StrictHostKey should be true")
	}
	if cfg.KnownHostsPath != "/custom/known_hosts" {
		t.Errorf("KnownHostsPath = %q", cfg.KnownHostsPath)
	}
	if cfg.SSHKeepAlive != 0 {
		t.Errorf("SSHKeepAlive = %v, want 0 (disabled)", cfg.SSHKeepAlive)
	}
}

func TestLoadFromEnv_NoOverrideWhenEmpty(t *testing.T) {
	t.Setenv("LINEWIRE_HOST", "")
	t.Setenv("LINEWIRE_PORT", "")
	t.Setenv("LINEWIRE_WS_PATH", "")

	cfg := &Config{Host: "original", LocalPort: 1234, WSPath: "/keep"}
	LoadFromEnv(cfg)

	if cfg.Host != "original" {
		t.Errorf("Host was overridden: %q", cfg.Host)
	}
	if cfg.LocalPort != 1234 {
		t.Errorf("LocalPort was overridden: %d", cfg.LocalPort)
	}
	if cfg.WSPath != "/keep" {
		t.Errorf("WSPath was overridden: %q", cfg.WSPath)
	}
}

func TestLoadFromEnv_InvalidIntIgnored(t *testing.T) {
	t.Setenv("LINEWIRE_PORT", "not-a-number")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.LocalPort != 0 {
		t.Errorf("LocalPort should be 0 for invalid input, got %d", cfg.LocalPort)
	}
}

func TestLoadFromEnv_Verbose(t *testing.T) {
	t.Setenv("LINEWIRE_VERBOSE", "3")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Verbose != 3 {
		t.Errorf("Verbose = %d, want 3", cfg.Verbose)
	}
}

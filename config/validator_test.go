package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	lwerr "linewire/internal/errors"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
		wantSub   string // substring expected in error
	}{
		{
			name:      "listen no port has hint",
			cfg:       Config{Listen: true},
			wantField: "port",
			wantSub:   "hint: linewire -l -p",
		},
		{
			name:      "missing host has hint",
			cfg:       Config{Port: 80},
			wantField: "host",
			wantSub:   "hint:",
		},
		{
			name:      "websocket + tunnel",
			cfg:       Config{Host: "x", Port: 80, WebSocket: true, WSPath: "/", TunnelEnabled: true, TunnelHost: "gw"},
			wantField: "ws",
			wantSub:   "mutually exclusive",
		},
		{
			name:      "negative keepalive",
			cfg:       Config{Host: "x", Port: 80, SSHKeepAlive: -time.Second},
			wantField: "ssh-keepalive",
			wantSub:   "must not be negative",
		},
		{
			name:      "bad ws path shows value",
			cfg:       Config{Host: "x", Port: 80, WebSocket: true, WSPath: "lines"},
			wantField: "ws-path",
			wantSub:   "--ws-path=lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *lwerr.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ce.Field, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestParsePort_Fuzz covers edge-case port specs.
func TestParsePort_Fuzz(t *testing.T) {
	edgeCases := []string{
		"1", "65535", "+80", "080",
		"-1", "65536", "abc", "-", "1-", "0x50",
		"0", "99999", "8 0",
	}
	for _, s := range edgeCases {
		t.Run(s, func(t *testing.T) {
			p, err := ParsePort(s)
			if err == nil && (p < 1 || p > 65535) {
				t.Errorf("ParsePort(%q) = %d without error", s, p)
			}
		})
	}
}

// TestParseTunnelSpec_EdgeCases covers additional tunnel specs.
func TestParseTunnelSpec_EdgeCases(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"user@host.with.dots:22", false},
		{"user@host-with-dashes", false},
		{"host:0", true},     // port 0 out of range
		{"host:65536", true}, // port too high
		{"user@", false},     // regex treats "user@" as hostname
		{"", true},           // empty string
		{":22", true},        // no host before colon
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, _, _, err := ParseTunnelSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTunnelSpec(%q) err = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

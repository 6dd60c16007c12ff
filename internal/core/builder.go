package core

import (
	"linewire/config"
	"linewire/internal/capability"
	"linewire/internal/metrics"
	"linewire/internal/retry"
	"linewire/internal/transport"
	"linewire/tunnel"
	"linewire/util"
)

// Build constructs the Mode selected by cfg.  m may be nil.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	if cfg.Listen {
		return buildListen(cfg, logger, m)
	}
	return buildConnect(cfg, logger, m)
}

// ── mode builders ────────────────────────────────────────────────────

func buildConnect(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	if err := util.CheckHost(cfg.Host, cfg.NoDNS); err != nil {
		return nil, err
	}

	return &ConnectMode{
		Dialer:     buildDialer(cfg, logger),
		Capability: buildCapability(cfg),
		Host:       cfg.Host,
		Port:       cfg.Port,
		Backoff:    retry.ForConnect(cfg.Retries + 1),
		Logger:     logger,
		Metrics:    m,
	}, nil
}

func buildListen(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	if err := util.CheckHost(cfg.Host, cfg.NoDNS); err != nil {
		return nil, err
	}

	return &ListenMode{
		Address:    util.FormatAddr(cfg.Host, cfg.LocalPort),
		KeepOpen:   cfg.KeepOpen,
		Capability: buildCapability(cfg),
		Logger:     logger,
		Metrics:    m,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultConnTimeout
	}

	switch {
	case cfg.TunnelEnabled:
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   timeout,
			KeepAlive:     cfg.SSHKeepAlive,
		}, logger)
	case cfg.WebSocket:
		return &transport.WSDialer{
			Path:    cfg.WSPath,
			Timeout: timeout,
		}
	default:
		return &transport.TCPDialer{
			Timeout:   timeout,
			LocalPort: cfg.LocalPort,
		}
	}
}

// buildCapability selects the per-connection behaviour.
func buildCapability(cfg *config.Config) capability.Capability {
	if cfg.Echo {
		return &capability.Echo{}
	}
	return &capability.Relay{Linger: cfg.Linger}
}

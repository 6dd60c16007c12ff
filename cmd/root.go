// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"linewire/config"
	"linewire/internal/core"
	"linewire/internal/metrics"
	"linewire/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X linewire/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout //nolint:gochecknoglobals
	stderr io.Writer = os.Stderr //nolint:gochecknoglobals
)

// Execute parses args and runs the selected linewire mode.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("linewire", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Listen mode")
	fs.IntVarP(&cfg.LocalPort, "port", "p", cfg.LocalPort, "Local port number")
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only, no DNS resolution")
	fs.BoolVarP(&cfg.KeepOpen, "keep-open", "k", cfg.KeepOpen, "Accept multiple connections (with -l)")
	fs.IntVarP(&cfg.Retries, "retries", "r", cfg.Retries, "Extra connect attempts on transient failures")

	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "wait", "w", timeoutSec, "Connect timeout in seconds")
	quitSec := int(cfg.Linger / time.Second)
	fs.IntVarP(&quitSec, "quit", "q", quitSec, "After stdin EOF, wait at most this many seconds for the peer (0 = until it closes)")

	// ── behaviour ────────────────────────────────────────────────
	fs.BoolVar(&cfg.Echo, "echo", cfg.Echo, "Echo every received line back to the peer")

	// ── WebSocket ────────────────────────────────────────────────
	fs.BoolVar(&cfg.WebSocket, "ws", cfg.WebSocket, "Carry the line stream over a WebSocket")
	fs.StringVar(&cfg.WSPath, "ws-path", cfg.WSPath, "WebSocket request path")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")
	keepAliveSec := int(cfg.SSHKeepAlive / time.Second)
	fs.IntVar(&keepAliveSec, "ssh-keepalive", keepAliveSec, "Seconds between SSH keepalives (0 = off)")

	// ── output ───────────────────────────────────────────────────
	envVerbose := cfg.Verbose // CountVarP resets its target
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print traffic statistics as JSON on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate the configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "linewire %s\n", version)
		return nil
	}

	if cfg.Verbose == 0 {
		cfg.Verbose = envVerbose
	}
	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.Linger = time.Duration(quitSec) * time.Second
	cfg.SSHKeepAlive = time.Duration(keepAliveSec) * time.Second

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}
	if err := cfg.ResolveTunnel(); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)

	if cfg.DryRun {
		describe(cfg)
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	var m *metrics.Collector
	if cfg.Stats {
		m = metrics.New()
	}

	mode, err := core.Build(cfg, logger, m)
	if err != nil {
		return err
	}

	err = mode.Run(ctx)
	if cfg.Stats {
		fmt.Fprintln(stderr, m.JSON())
	}
	return err
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	if cfg.Listen {
		switch len(remaining) {
		case 0: // linewire -l -p PORT
		case 1:
			cfg.Host = remaining[0]
		default:
			return fmt.Errorf("too many arguments for listen mode")
		}
		return nil
	}

	switch len(remaining) {
	case 0:
		return fmt.Errorf("hostname required (use --help for usage)")
	case 1:
		return fmt.Errorf("port required")
	case 2:
	default:
		return fmt.Errorf("too many arguments: expected <host> <port>")
	}

	cfg.Host = remaining[0]
	port, err := config.ParsePort(remaining[1])
	if err != nil {
		return fmt.Errorf("port: %w", err)
	}
	cfg.Port = port
	return nil
}

// describe prints what a run with cfg would do.
func describe(cfg *config.Config) {
	var target string
	if cfg.Listen {
		target = fmt.Sprintf("listen on %s", util.FormatAddr(cfg.Host, cfg.LocalPort))
		if cfg.KeepOpen {
			target += " (keep open)"
		}
	} else {
		target = fmt.Sprintf("connect to %s", util.FormatAddr(cfg.Host, cfg.Port))
		switch {
		case cfg.TunnelEnabled:
			target += fmt.Sprintf(" via ssh %s@%s", cfg.TunnelUser, util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
		case cfg.WebSocket:
			target += fmt.Sprintf(" over websocket %s", cfg.WSPath)
		}
		if cfg.Retries > 0 {
			target += fmt.Sprintf(", %d retries", cfg.Retries)
		}
	}

	capName := "relay"
	if cfg.Echo {
		capName = "echo"
	}
	fmt.Fprintf(stdout, "dry run: %s, %s\n", target, capName)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stderr, `linewire – line-oriented messaging over TCP v%s

Sends stdin to the peer one line at a time and prints every line the
peer sends back.

Usage:
  linewire [options] <host> <port>            Connect
  linewire -l -p <port> [options] [bind-host] Listen
  linewire --ws [options] <host> <port>       Connect over WebSocket
  linewire -T user@gateway <host> <port>      Connect through SSH

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(stderr, `
Environment:
  Most options can also be set through %s* variables (e.g. %sRETRIES=3).

Examples:
  linewire chat.example.com 9000              Interactive session
  linewire -l -p 9000 --echo -k               Echo server
  echo "hello" | linewire -q 2 host 9000      Send one line, wait 2s for replies
  linewire -r 5 --stats host 9000             Retry connect, print stats
`, config.EnvPrefix, config.EnvPrefix)
}

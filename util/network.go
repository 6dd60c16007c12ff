package util

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// CheckHost rejects host when DNS is disabled and host is not an IP
// literal.  An empty host (wildcard bind) always passes.
func CheckHost(host string, noDNS bool) error {
	if !noDNS || host == "" {
		return nil
	}
	if _, err := netip.ParseAddr(strings.Trim(host, "[]")); err != nil {
		return fmt.Errorf("%q is not a numeric address and DNS is disabled (-n)", host)
	}
	return nil
}

// FormatAddr returns "host:port".  IPv6 literals are bracketed whether
// or not host already carries brackets.
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port))
}

// FindFreePort asks the kernel for an unused loopback TCP port.  The
// port is released again before returning.
func FindFreePort() (int, error) {
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		return 0, fmt.Errorf("find free port: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	return port, ln.Close()
}

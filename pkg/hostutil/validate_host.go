package hostutil

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"
)

// ValidateHost accepts a dotted-quad IPv4, an IPv6 literal or an RFC 1123 hostname.
func ValidateHost(raw string) error {
	switch {
	case looksLikeIPv4(raw):
		if ip := net.ParseIP(raw); ip == nil || ip.To4() == nil {
			return fmt.Errorf("bad IP: '%s'", raw)
		}
	case strings.Contains(raw, ":"):
		if ip := net.ParseIP(strings.Trim(raw, "[]")); ip == nil || ip.To4() != nil {
			return fmt.Errorf("bad IPv6: '%s'", raw)
		}
	default:
		if !validHostname(raw) {
			return fmt.Errorf("bad hostname: '%s'", raw)
		}
	}
	return nil
}

// ValidateHostPort validates a worker address of the form host[:port] or [ipv6]:port.
func ValidateHostPort(addr string) error {
	if addr == "" {
		return errors.New("empty address")
	}

	host, port := addr, ""
	if h, p, err := net.SplitHostPort(addr); err == nil {
		if p == "" {
			return fmt.Errorf("bad address: '%s'", addr)
		}
		host, port = h, p
	} else if strings.HasPrefix(addr, "[") || strings.Count(addr, ":") == 1 {
		// "[::1]" without port or "host:" with an empty port
		return fmt.Errorf("bad address: '%s'", addr)
	}

	if err := ValidateHost(host); err != nil {
		return err
	}
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("bad port: '%s'", port)
		}
	}
	return nil
}

// looksLikeIPv4 reports whether raw is four dot-separated digit groups.
func looksLikeIPv4(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

// validHostname checks DNS label rules (RFC 1123).
func validHostname(raw string) bool {
	if raw == "" || len(raw) > 253 {
		return false
	}
	for _, label := range strings.Split(raw, ".") {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		for i, r := range label {
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
				return false
			}
			if (i == 0 || i == len(label)-1) && r == '-' {
				return false
			}
		}
	}
	return true
}

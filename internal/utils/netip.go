// Package utils holds the request checks shared by the access middlewares:
// which peer is calling, which Host it asked for, and which page it came
// from.
package utils

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

// ParseHostNoPort returns the host of "host:port", "[v6]:port" or "host".
// Brackets are removed and the result is lowercased.
func ParseHostNoPort(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	return strings.ToLower(s)
}

// RemoteIP is the address of the TCP peer. clipsort is reached directly,
// so forwarding headers are never consulted.
func RemoteIP(r *http.Request) string {
	return ParseHostNoPort(r.RemoteAddr)
}

// IPMatcher matches addresses against a list of IPs and CIDR prefixes.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list; entries that are neither an IP nor a CIDR are
// ignored. A bare IP becomes a single-address prefix.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(s); err == nil {
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

// Allow reports whether ip falls in one of the prefixes. IPv4-mapped IPv6
// addresses are compared as IPv4.
func (m *IPMatcher) Allow(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// HostPatterns normalises an allow-list of host names. "*.lan" style
// wildcards are kept as is.
func HostPatterns(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = ParseHostNoPort(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// HostAllowed reports whether host (port ignored) matches one of the
// normalised patterns.
func HostAllowed(host string, patterns []string) bool {
	host = ParseHostNoPort(host)
	if host == "" {
		return false
	}
	for _, p := range patterns {
		if host == p {
			return true
		}
		if strings.HasPrefix(p, "*.") && strings.HasSuffix(host, p[1:]) {
			return true
		}
	}
	return false
}

// OriginAllowed reports whether the page behind an Origin header may call
// the API. Only http(s) origins on an allowed host pass; "null" and
// malformed values do not.
func OriginAllowed(origin string, patterns []string) bool {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return HostAllowed(u.Host, patterns)
}

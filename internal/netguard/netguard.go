package netguard

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"

	"github.com/noliahq/noliad/internal/httperr"
)

// blockedPrefixes lists address ranges outbound fetches must never reach.
// Any literal or resolved address that falls in one of these is rejected.
var blockedPrefixes = []netip.Prefix{
	// IPv4 reserved/private/special-use
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("224.0.0.0/4"),
	netip.MustParsePrefix("240.0.0.0/4"),

	// IPv6 reserved/private/special-use
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("ff00::/8"),
}

// Resolver is the lookup used before approving a hostname. Swappable in tests.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

var resolver Resolver = net.DefaultResolver

// SetResolver replaces the DNS resolver. Intended for tests only.
func SetResolver(r Resolver) {
	if r == nil {
		resolver = net.DefaultResolver
		return
	}
	resolver = r
}

// CheckURL validates a candidate outbound URL and returns the parsed form.
// It rejects non-http(s) schemes, localhost-ish hostnames, literal private or
// link-local addresses, and hostnames whose resolution includes any blocked
// address. The first offending resolved address rejects the whole URL.
func CheckURL(ctx context.Context, raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, httperr.InvalidURL("invalid url")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, httperr.InvalidURL("only http and https urls are allowed")
	}
	if u.User != nil {
		return nil, httperr.InvalidURL("urls with embedded credentials are not allowed")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, httperr.InvalidURL("url has no host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return nil, httperr.InvalidURL("host is not allowed")
	}

	if looksLikeIPLiteral(host) {
		addr, err := netip.ParseAddr(host)
		if err != nil {
			// A malformed IP literal never reaches DNS.
			return nil, httperr.InvalidURL("malformed ip address")
		}
		if blocked(addr) {
			return nil, httperr.InvalidURL("address is not allowed")
		}
		return u, nil
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, httperr.InvalidURL(fmt.Sprintf("cannot resolve host %q", host))
	}
	if len(addrs) == 0 {
		return nil, httperr.InvalidURL(fmt.Sprintf("host %q has no addresses", host))
	}
	for _, a := range addrs {
		addr, ok := netip.AddrFromSlice(a.IP)
		if !ok || blocked(addr) {
			return nil, httperr.InvalidURL("host resolves to a blocked address")
		}
	}
	return u, nil
}

// looksLikeIPLiteral reports whether host should be treated as an IP literal
// rather than a DNS name. IPv6 literals contain colons; IPv4-shaped strings
// contain only digits and dots.
func looksLikeIPLiteral(host string) bool {
	if strings.Contains(host, ":") {
		return true
	}
	for _, r := range host {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return host != ""
}

func blocked(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

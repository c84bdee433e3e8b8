package metadata

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrURLNotAllowed wraps every refusal from ValidateURL
var ErrURLNotAllowed = errors.New("url not allowed")

var privateBlocks = mustParseCIDRs(
	"0.0.0.0/8",      // this network
	"127.0.0.0/8",    // localhost
	"10.0.0.0/8",     // private
	"172.16.0.0/12",  // private
	"192.168.0.0/16", // private
	"169.254.0.0/16", // link-local
	"100.64.0.0/10",  // carrier-grade NAT
	"::1/128",        // localhost IPv6
	"fe80::/10",      // link-local IPv6
	"fc00::/7",       // unique local IPv6
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		_, cidr, err := net.ParseCIDR(block)
		if err != nil {
			panic(err)
		}
		nets = append(nets, cidr)
	}
	return nets
}

// ValidateURL checks if a URL is safe to fetch
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL format: %v", ErrURLNotAllowed, err)
	}

	// Only allow http and https schemes
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrURLNotAllowed, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrURLNotAllowed)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: access to localhost is not allowed", ErrURLNotAllowed)
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("%w: access to private IP %s is not allowed", ErrURLNotAllowed, ip)
	}
	return nil
}

// GuardAddress refuses a resolved "ip:port" dial address in a private range.
// Hostnames that resolve to loopback or private addresses are caught here.
func GuardAddress(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: invalid dial address %q: %v", ErrURLNotAllowed, address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: unresolved dial address %q", ErrURLNotAllowed, address)
	}
	if isPrivateIP(ip) {
		return fmt.Errorf("%w: access to private IP %s is not allowed", ErrURLNotAllowed, ip)
	}
	return nil
}

// isPrivateIP checks if an IP address is in a private range
func isPrivateIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

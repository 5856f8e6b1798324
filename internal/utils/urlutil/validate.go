// Package urlutil provides URL safety validation and normalization for every
// URL the pipeline is about to fetch or persist.
package urlutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Sentinel errors for URL validation failures.
var (
	// ErrInvalidURL indicates a URL that is malformed or uses a scheme or
	// host the pipeline refuses to fetch.
	ErrInvalidURL = errors.New("invalid url")

	// ErrPrivateIP indicates a URL whose host is (or resolves to) a
	// loopback, private or link-local address.
	ErrPrivateIP = errors.New("url points to a private address")
)

// Validate performs a syntactic safety check on a URL without touching the
// network. It rejects non-http(s) schemes, empty hosts, localhost and hosts
// that are literal private IP addresses. Used for feed URLs and for URLs
// produced by handler resolve/pre-handle steps, where a DNS round trip per
// candidate would be too expensive.
func Validate(urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if hostname == "localhost" || hostname == "0.0.0.0" {
		return fmt.Errorf("%w: host %q", ErrPrivateIP, hostname)
	}

	if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateIP, ip)
	}

	return nil
}

// ValidateResolved additionally resolves the hostname and checks every
// returned address. This is the pre-fetch check: it prevents SSRF through
// DNS names pointing at internal infrastructure.
func ValidateResolved(urlStr string) error {
	if err := Validate(urlStr); err != nil {
		return err
	}

	hostname := mustHostname(urlStr)
	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, hostname, ip)
		}
	}

	return nil
}

// mustHostname extracts the hostname from a URL that already passed Validate.
func mustHostname(urlStr string) string {
	u, _ := url.Parse(urlStr)
	return u.Hostname()
}

// isPrivateIP reports whether an address is loopback, RFC 1918/4193 private
// or link-local, for both IPv4 and IPv6.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

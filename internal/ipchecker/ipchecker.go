// Package ipchecker restricts an HTTP handler to clients from a trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPChecker matches client addresses against an optional trusted subnet.
type IPChecker struct {
	trustedSubnet     *net.IPNet
	trustProxyHeaders bool
}

// Option customizes an IPChecker.
type Option func(*IPChecker)

// WithTrustedProxyHeaders makes GetClientIP honour X-Real-IP and X-Forwarded-For.
// Enable it only behind a reverse proxy that overwrites those headers.
func WithTrustedProxyHeaders(trust bool) Option {
	return func(checker *IPChecker) {
		checker.trustProxyHeaders = trust
	}
}

// New creates an IPChecker for a subnet in CIDR notation (e.g. "10.0.0.0/8").
// An empty string leaves the checker disabled: Middleware then lets every request through.
func New(trustedSubnet string, options ...Option) (*IPChecker, error) {
	checker := &IPChecker{}
	for _, option := range options {
		option(checker)
	}

	if trustedSubnet == "" {
		return checker, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}
	checker.trustedSubnet = allowedNet

	return checker, nil
}

// Check reports whether clientIP belongs to the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// IsTrustedSubnetEmpty returns true if the IPChecker was initialized without a trusted subnet.
func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}

// GetClientIP extracts the client's IP address from an HTTP request.
// With trusted proxy headers it checks, in order, the "X-Real-IP" header and the
// first "X-Forwarded-For" entry; otherwise, and as a fallback, it uses RemoteAddr.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	if checker.trustProxyHeaders {
		if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
			return ip, nil
		}
		if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip, nil
			}
		}
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}
	return net.ParseIP(host), nil
}

// Middleware answers 403 to clients outside the trusted subnet.
func (checker *IPChecker) Middleware(h http.Handler) http.Handler {
	if checker.IsTrustedSubnetEmpty() {
		return h
	}

	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		clientIP, err := checker.GetClientIP(request)
		if err != nil || !checker.Check(clientIP) {
			response.WriteHeader(http.StatusForbidden)
			return
		}

		h.ServeHTTP(response, request)
	})
}

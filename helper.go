// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"crypto/rand"
	"encoding/base64"
	"net"
	"net/http"
	"net/url"
	"strings"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
)

// StringInSlice returns true if needle exists in haystack using a
// case-sensitive comparison.
func StringInSlice(needle string, haystack []string) bool {
	for _, b := range haystack {
		if b == needle {
			return true
		}
	}

	return false
}

// RemoveEmpty drops empty items from a parsed space-delimited value.
func RemoveEmpty(args []string) (ret []string) {
	for _, v := range args {
		v = strings.TrimSpace(v)
		if v != "" {
			ret = append(ret, v)
		}
	}

	return
}

// generateOpaqueToken returns 256 bits of url-safe random material, used for
// authorization codes and access tokens.
func generateOpaqueToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errorsx.WithStack(err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// IsValidRedirectURI validates a redirect_uri as specified in:
//
//   - https://datatracker.ietf.org/doc/html/rfc6749#section-3.1.2
//     The redirection endpoint URI MUST be an absolute URI as defined by [RFC3986] Section 4.3.
//     The endpoint URI MUST NOT include a fragment component.
func IsValidRedirectURI(uri *url.URL) bool {
	if uri.Scheme == "" || uri.Host == "" && uri.Opaque == "" {
		return false
	}

	if uri.Fragment != "" {
		return false
	}

	return true
}

// IsLocalhost reports whether the URI host is localhost, a .localhost
// subdomain, or a loopback literal.
func IsLocalhost(uri *url.URL) bool {
	hostname := uri.Hostname()

	return strings.HasSuffix(hostname, ".localhost") || hostname == "localhost" || isLoopbackAddress(uri)
}

// isLoopbackAddress determines if the address is an IPv4 or IPv6 loopback.
func isLoopbackAddress(uri *url.URL) bool {
	if uri == nil {
		return false
	}

	ip := net.ParseIP(uri.Hostname())

	return ip != nil && ip.IsLoopback()
}

// IsSecureRequest asserts the transport precondition: requests must arrive
// over TLS, either directly or behind a terminating proxy that sets
// X-Forwarded-Proto. Loopback requests are acceptable for local development.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	if strings.EqualFold(r.Header.Get(consts.HeaderForwardedProto), consts.SchemeHTTPS) {
		return true
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}

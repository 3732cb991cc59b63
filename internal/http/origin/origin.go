// Package origin derives the public scheme and host of a request.
package origin

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// FromContext returns scheme://host for the request. X-Forwarded-Proto from
// a fronting proxy wins over the connection's own TLS state.
func FromContext(ctx huma.Context) string {
	scheme := "http"
	if ctx.TLS() != nil {
		scheme = "https"
	}
	if proto := ctx.Header("X-Forwarded-Proto"); proto != "" {
		proto, _, _ = strings.Cut(proto, ",")
		if p := strings.ToLower(strings.TrimSpace(proto)); p == "http" || p == "https" {
			scheme = p
		}
	}
	return scheme + "://" + ctx.Host()
}

// Select returns configured when it is set, otherwise requested.
func Select(configured, requested string) string {
	if configured = strings.TrimRight(configured, "/"); configured != "" {
		return configured
	}
	return requested
}

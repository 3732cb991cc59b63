package middleware

import (
	"net/http"
	"strings"
)

const permissionsPolicy = "accelerometer=(), camera=(), geolocation=(), gyroscope=(), " +
	"magnetometer=(), microphone=(), payment=(), usb=()"

// SecurityPaths selects how Security treats a request path.
type SecurityPaths struct {
	// Docs prefixes are passed through untouched so the docs UI can load
	// its scripts and frames.
	Docs []string
	// Assets prefixes serve stored photos. They must stay embeddable from
	// the client's origin, so they only get nosniff and a cross-origin
	// resource policy.
	Assets []string
}

// Security sets OWASP REST headers on API responses.
func Security(paths SecurityPaths) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			switch {
			case hasPrefix(r.URL.Path, paths.Docs):
			case hasPrefix(r.URL.Path, paths.Assets):
				h.Set("Cross-Origin-Resource-Policy", "cross-origin")
				h.Set("X-Content-Type-Options", "nosniff")
			default:
				h.Set("Cache-Control", "no-store")
				h.Set("Content-Security-Policy", "frame-ancestors 'none'")
				h.Set("Cross-Origin-Opener-Policy", "same-origin")
				h.Set("Cross-Origin-Resource-Policy", "same-origin")
				h.Set("Permissions-Policy", permissionsPolicy)
				h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
				h.Set("X-Content-Type-Options", "nosniff")
				h.Set("X-Frame-Options", "DENY")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

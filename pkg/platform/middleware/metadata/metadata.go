package metadata

import (
	"net/http"
	"strings"

	"docverify/pkg/requestcontext"
)

// Headers the web layer uses to forward the end user's connection details.
// The service itself is only ever called by that collaborator, so the
// connection-level address is the web tier's, not the submitter's.
const (
	HeaderSubmitterIP        = "X-Submitter-IP"
	HeaderSubmitterUserAgent = "X-Submitter-User-Agent"
)

// ClientMetadata extracts the submitter IP address and User-Agent from the
// request and adds them to the context. Apply it early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := strings.TrimSpace(r.Header.Get(HeaderSubmitterIP))
		if ip == "" {
			ip = ClientIPFromRequest(r)
		}
		userAgent := r.Header.Get(HeaderSubmitterUserAgent)
		if userAgent == "" {
			userAgent = r.Header.Get("User-Agent")
		}

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, userAgent)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first entry is the original client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}

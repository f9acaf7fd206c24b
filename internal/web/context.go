package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/intake/internal/core"
)

// withClient adds the caller's IP and User-Agent to the context for audit logging.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), clientIP(r), r.UserAgent())
}

// clientIP returns the host part of RemoteAddr, already resolved by TrustedRealIP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

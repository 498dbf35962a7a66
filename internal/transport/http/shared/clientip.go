package shared

import (
	"net"
	"net/http"
	"strings"

	"hrcore/internal/requestctx"
)

// ClientIP prefers the address resolved by the real-ip middleware.
func ClientIP(r *http.Request) string {
	if ip := requestctx.GetClientIP(r.Context()); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

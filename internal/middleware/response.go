package middleware

import (
	"net"
	"net/http"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// clientIP expects chi's RealIP to have rewritten RemoteAddr for proxied
// requests; for direct connections it strips the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

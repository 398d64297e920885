package handler

import (
	"encoding/json"
	"net"
	"net/http"

	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/httputil"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid JSON body")
	}
	return nil
}

func clientInfo(r *http.Request) service.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return service.ClientInfo{
		IP:        ip,
		UserAgent: r.UserAgent(),
	}
}

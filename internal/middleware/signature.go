package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/config"
	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/signature"
)

const ServiceContextKey contextKey = "serviceName"

// GetServiceName returns the calling service identified by the request
// signature, or "" when the request was not signed.
func GetServiceName(ctx context.Context) string {
	if name, ok := ctx.Value(ServiceContextKey).(string); ok {
		return name
	}
	return ""
}

// SignatureMiddleware authenticates inter-service requests. Every request
// under its subtree must carry a valid HMAC signature; failures share one
// response so a probing caller learns nothing about which check failed.
type SignatureMiddleware struct {
	verifier *signature.Verifier
}

func NewSignatureMiddleware(verifier *signature.Verifier) *SignatureMiddleware {
	return &SignatureMiddleware{verifier: verifier}
}

func (m *SignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
					"error": "Request body too large",
					"code":  string(apperrors.ErrCodeValidation),
				})
				return
			}
			log.Error().Err(err).Msg("signature middleware: failed to read body")
			writeError(w, apperrors.Internal("Failed to read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		serviceName, err := m.verifier.Verify(
			r.Method,
			r.URL.Path,
			body,
			r.Header.Get(signature.HeaderAPIKey),
			r.Header.Get(signature.HeaderTimestamp),
			r.Header.Get(signature.HeaderSignature),
			time.Now(),
		)
		if err != nil {
			log.Warn().
				Str("path", r.URL.Path).
				Str("ip", clientIP(r)).
				Msg("signature middleware: rejected request")
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), ServiceContextKey, serviceName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

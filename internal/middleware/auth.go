package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/repository"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/token"
)

type contextKey string

const (
	AdminContextKey   contextKey = "admin"
	SessionContextKey contextKey = "sessionID"
	ClaimsContextKey  contextKey = "claims"
)

func GetAdmin(ctx context.Context) *model.Admin {
	if admin, ok := ctx.Value(AdminContextKey).(*model.Admin); ok {
		return admin
	}
	return nil
}

func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionContextKey).(string); ok {
		return id
	}
	return ""
}

func GetClaims(ctx context.Context) *token.AccessClaims {
	if claims, ok := ctx.Value(ClaimsContextKey).(*token.AccessClaims); ok {
		return claims
	}
	return nil
}

// AuthMiddleware verifies the bearer token and checks that the session it was
// issued against is still alive. A valid signature alone is not enough; a
// revoked session invalidates every access token minted for it.
type AuthMiddleware struct {
	tokens   *token.Manager
	sessions repository.SessionRepository
	admins   repository.AdminRepository
}

func NewAuthMiddleware(tokens *token.Manager, sessions repository.SessionRepository, admins repository.AdminRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, admins: admins}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearer(r)
		if tokenString == "" {
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		claims, err := m.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			writeError(w, err)
			return
		}

		session, err := m.sessions.FindByID(r.Context(), claims.ID)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: session lookup failed")
			writeError(w, apperrors.Database(err))
			return
		}
		if session == nil {
			log.Warn().Str("sessionId", claims.ID).Msg("auth middleware: token for revoked or expired session")
			writeError(w, apperrors.InvalidToken("Session is no longer active"))
			return
		}

		admin, err := m.admins.FindByID(r.Context(), session.AdminID)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: admin lookup failed")
			writeError(w, apperrors.Database(err))
			return
		}
		if admin == nil || !admin.IsActive {
			log.Warn().Str("adminId", session.AdminID).Msg("auth middleware: admin missing or inactive")
			writeError(w, apperrors.InvalidToken("Account is no longer active"))
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, admin)
		ctx = context.WithValue(ctx, SessionContextKey, session.ID)
		ctx = context.WithValue(ctx, ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/audit"
	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/ratelimit"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/repository"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/token"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

// ClientInfo carries per-request client metadata into sessions and audit rows.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

type LoginResult struct {
	Admin     *model.Admin `json:"admin"`
	Tokens    TokenPair    `json:"tokens"`
	SessionID string       `json:"sessionId"`
}

type AuthService struct {
	admins         repository.AdminRepository
	sessions       repository.SessionRepository
	tokens         *token.Manager
	recorder       *audit.Recorder
	loginLimiter   ratelimit.Limiter
	refreshLimiter ratelimit.Limiter
	refreshTTL     time.Duration
}

func NewAuthService(
	admins repository.AdminRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	recorder *audit.Recorder,
	loginLimiter ratelimit.Limiter,
	refreshLimiter ratelimit.Limiter,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		admins:         admins,
		sessions:       sessions,
		tokens:         tokens,
		recorder:       recorder,
		loginLimiter:   loginLimiter,
		refreshLimiter: refreshLimiter,
		refreshTTL:     refreshTTL,
	}
}

// Login validates credentials and creates a session with a fresh token pair.
// Failures are audited with their precise reason but surface as the same
// coarse error regardless of whether the username or the password was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string, client ClientInfo) (*LoginResult, error) {
	if err := s.recordAttempt(ctx, s.loginLimiter,
		ratelimit.Key("login", username),
		ratelimit.Key("ip", client.IP),
	); err != nil {
		return nil, err
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if admin == nil {
		s.recorder.Record(ctx, audit.Entry{
			Action:    audit.ActionLoginFailed,
			Details:   map[string]any{"reason": audit.ReasonUserNotFound, "username": username},
			IP:        client.IP,
			UserAgent: client.UserAgent,
		})
		return nil, apperrors.InvalidCredentials()
	}

	if !admin.IsActive {
		s.recorder.Record(ctx, audit.Entry{
			AdminID:   &admin.ID,
			Action:    audit.ActionLoginFailed,
			Details:   map[string]any{"reason": audit.ReasonAccountInactive},
			IP:        client.IP,
			UserAgent: client.UserAgent,
		})
		return nil, apperrors.AccountInactive()
	}

	if !util.CheckPasswordHash(password, admin.PasswordHash) {
		s.recorder.Record(ctx, audit.Entry{
			AdminID:   &admin.ID,
			Action:    audit.ActionLoginFailed,
			Details:   map[string]any{"reason": audit.ReasonInvalidPassword},
			IP:        client.IP,
			UserAgent: client.UserAgent,
		})
		return nil, apperrors.InvalidCredentials()
	}

	session, err := s.sessions.Reserve(ctx, model.ReserveSessionParams{
		ID:        util.NewID(),
		AdminID:   admin.ID,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	pair, err := s.issuePair(admin, session.ID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Finalize(ctx, session.ID, pair.RefreshToken); err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.admins.UpdateLastLogin(ctx, admin.ID, time.Now()); err != nil {
		// non-fatal; the login itself has succeeded
		log.Warn().Err(err).Str("admin_id", admin.ID).Msg("failed to update last login")
	}

	// successful authentication forgives earlier failed attempts for this
	// account, but the per-IP budget keeps counting
	if err := s.loginLimiter.Reset(ctx, ratelimit.Key("login", username)); err != nil {
		log.Warn().Err(err).Msg("failed to reset login rate limit")
	}

	s.recorder.Record(ctx, audit.Entry{
		AdminID:   &admin.ID,
		Action:    audit.ActionLoginSuccess,
		Details:   map[string]any{"sessionId": session.ID},
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})

	return &LoginResult{Admin: admin, Tokens: pair, SessionID: session.ID}, nil
}

// Logout revokes the caller's session.
func (s *AuthService) Logout(ctx context.Context, adminID, sessionID string, client ClientInfo) error {
	affected, err := s.sessions.Revoke(ctx, sessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if affected == 0 {
		return apperrors.NotFound("Session")
	}

	s.recorder.Record(ctx, audit.Entry{
		AdminID:   &adminID,
		Action:    audit.ActionLogout,
		Details:   map[string]any{"sessionId": sessionID},
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	return nil
}

// Refresh rotates a session's refresh token and issues a new token pair.
// The presented token must match the stored session value exactly; a stale
// retry and a replayed token fail identically.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*LoginResult, error) {
	if err := s.recordAttempt(ctx, s.refreshLimiter, ratelimit.Key("refresh", client.IP)); err != nil {
		return nil, err
	}

	sessionID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.InvalidToken("Invalid or expired refresh token").WithCause(err)
	}

	session, err := s.sessions.FindByRefreshToken(ctx, sessionID, refreshToken)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		s.recorder.Record(ctx, audit.Entry{
			Action:    audit.ActionTokenRefreshFailed,
			Details:   map[string]any{"reason": audit.ReasonTokenMismatch, "sessionId": sessionID},
			IP:        client.IP,
			UserAgent: client.UserAgent,
		})
		return nil, apperrors.InvalidToken("Invalid or expired refresh token")
	}

	admin, err := s.admins.FindByID(ctx, session.AdminID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if admin == nil || !admin.IsActive {
		// revoke so a zombie session cannot be presented again
		if _, revokeErr := s.sessions.Revoke(ctx, session.ID); revokeErr != nil {
			log.Error().Err(revokeErr).Str("session_id", session.ID).Msg("failed to revoke orphaned session")
		}
		s.recorder.Record(ctx, audit.Entry{
			Action:    audit.ActionTokenRefreshFailed,
			Details:   map[string]any{"reason": audit.ReasonAdminGone, "sessionId": session.ID},
			IP:        client.IP,
			UserAgent: client.UserAgent,
		})
		return nil, apperrors.InvalidToken("Invalid or expired refresh token")
	}

	pair, err := s.issuePair(admin, session.ID)
	if err != nil {
		return nil, err
	}

	affected, err := s.sessions.Rotate(ctx, session.ID, pair.RefreshToken, client.IP, client.UserAgent)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if affected == 0 {
		// session revoked between lookup and rotation
		return nil, apperrors.InvalidToken("Invalid or expired refresh token")
	}

	s.recorder.Record(ctx, audit.Entry{
		AdminID:   &admin.ID,
		Action:    audit.ActionTokenRefresh,
		Details:   map[string]any{"sessionId": session.ID},
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})

	return &LoginResult{Admin: admin, Tokens: pair, SessionID: session.ID}, nil
}

// CleanupExpiredSessions deletes expired session rows and returns the count.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) issuePair(admin *model.Admin, sessionID string) (TokenPair, error) {
	accessToken, expiresIn, err := s.tokens.IssueAccessToken(admin, sessionID)
	if err != nil {
		return TokenPair{}, apperrors.Internal("Failed to issue access token").WithCause(err)
	}
	refreshToken, _, err := s.tokens.IssueRefreshToken(sessionID)
	if err != nil {
		return TokenPair{}, apperrors.Internal("Failed to issue refresh token").WithCause(err)
	}
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    "Bearer",
	}, nil
}

// recordAttempt counts an attempt on every key and refuses the request if any
// budget is exhausted. A limiter failure denies the request: failing open
// would let an attacker disable rate limiting by degrading its backend.
func (s *AuthService) recordAttempt(ctx context.Context, limiter ratelimit.Limiter, keys ...string) error {
	for _, key := range keys {
		result, err := limiter.Record(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, denying request")
			return apperrors.RateLimited()
		}
		if result.Blocked {
			return apperrors.RateLimited()
		}
	}
	return nil
}

package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

const (
	minSecretLength  = 32
	refreshTokenType = "refresh"
)

// AccessClaims is the payload of a short-lived bearer token. The jti carries
// the session id so callers can cross-check the token against a live session.
type AccessClaims struct {
	Username    string            `json:"username"`
	Role        model.Role        `json:"role"`
	Permissions model.Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

// RefreshClaims marks long-lived refresh tokens. Verification of a refresh
// token proves shape and signature only; possession is authorized by matching
// the stored session value.
type RefreshClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager fails when the signing secret is too short. This is checked once
// at process start, never per request.
func NewManager(secret, issuer, audience string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if len(secret) < minSecretLength {
		return nil, apperrors.Config("token signing secret must be at least 32 bytes")
	}
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccessToken signs a bearer token for the admin bound to sessionID.
// Returns the token and its lifetime in seconds.
func (m *Manager) IssueAccessToken(admin *model.Admin, sessionID string) (string, int, error) {
	now := time.Now()
	claims := AccessClaims{
		Username:    admin.Username,
		Role:        admin.Role,
		Permissions: admin.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        sessionID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(m.accessTTL.Seconds()), nil
}

// IssueRefreshToken signs a refresh token bound to sessionID. The jti is a
// fresh random id per token, so two tokens minted for the same session in the
// same second still differ and rotation always produces a new value.
func (m *Manager) IssueRefreshToken(sessionID string) (string, int, error) {
	now := time.Now()
	claims := RefreshClaims{
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			ID:        util.NewID(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(m.refreshTTL.Seconds()), nil
}

// VerifyAccessToken checks signature, issuer, audience, expiry and payload
// shape. It does not consult the session store; callers must cross-check the
// returned jti against a live session.
func (m *Manager) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if !util.IsValidID(claims.Subject) {
		return nil, apperrors.InvalidToken("Invalid token subject")
	}
	if !claims.Role.Valid() {
		return nil, apperrors.InvalidToken("Invalid token role")
	}
	if !util.IsValidID(claims.ID) {
		return nil, apperrors.InvalidToken("Invalid token session id")
	}
	return claims, nil
}

// VerifyRefreshToken returns the session id claimed by a refresh token.
func (m *Manager) VerifyRefreshToken(tokenString string) (string, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return "", err
	}

	if claims.TokenType != refreshTokenType {
		return "", apperrors.InvalidToken("Not a refresh token")
	}
	if !util.IsValidID(claims.Subject) {
		return "", apperrors.InvalidToken("Invalid token session id")
	}
	if !util.IsValidID(claims.ID) {
		return "", apperrors.InvalidToken("Invalid token id")
	}
	return claims.Subject, nil
}

func (m *Manager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return apperrors.TokenExpired().WithCause(err)
		}
		return apperrors.InvalidToken("Invalid token").WithCause(err)
	}
	if !token.Valid {
		return apperrors.InvalidToken("Invalid token")
	}
	return nil
}

package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

const (
	testIssuer   = "mythologia-admin"
	testAudience = "mythologia-api"
)

var testSecret = strings.Repeat("s", 32)

func newTestManager(t *testing.T, accessTTL, refreshTTL time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, testIssuer, testAudience, accessTTL, refreshTTL)
	require.NoError(t, err)
	return m
}

func testAdmin() *model.Admin {
	return &model.Admin{
		ID:       util.NewID(),
		Username: "admin1",
		Role:     model.RoleAdmin,
		Permissions: model.Permissions{
			{Resource: "cards", Actions: []string{"read", "write"}},
		},
		IsActive: true,
	}
}

func TestNewManager(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewManager("short", testIssuer, testAudience, time.Minute, time.Hour)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeConfig, apperrors.GetCode(err))
	})

	t.Run("accepts 32 byte secret", func(t *testing.T) {
		_, err := NewManager(testSecret, testIssuer, testAudience, time.Minute, time.Hour)
		assert.NoError(t, err)
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t, 15*time.Minute, 7*24*time.Hour)
	admin := testAdmin()
	sessionID := util.NewID()

	signed, expiresIn, err := m.IssueAccessToken(admin, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int((15 * time.Minute).Seconds()), expiresIn)

	claims, err := m.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.Subject)
	assert.Equal(t, admin.Username, claims.Username)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, admin.Permissions, claims.Permissions)
	assert.Equal(t, sessionID, claims.ID)
}

func TestAccessTokenTampering(t *testing.T) {
	m := newTestManager(t, 15*time.Minute, time.Hour)
	signed, _, err := m.IssueAccessToken(testAdmin(), util.NewID())
	require.NoError(t, err)

	t.Run("flipping one byte fails verification", func(t *testing.T) {
		for _, pos := range []int{10, len(signed) / 2, len(signed) - 2} {
			tampered := []byte(signed)
			if tampered[pos] == 'A' {
				tampered[pos] = 'B'
			} else {
				tampered[pos] = 'A'
			}
			_, err := m.VerifyAccessToken(string(tampered))
			assert.Error(t, err, "tampered byte at %d should fail", pos)
		}
	})

	t.Run("different secret fails verification", func(t *testing.T) {
		other, err := NewManager(strings.Repeat("x", 32), testIssuer, testAudience, time.Minute, time.Hour)
		require.NoError(t, err)
		_, err = other.VerifyAccessToken(signed)
		assert.Error(t, err)
	})
}

func TestAccessTokenExpiry(t *testing.T) {
	t.Run("expired token fails", func(t *testing.T) {
		m := newTestManager(t, -time.Second, time.Hour)
		signed, _, err := m.IssueAccessToken(testAdmin(), util.NewID())
		require.NoError(t, err)

		_, err = m.VerifyAccessToken(signed)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
	})

	t.Run("unexpired token passes", func(t *testing.T) {
		m := newTestManager(t, time.Hour, time.Hour)
		signed, _, err := m.IssueAccessToken(testAdmin(), util.NewID())
		require.NoError(t, err)

		_, err = m.VerifyAccessToken(signed)
		assert.NoError(t, err)
	})
}

func TestAccessTokenIssuerAudience(t *testing.T) {
	m := newTestManager(t, time.Hour, time.Hour)
	signed, _, err := m.IssueAccessToken(testAdmin(), util.NewID())
	require.NoError(t, err)

	t.Run("wrong issuer rejected", func(t *testing.T) {
		other, err := NewManager(testSecret, "other-issuer", testAudience, time.Hour, time.Hour)
		require.NoError(t, err)
		_, err = other.VerifyAccessToken(signed)
		assert.Error(t, err)
	})

	t.Run("wrong audience rejected", func(t *testing.T) {
		other, err := NewManager(testSecret, testIssuer, "other-audience", time.Hour, time.Hour)
		require.NoError(t, err)
		_, err = other.VerifyAccessToken(signed)
		assert.Error(t, err)
	})
}

func TestRefreshToken(t *testing.T) {
	m := newTestManager(t, time.Minute, 7*24*time.Hour)

	t.Run("round trip returns session id", func(t *testing.T) {
		sessionID := util.NewID()
		signed, expiresIn, err := m.IssueRefreshToken(sessionID)
		require.NoError(t, err)
		assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), expiresIn)

		got, err := m.VerifyRefreshToken(signed)
		require.NoError(t, err)
		assert.Equal(t, sessionID, got)
	})

	t.Run("reissue for the same session yields a distinct token", func(t *testing.T) {
		sessionID := util.NewID()
		first, _, err := m.IssueRefreshToken(sessionID)
		require.NoError(t, err)
		second, _, err := m.IssueRefreshToken(sessionID)
		require.NoError(t, err)

		// both resolve to the session, but the values must never collide,
		// even when minted within the same second
		assert.NotEqual(t, first, second)
		for _, signed := range []string{first, second} {
			got, err := m.VerifyRefreshToken(signed)
			require.NoError(t, err)
			assert.Equal(t, sessionID, got)
		}
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		signed, _, err := m.IssueAccessToken(testAdmin(), util.NewID())
		require.NoError(t, err)

		_, err = m.VerifyRefreshToken(signed)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		signed, _, err := m.IssueRefreshToken(util.NewID())
		require.NoError(t, err)

		_, err = m.VerifyAccessToken(signed)
		assert.Error(t, err)
	})
}

func TestVerifyRejectsMalformedPayload(t *testing.T) {
	m := newTestManager(t, time.Hour, time.Hour)

	t.Run("invalid role", func(t *testing.T) {
		admin := testAdmin()
		admin.Role = "owner"
		signed, _, err := m.IssueAccessToken(admin, util.NewID())
		require.NoError(t, err)

		_, err = m.VerifyAccessToken(signed)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})

	t.Run("malformed session id", func(t *testing.T) {
		signed, _, err := m.IssueAccessToken(testAdmin(), "not-a-uuid")
		require.NoError(t, err)

		_, err = m.VerifyAccessToken(signed)
		assert.Error(t, err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := m.VerifyAccessToken("not.a.jwt")
		assert.Error(t, err)
	})
}

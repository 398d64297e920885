package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func sessionColumns() []string {
	return []string{"id", "admin_id", "refresh_token", "ip_address", "user_agent", "expires_at", "last_used_at", "created_at"}
}

func TestSessionRepoReserve(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	now := time.Now()
	expiresAt := now.Add(7 * 24 * time.Hour)

	mock.ExpectQuery("INSERT INTO admin_sessions").
		WithArgs("sid-1", "admin-1", "10.0.0.1", "curl/8", expiresAt).
		WillReturnRows(sqlmock.NewRows(sessionColumns()).
			AddRow("sid-1", "admin-1", nil, "10.0.0.1", "curl/8", expiresAt, now, now))

	session, err := repo.Reserve(context.Background(), model.ReserveSessionParams{
		ID:        "sid-1",
		AdminID:   "admin-1",
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8",
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "sid-1", session.ID)
	assert.Nil(t, session.RefreshToken, "reserved session must not carry a refresh token yet")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepoFinalize(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectExec("UPDATE admin_sessions SET refresh_token").
		WithArgs("sid-1", "token-v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Finalize(context.Background(), "sid-1", "token-v1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepoFindByRefreshToken(t *testing.T) {
	t.Run("match returns session", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSessionRepository(db)

		now := time.Now()
		token := "token-v1"
		mock.ExpectQuery("SELECT \\* FROM admin_sessions").
			WithArgs("sid-1", token).
			WillReturnRows(sqlmock.NewRows(sessionColumns()).
				AddRow("sid-1", "admin-1", &token, "10.0.0.1", "curl/8", now.Add(time.Hour), now, now))

		session, err := repo.FindByRefreshToken(context.Background(), "sid-1", token)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, "admin-1", session.AdminID)
	})

	t.Run("mismatch returns nil without error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSessionRepository(db)

		mock.ExpectQuery("SELECT \\* FROM admin_sessions").
			WithArgs("sid-1", "stale-token").
			WillReturnRows(sqlmock.NewRows(sessionColumns()))

		session, err := repo.FindByRefreshToken(context.Background(), "sid-1", "stale-token")
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}

func TestSessionRepoRotate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectExec("UPDATE admin_sessions SET").
		WithArgs("sid-1", "token-v2", "10.0.0.2", "curl/9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Rotate(context.Background(), "sid-1", "token-v2", "10.0.0.2", "curl/9")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepoRevoke(t *testing.T) {
	t.Run("reports zero rows for missing session", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSessionRepository(db)

		mock.ExpectExec("DELETE FROM admin_sessions WHERE id").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.Revoke(context.Background(), "missing")
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestSessionRepoRevokeAllForAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectExec("DELETE FROM admin_sessions WHERE admin_id").
		WithArgs("admin-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.RevokeAllForAdmin(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}

func TestSessionRepoDeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectExec("DELETE FROM admin_sessions WHERE expires_at").
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

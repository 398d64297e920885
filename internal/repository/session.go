package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
)

// SessionRepository persists admin login sessions. Creation is two-phase:
// Reserve inserts the row without a refresh token (the token encodes the
// session id, so it cannot exist before the row does), Finalize stores the
// real token. FindByRefreshToken only ever matches finalized, unexpired rows.
type SessionRepository interface {
	Reserve(ctx context.Context, params model.ReserveSessionParams) (*model.AdminSession, error)
	Finalize(ctx context.Context, id string, refreshToken string) error
	FindByID(ctx context.Context, id string) (*model.AdminSession, error)
	FindByRefreshToken(ctx context.Context, id string, refreshToken string) (*model.AdminSession, error)
	Rotate(ctx context.Context, id string, refreshToken, ip, userAgent string) (int64, error)
	ListByAdmin(ctx context.Context, adminID string) ([]model.AdminSession, error)
	Revoke(ctx context.Context, id string) (int64, error)
	RevokeAllForAdmin(ctx context.Context, adminID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type sessionRepo struct {
	db sessionDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Reserve(ctx context.Context, params model.ReserveSessionParams) (*model.AdminSession, error) {
	var session model.AdminSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO admin_sessions (id, admin_id, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ID, params.AdminID, params.IPAddress, params.UserAgent, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Finalize(ctx context.Context, id string, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admin_sessions SET refresh_token = $2 WHERE id = $1
	`, id, refreshToken)
	return err
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.AdminSession, error) {
	var session model.AdminSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM admin_sessions
		WHERE id = $1 AND expires_at > NOW()
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindByRefreshToken(ctx context.Context, id string, refreshToken string) (*model.AdminSession, error) {
	var session model.AdminSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM admin_sessions
		WHERE id = $1 AND refresh_token = $2 AND expires_at > NOW()
	`, id, refreshToken)
	return HandleNotFound(&session, err)
}

// Rotate overwrites the refresh token in a single UPDATE so concurrent
// refreshes resolve last-writer-wins: the loser's token no longer matches
// and its next FindByRefreshToken fails.
func (r *sessionRepo) Rotate(ctx context.Context, id string, refreshToken, ip, userAgent string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE admin_sessions SET
			refresh_token = $2,
			ip_address = $3,
			user_agent = $4,
			last_used_at = NOW()
		WHERE id = $1
	`, id, refreshToken, ip, userAgent)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) ListByAdmin(ctx context.Context, adminID string) ([]model.AdminSession, error) {
	var sessions []model.AdminSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM admin_sessions
		WHERE admin_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`, adminID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Revoke(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) RevokeAllForAdmin(ctx context.Context, adminID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE admin_id = $1`, adminID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

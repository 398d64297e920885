package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
)

type AdminRepository interface {
	FindByID(ctx context.Context, id string) (*model.Admin, error)
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	Create(ctx context.Context, params model.CreateAdminParams) (*model.Admin, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateEmail(ctx context.Context, id string, email string) (*model.Admin, error)
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int, error)
}

type adminRepo struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.GetContext(ctx, &admin, `
		SELECT * FROM admins WHERE id = $1
	`, id)
	return HandleNotFound(&admin, err)
}

func (r *adminRepo) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.GetContext(ctx, &admin, `
		SELECT * FROM admins WHERE username = $1
	`, username)
	return HandleNotFound(&admin, err)
}

func (r *adminRepo) Create(ctx context.Context, params model.CreateAdminParams) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.GetContext(ctx, &admin, `
		INSERT INTO admins (id, username, email, password_hash, role, permissions, is_super_admin, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.ID, params.Username, params.Email, params.PasswordHash,
		params.Role, params.Permissions, params.IsSuperAdmin, params.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET last_login_at = $2, updated_at = NOW() WHERE id = $1
	`, id, at)
	return err
}

func (r *adminRepo) UpdateEmail(ctx context.Context, id string, email string) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.GetContext(ctx, &admin, `
		UPDATE admins SET email = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, email)
	return HandleNotFound(&admin, err)
}

func (r *adminRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, hash)
	return err
}

func (r *adminRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET is_active = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	return err
}

func (r *adminRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM admins`)
	return count, err
}

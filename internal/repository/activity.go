package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
)

const defaultActivityLimit = 100

type ActivityRepository interface {
	Insert(ctx context.Context, params model.RecordActivityParams) error
	List(ctx context.Context, filter model.ActivityFilter) ([]model.ActivityLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type activityRepo struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Insert(ctx context.Context, params model.RecordActivityParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, admin_id, action, target_type, target_id, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, params.ID, params.AdminID, params.Action, params.TargetType, params.TargetID,
		params.Details, params.IPAddress, params.UserAgent)
	return err
}

func (r *activityRepo) List(ctx context.Context, filter model.ActivityFilter) ([]model.ActivityLog, error) {
	conditions := []string{}
	args := []any{}

	addCondition := func(clause string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.AdminID != "" {
		addCondition("admin_id = $%d", filter.AdminID)
	}
	if filter.Action != "" {
		addCondition("action = $%d", filter.Action)
	}
	if !filter.Since.IsZero() {
		addCondition("created_at >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		addCondition("created_at <= $%d", filter.Until)
	}

	query := `SELECT * FROM activity_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var logs []model.ActivityLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *activityRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

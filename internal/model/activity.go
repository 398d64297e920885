package model

import (
	"encoding/json"
	"time"
)

// ActivityLog is an append-only security audit record. Rows are never updated
// or deleted except by the time-based retention sweep.
type ActivityLog struct {
	ID         string           `db:"id" json:"id"`
	AdminID    *string          `db:"admin_id" json:"adminId,omitempty"`
	Action     string           `db:"action" json:"action"`
	TargetType *string          `db:"target_type" json:"targetType,omitempty"`
	TargetID   *string          `db:"target_id" json:"targetId,omitempty"`
	Details    *json.RawMessage `db:"details" json:"details,omitempty"`
	IPAddress  *string          `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent  *string          `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}

type RecordActivityParams struct {
	ID         string
	AdminID    *string
	Action     string
	TargetType *string
	TargetID   *string
	Details    *json.RawMessage
	IPAddress  *string
	UserAgent  *string
}

// ActivityFilter narrows activity-log queries. Zero values mean "no filter".
type ActivityFilter struct {
	AdminID string
	Action  string
	Since   time.Time
	Until   time.Time
	Limit   int
}

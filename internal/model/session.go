package model

import (
	"time"
)

// AdminSession is one active login. The session id doubles as the JWT jti.
// RefreshToken holds the current refresh-token value verbatim; it is NULL
// between Reserve and Finalize, so a half-created session can never match a
// presented token.
type AdminSession struct {
	ID           string    `db:"id" json:"id"`
	AdminID      string    `db:"admin_id" json:"adminId"`
	RefreshToken *string   `db:"refresh_token" json:"-"`
	IPAddress    string    `db:"ip_address" json:"ipAddress"`
	UserAgent    string    `db:"user_agent" json:"userAgent"`
	ExpiresAt    time.Time `db:"expires_at" json:"expiresAt"`
	LastUsedAt   time.Time `db:"last_used_at" json:"lastUsedAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type ReserveSessionParams struct {
	ID        string
	AdminID   string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
}

// SessionView is the sanitized shape returned by the session-list endpoint.
type SessionView struct {
	ID         string    `json:"id"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	IsCurrent  bool      `json:"isCurrent"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
}

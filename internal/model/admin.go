package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleViewer     Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleViewer:
		return true
	}
	return false
}

// Permission grants a set of actions on one resource, e.g.
// {Resource: "cards", Actions: ["read", "write"]}.
type Permission struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// Permissions is stored as a jsonb column.
type Permissions []Permission

func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

func (p *Permissions) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into Permissions", src)
	}
}

type Admin struct {
	ID           string      `db:"id" json:"id"`
	Username     string      `db:"username" json:"username"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Role         Role        `db:"role" json:"role"`
	Permissions  Permissions `db:"permissions" json:"permissions"`
	IsActive     bool        `db:"is_active" json:"isActive"`
	IsSuperAdmin bool        `db:"is_super_admin" json:"isSuperAdmin"`
	CreatedBy    *string     `db:"created_by" json:"createdBy,omitempty"`
	LastLoginAt  *time.Time  `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// HasPermission reports whether the admin may perform action on resource.
// A super admin is unrestricted regardless of the permission set.
func (a *Admin) HasPermission(resource, action string) bool {
	if a.IsSuperAdmin {
		return true
	}
	for _, p := range a.Permissions {
		if p.Resource != resource {
			continue
		}
		for _, act := range p.Actions {
			if act == action || act == "*" {
				return true
			}
		}
	}
	return false
}

type CreateAdminParams struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Permissions  Permissions
	IsSuperAdmin bool
	CreatedBy    *string
}

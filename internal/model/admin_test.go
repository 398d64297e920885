package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleSuperAdmin.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleViewer.Valid())
	assert.False(t, Role("owner").Valid())
	assert.False(t, Role("").Valid())
}

func TestHasPermission(t *testing.T) {
	admin := &Admin{
		Role: RoleAdmin,
		Permissions: Permissions{
			{Resource: "cards", Actions: []string{"read", "write"}},
			{Resource: "decks", Actions: []string{"*"}},
		},
	}

	assert.True(t, admin.HasPermission("cards", "read"))
	assert.True(t, admin.HasPermission("cards", "write"))
	assert.False(t, admin.HasPermission("cards", "delete"))
	assert.False(t, admin.HasPermission("admins", "create"))

	// wildcard action covers everything on that resource
	assert.True(t, admin.HasPermission("decks", "delete"))

	super := &Admin{Role: RoleSuperAdmin, IsSuperAdmin: true}
	assert.True(t, super.HasPermission("anything", "at-all"))
}

func TestPermissionsRoundTrip(t *testing.T) {
	perms := Permissions{{Resource: "cards", Actions: []string{"read"}}}

	value, err := perms.Value()
	require.NoError(t, err)

	var scanned Permissions
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, perms, scanned)
}

func TestPermissionsScan(t *testing.T) {
	t.Run("nil column", func(t *testing.T) {
		var p Permissions
		require.NoError(t, p.Scan(nil))
		assert.Nil(t, p)
	})

	t.Run("string source", func(t *testing.T) {
		var p Permissions
		require.NoError(t, p.Scan(`[{"resource":"cards","actions":["read"]}]`))
		require.Len(t, p, 1)
		assert.Equal(t, "cards", p[0].Resource)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var p Permissions
		assert.Error(t, p.Scan(42))
	})

	t.Run("nil slice marshals to empty array", func(t *testing.T) {
		var p Permissions
		value, err := p.Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), value)
	})
}

func TestAdminJSONHidesPasswordHash(t *testing.T) {
	admin := Admin{Username: "root", PasswordHash: "$2a$12$secret"}

	raw, err := json.Marshal(admin)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), `"username":"root"`)
}

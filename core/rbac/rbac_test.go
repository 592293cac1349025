package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	assert.False(t, Can(nil, CapModerateEvents))
	assert.False(t, Can([]Role{RoleMember}, CapModerateEvents))
	assert.False(t, Can([]Role{RoleMember}, CapSubmitValidated))

	assert.True(t, Can([]Role{RoleContributor}, CapModerateEvents))
	assert.True(t, Can([]Role{RoleContributor}, CapSubmitValidated))
	assert.False(t, Can([]Role{RoleContributor}, CapImportEvents))
	assert.False(t, Can([]Role{RoleContributor}, CapManageUsers))

	assert.True(t, Can([]Role{RoleAdmin}, CapImportEvents))
	assert.True(t, Can([]Role{RoleAdmin}, CapManageSubscriptions))

	// Any role in the set granting the capability is enough.
	assert.True(t, Can([]Role{RoleMember, RoleContributor}, CapModerateEvents))
}

func TestParseRolesDropsUnknown(t *testing.T) {
	got := ParseRoles([]string{"member", "superuser", "admin", ""})
	assert.Equal(t, []Role{RoleMember, RoleAdmin}, got)
}

package entity

import (
	"tango-agenda/core/entity"
	"tango-agenda/core/rbac"

	"github.com/lib/pq"
)

// User is a calendar member: a visitor who registered, subscribed to a
// digest, or contributes events.
type User struct {
	Name         string         `db:"name" json:"name"`
	Email        string         `db:"email" json:"email"`
	PasswordHash *string        `db:"password_hash" json:"-"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	entity.BaseEntity
}

// RoleSet converts the stored roles column into typed roles.
func (u *User) RoleSet() []rbac.Role {
	return rbac.ParseRoles([]string(u.Roles))
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role rbac.Role) bool {
	for _, r := range u.Roles {
		if rbac.Role(r) == role {
			return true
		}
	}
	return false
}

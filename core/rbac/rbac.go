package rbac

// Role is a coarse-grained group a user belongs to.
type Role string

const (
	RoleMember      Role = "member"
	RoleContributor Role = "contributor"
	RoleAdmin       Role = "admin"
)

// Capability names a single guarded operation. Services check capabilities
// against the caller's explicit role set instead of looking up sessions
// themselves.
type Capability string

const (
	CapSubmitValidated          Capability = "events:submit_validated"
	CapModerateEvents           Capability = "events:moderate"
	CapImportEvents             Capability = "events:import"
	CapViewPrivateSubscriptions Capability = "subscriptions:view_private"
	CapManageSubscriptions      Capability = "subscriptions:manage"
	CapManageUsers              Capability = "users:manage"
)

var grants = map[Role][]Capability{
	RoleMember: {},
	RoleContributor: {
		CapSubmitValidated,
		CapModerateEvents,
		CapViewPrivateSubscriptions,
	},
	RoleAdmin: {
		CapSubmitValidated,
		CapModerateEvents,
		CapImportEvents,
		CapViewPrivateSubscriptions,
		CapManageSubscriptions,
		CapManageUsers,
	},
}

// Can reports whether any of the caller's roles grants the capability.
func Can(roles []Role, cap Capability) bool {
	for _, r := range roles {
		for _, c := range grants[r] {
			if c == cap {
				return true
			}
		}
	}
	return false
}

// ParseRoles converts raw strings (e.g. a TEXT[] column) into roles, keeping
// only known values.
func ParseRoles(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		switch Role(s) {
		case RoleMember, RoleContributor, RoleAdmin:
			out = append(out, Role(s))
		}
	}
	return out
}

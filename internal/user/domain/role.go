package domain

// Role is a user role name as carried in token claims.
type Role string

const (
	RoleUser     Role = "USER"
	RoleAdmin    Role = "ADMIN"
	RoleTemporal Role = "TEMPORAL"
)

// ParseRole returns the Role for name and whether it is known.
// Unknown names are dropped by callers rather than failing a whole token.
func ParseRole(name string) (Role, bool) {
	switch Role(name) {
	case RoleUser, RoleAdmin, RoleTemporal:
		return Role(name), true
	default:
		return "", false
	}
}

// RoleNames returns the string names for a role list.
func RoleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

// HasRole reports whether roles contains r.
func HasRole(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}

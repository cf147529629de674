package auth

// Role is the closed set of authorization levels. Guest stands for the
// unauthenticated case so callers never branch on empty strings.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes a persisted role string. Unknown or unset values map
// to RoleUser, matching how accounts were defaulted historically.
func ParseRole(s string) Role {
	switch s {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Authenticated reports whether the role belongs to a signed-in user.
func (r Role) Authenticated() bool {
	return r == RoleUser || r == RoleAdmin
}

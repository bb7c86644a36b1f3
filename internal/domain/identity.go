package domain

// Role is the caller's platform role, verified upstream by the identity
// service.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether the string is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Identity is the verified caller identity attached to every request.
type Identity struct {
	UserID        string
	Role          Role
	AccountActive bool
}

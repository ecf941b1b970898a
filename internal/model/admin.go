package model

// RoleAdmin is the only role issued by the portal. There is exactly one
// configured administrator; the role travels inside the bearer token so that
// handlers can check it without consulting configuration again.
const RoleAdmin = "admin"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

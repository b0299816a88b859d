// Package session holds the client-side session model: the identity
// record, the lifecycle state machine, and the timestamp markers that
// smooth races around login and logout.
package session

import "time"

// Role is the authorization role carried by an identity.
type Role string

const (
	// RoleAdmin is a global platform administrator.
	RoleAdmin Role = "admin"
	// RoleManager manages a single tenant (hotel) account.
	RoleManager Role = "manager"
	// RoleStaff is tenant staff with operational access.
	RoleStaff Role = "staff"
)

// In reports whether r is a member of roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// User is the identity record returned by the identity probe.
// TenantID is empty for global administrators.
type User struct {
	ID          string     `json:"id" yaml:"id"`
	TenantID    string     `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	Email       string     `json:"email" yaml:"email"`
	Role        Role       `json:"role" yaml:"role"`
	IsActive    bool       `json:"is_active" yaml:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" yaml:"last_login_at,omitempty"`
}

// HasRole reports whether the user's role is a member of the required
// set. A single role argument is the singleton set.
func (u *User) HasRole(required ...Role) bool {
	if u == nil {
		return false
	}
	return u.Role.In(required...)
}

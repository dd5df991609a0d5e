package models

import "time"

// UserRole is the authorization role of a user.
type UserRole string

const (
	RoleAuthorityAdmin    UserRole = "AUTHORITY_ADMIN"
	RoleOrganizationAdmin UserRole = "ORGANIZATION_ADMIN"
	RoleOrganizationPilot UserRole = "ORGANIZATION_PILOT"
	RoleSoloPilot         UserRole = "SOLO_PILOT"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAuthorityAdmin, RoleOrganizationAdmin, RoleOrganizationPilot, RoleSoloPilot:
		return true
	}
	return false
}

// IsPilot reports whether r may submit and fly flight plans.
func (r UserRole) IsPilot() bool {
	return r == RoleOrganizationPilot || r == RoleSoloPilot
}

// User represents an account in the system.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           UserRole  `db:"role" json:"role"`
	OrganizationID *int64    `db:"organization_id" json:"organization_id,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// InOrganization reports whether the user belongs to organization id.
func (u *User) InOrganization(id *int64) bool {
	return u != nil && u.OrganizationID != nil && id != nil && *u.OrganizationID == *id
}

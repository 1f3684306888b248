package models

import "github.com/google/uuid"

// PrincipalKind distinguishes the two independent actor types
type PrincipalKind string

const (
	KindCustomer PrincipalKind = "customer"
	KindAdmin    PrincipalKind = "admin"
)

// Principal is the identity resolved for the current request.
// Customer principals carry an organization id; admin principals never do.
type Principal struct {
	ID             uuid.UUID     `json:"id"`
	Kind           PrincipalKind `json:"kind"`
	Email          string        `json:"email"`
	Role           string        `json:"role"`
	Permissions    []string      `json:"permissions"`
	IsActive       bool          `json:"is_active"`
	OrganizationID *uuid.UUID    `json:"organization_id,omitempty"`
}

// HasPermission reports whether the permission is in the principal's set.
// Role is not consulted.
func (p *Principal) HasPermission(permission string) bool {
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal's role is one of roles
func (p *Principal) HasRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// BelongsTo reports whether the principal is a member of the organization
func (p *Principal) BelongsTo(orgID uuid.UUID) bool {
	return p.Kind == KindCustomer && p.OrganizationID != nil && *p.OrganizationID == orgID
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a customer user within an organization
type UserRole string

const (
	RoleOwner   UserRole = "owner"
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleEditor  UserRole = "editor"
	RoleViewer  UserRole = "viewer"
)

// User represents a customer user. A user belongs to at most one organization.
type User struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	Name           string     `json:"name" db:"name"`
	Role           UserRole   `json:"role" db:"role"`
	Permissions    []string   `json:"permissions" db:"permissions"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty" db:"organization_id"`
	LastActiveAt   *time.Time `json:"last_active_at,omitempty" db:"last_active_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`

	// Organization is populated by the repository when the user is linked to one
	Organization *Organization `json:"organization,omitempty" db:"-"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new active User in the given organization
func NewUser(email, name string, orgID uuid.UUID, role UserRole, permissions []string) *User {
	now := time.Now()
	return &User{
		ID:             uuid.New(),
		Email:          email,
		Name:           name,
		Role:           role,
		Permissions:    permissions,
		IsActive:       true,
		OrganizationID: &orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Principal returns the request identity for this user
func (u *User) Principal() *Principal {
	return &Principal{
		ID:             u.ID,
		Kind:           KindCustomer,
		Email:          u.Email,
		Role:           string(u.Role),
		Permissions:    u.Permissions,
		IsActive:       u.IsActive,
		OrganizationID: u.OrganizationID,
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminRole represents the role of a platform administrator
type AdminRole string

const (
	AdminRoleSuperAdmin       AdminRole = "super_admin"
	AdminRoleAdmin            AdminRole = "admin"
	AdminRoleSupportManager   AdminRole = "support_manager"
	AdminRoleFinancialManager AdminRole = "financial_manager"
	AdminRoleTechnicalManager AdminRole = "technical_manager"
	AdminRoleContentManager   AdminRole = "content_manager"
)

// AdminUser represents a platform operator. Admins are never linked to an organization.
type AdminUser struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Name        string     `json:"name" db:"name"`
	Role        AdminRole  `json:"role" db:"role"`
	Permissions []string   `json:"permissions" db:"permissions"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the AdminUser model
func (AdminUser) TableName() string {
	return "admin_users"
}

// NewAdminUser creates a new active AdminUser
func NewAdminUser(email, name string, role AdminRole, permissions []string) *AdminUser {
	now := time.Now()
	return &AdminUser{
		ID:          uuid.New(),
		Email:       email,
		Name:        name,
		Role:        role,
		Permissions: permissions,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Principal returns the request identity for this admin
func (a *AdminUser) Principal() *Principal {
	return &Principal{
		ID:          a.ID,
		Kind:        KindAdmin,
		Email:       a.Email,
		Role:        string(a.Role),
		Permissions: a.Permissions,
		IsActive:    a.IsActive,
	}
}

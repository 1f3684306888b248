package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditCategory separates ordinary activity from security events
type AuditCategory string

const (
	AuditCategoryActivity AuditCategory = "activity"
	AuditCategorySecurity AuditCategory = "security"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionAPIAccess          AuditAction = "api_access"
	AuditActionLogout             AuditAction = "logout"
	AuditActionSessionsRevoked    AuditAction = "sessions_revoked"
	AuditActionPermissionDenied   AuditAction = "permission_denied"
	AuditActionRoleDenied         AuditAction = "role_denied"
	AuditActionOrganizationDenied AuditAction = "organization_access_denied"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Category       AuditCategory   `json:"category" db:"category"`
	Action         AuditAction     `json:"action" db:"action"`
	PrincipalID    *uuid.UUID      `json:"principal_id,omitempty" db:"principal_id"`
	PrincipalKind  PrincipalKind   `json:"principal_kind,omitempty" db:"principal_kind"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty" db:"organization_id"`
	Endpoint       string          `json:"endpoint" db:"endpoint"`
	Method         string          `json:"method" db:"method"`
	Details        json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	IPAddress      string          `json:"ip_address" db:"ip_address"`
	UserAgent      string          `json:"user_agent" db:"user_agent"`
	RequestID      string          `json:"request_id" db:"request_id"`
	Timestamp      time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(category AuditCategory, action AuditAction) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		Category:  category,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// WithPrincipal sets the acting principal and, for customers, their organization
func (a *AuditLog) WithPrincipal(p *Principal) *AuditLog {
	if p == nil {
		return a
	}
	id := p.ID
	a.PrincipalID = &id
	a.PrincipalKind = p.Kind
	if p.OrganizationID != nil {
		orgID := *p.OrganizationID
		a.OrganizationID = &orgID
	}
	return a
}

// WithEndpoint sets the HTTP method and path
func (a *AuditLog) WithEndpoint(method, endpoint string) *AuditLog {
	a.Method = method
	a.Endpoint = endpoint
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}

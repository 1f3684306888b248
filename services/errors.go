package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeMissingCredential ErrorType = "missing_credential"
	ErrorTypeRevoked           ErrorType = "revoked"
	ErrorTypeInvalidToken      ErrorType = "invalid_token"
	ErrorTypeAuthFailure       ErrorType = "auth_failure"
	ErrorTypeIdentity          ErrorType = "identity"
	ErrorTypeScope             ErrorType = "scope"
	ErrorTypeEntitlement       ErrorType = "entitlement"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeInternal          ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Status and Code are what clients see; Err is only ever logged.
type DomainError struct {
	Type    ErrorType
	Status  int
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Errors match on code when the target has one,
// otherwise on type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error with an extra response field
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	c := e.clone()
	c.Details[key] = value
	return c
}

// Wrap returns a copy of the error carrying cause
func (e *DomainError) Wrap(cause error) *DomainError {
	c := e.clone()
	c.Err = cause
	return c
}

func (e *DomainError) clone() *DomainError {
	c := *e
	c.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return &c
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, status int, code, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Missing credential
	ErrTokenMissing      = NewDomainError(ErrorTypeMissingCredential, http.StatusUnauthorized, "TOKEN_MISSING", "Access token is required", nil)
	ErrAuthRequired      = NewDomainError(ErrorTypeMissingCredential, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required", nil)
	ErrAdminAuthRequired = NewDomainError(ErrorTypeMissingCredential, http.StatusUnauthorized, "ADMIN_AUTH_REQUIRED", "Admin authentication required", nil)

	// Revoked
	ErrTokenRevoked = NewDomainError(ErrorTypeRevoked, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked", nil)

	// Invalid or expired
	ErrTokenExpired = NewDomainError(ErrorTypeInvalidToken, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", nil)
	ErrTokenInvalid = NewDomainError(ErrorTypeInvalidToken, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid token", nil)

	// Unexpected collaborator failure during authentication
	ErrAuthFailed = NewDomainError(ErrorTypeAuthFailure, http.StatusUnauthorized, "AUTH_FAILED", "Authentication failed", nil)

	// Identity
	ErrUserNotFound         = NewDomainError(ErrorTypeIdentity, http.StatusUnauthorized, "USER_NOT_FOUND", "User not found", nil)
	ErrUserInactive         = NewDomainError(ErrorTypeIdentity, http.StatusUnauthorized, "USER_INACTIVE", "User account is inactive", nil)
	ErrOrganizationInactive = NewDomainError(ErrorTypeIdentity, http.StatusUnauthorized, "ORGANIZATION_INACTIVE", "Organization is inactive", nil)
	ErrAdminNotFound        = NewDomainError(ErrorTypeIdentity, http.StatusUnauthorized, "ADMIN_NOT_FOUND", "Admin user not found", nil)
	ErrAdminInactive        = NewDomainError(ErrorTypeIdentity, http.StatusUnauthorized, "ADMIN_INACTIVE", "Admin account is inactive", nil)

	// Scope
	ErrOrganizationIDRequired   = NewDomainError(ErrorTypeScope, http.StatusBadRequest, "ORGANIZATION_ID_REQUIRED", "Organization ID is required", nil)
	ErrOrganizationAccessDenied = NewDomainError(ErrorTypeScope, http.StatusForbidden, "ORGANIZATION_ACCESS_DENIED", "Access denied to this organization", nil)
	ErrOrganizationRequired     = NewDomainError(ErrorTypeScope, http.StatusUnauthorized, "ORGANIZATION_REQUIRED", "Organization context required", nil)

	// Entitlement
	ErrPermissionDenied      = NewDomainError(ErrorTypeEntitlement, http.StatusForbidden, "PERMISSION_DENIED", "Insufficient permissions", nil)
	ErrRoleDenied            = NewDomainError(ErrorTypeEntitlement, http.StatusForbidden, "ROLE_DENIED", "Insufficient role", nil)
	ErrSubscriptionRequired  = NewDomainError(ErrorTypeEntitlement, http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED", "An active subscription is required", nil)
	ErrFeatureNotAvailable   = NewDomainError(ErrorTypeEntitlement, http.StatusPaymentRequired, "FEATURE_NOT_AVAILABLE", "Feature not available on current plan", nil)
	ErrAdminPermissionDenied = NewDomainError(ErrorTypeEntitlement, http.StatusForbidden, "ADMIN_PERMISSION_DENIED", "Insufficient admin permissions", nil)
	ErrAdminRoleDenied       = NewDomainError(ErrorTypeEntitlement, http.StatusForbidden, "ADMIN_ROLE_DENIED", "Insufficient admin role", nil)

	// Handler errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", nil)
	ErrNotFound     = NewDomainError(ErrorTypeNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	ErrInternal     = NewDomainError(ErrorTypeInternal, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
)

// Error type checking helper functions

// IsAuthenticationError reports whether err should be answered with 401
func IsAuthenticationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status == http.StatusUnauthorized
	}
	return false
}

// IsEntitlementError checks if an error is an entitlement error
func IsEntitlementError(err error) bool {
	return GetErrorType(err) == ErrorTypeEntitlement
}

// IsScopeError checks if an error is a scope error
func IsScopeError(err error) bool {
	return GetErrorType(err) == ErrorTypeScope
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorStatus returns the HTTP status of a domain error, or 0 if not a domain error
func GetErrorStatus(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status
	}
	return 0
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, http.StatusInternalServerError, "INTERNAL_ERROR", message, err)
}

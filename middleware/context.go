package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/tokens"
)

// Context key type to avoid collisions
type contextKey string

const (
	// principalKey is the context key for the authenticated principal
	principalKey contextKey = "principal"

	// userKey is the context key for the customer user record
	userKey contextKey = "user"

	// adminKey is the context key for the admin user record
	adminKey contextKey = "admin"

	// organizationKey is the context key for the customer's organization
	organizationKey contextKey = "organization"

	// tokenKey is the context key for the raw bearer token
	tokenKey contextKey = "token"

	// claimsKey is the context key for verified token claims
	claimsKey contextKey = "claims"
)

// Identity is the outcome of a successful authentication
type Identity struct {
	Principal    *models.Principal
	User         *models.User      // customer only
	Admin        *models.AdminUser // admin only
	Organization *models.Organization
	Token        string
	Claims       *tokens.Claims
}

// WithIdentity attaches every part of identity to the context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	ctx = context.WithValue(ctx, principalKey, identity.Principal)
	ctx = context.WithValue(ctx, tokenKey, identity.Token)
	if identity.Claims != nil {
		ctx = context.WithValue(ctx, claimsKey, identity.Claims)
	}
	if identity.User != nil {
		ctx = context.WithValue(ctx, userKey, identity.User)
	}
	if identity.Admin != nil {
		ctx = context.WithValue(ctx, adminKey, identity.Admin)
	}
	if identity.Organization != nil {
		ctx = context.WithValue(ctx, organizationKey, identity.Organization)
	}
	return ctx
}

// GetPrincipalFromContext retrieves the authenticated principal, or nil
func GetPrincipalFromContext(ctx context.Context) *models.Principal {
	principal, _ := ctx.Value(principalKey).(*models.Principal)
	return principal
}

// GetCustomerFromContext returns the principal only when it is a customer
func GetCustomerFromContext(ctx context.Context) *models.Principal {
	if p := GetPrincipalFromContext(ctx); p != nil && p.Kind == models.KindCustomer {
		return p
	}
	return nil
}

// GetAdminPrincipalFromContext returns the principal only when it is an admin
func GetAdminPrincipalFromContext(ctx context.Context) *models.Principal {
	if p := GetPrincipalFromContext(ctx); p != nil && p.Kind == models.KindAdmin {
		return p
	}
	return nil
}

// GetUserFromContext retrieves the customer user record
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// GetAdminFromContext retrieves the admin user record
func GetAdminFromContext(ctx context.Context) *models.AdminUser {
	admin, _ := ctx.Value(adminKey).(*models.AdminUser)
	return admin
}

// GetOrganizationFromContext retrieves the customer's organization
func GetOrganizationFromContext(ctx context.Context) *models.Organization {
	org, _ := ctx.Value(organizationKey).(*models.Organization)
	return org
}

// GetTokenFromContext retrieves the raw bearer token the request authenticated with
func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// GetClaimsFromContext retrieves verified token claims
func GetClaimsFromContext(ctx context.Context) *tokens.Claims {
	claims, _ := ctx.Value(claimsKey).(*tokens.Claims)
	return claims
}

// GetRequestIDFromContext retrieves the id assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

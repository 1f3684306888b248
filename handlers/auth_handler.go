package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/socialhub/middleware"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/services"
	"github.com/upb/socialhub/tokens"
	"github.com/upb/socialhub/utils"
	"go.uber.org/zap"
)

// TokenRevoker blacklists a single bearer token
type TokenRevoker interface {
	RevokeToken(ctx context.Context, audience tokens.Audience, token string, expiresAt time.Time) error
}

// AuthHandler serves the identity and logout endpoints of both audiences
type AuthHandler struct {
	revoker  TokenRevoker
	activity middleware.ActivityRecorder
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(revoker TokenRevoker, activity middleware.ActivityRecorder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		revoker:  revoker,
		activity: activity,
		logger:   logger,
	}
}

// MeResponse is the body of GET /api/v1/me
type MeResponse struct {
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization,omitempty"`
}

// HandleMe handles GET /api/v1/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		HandleServiceError(w, services.ErrAuthRequired, h.logger)
		return
	}

	_ = utils.WriteOK(w, MeResponse{
		User:         user,
		Organization: middleware.GetOrganizationFromContext(r.Context()),
	})
}

// HandleAdminMe handles GET /api/v1/admin/me
func (h *AuthHandler) HandleAdminMe(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdminFromContext(r.Context())
	if admin == nil {
		HandleServiceError(w, services.ErrAdminAuthRequired, h.logger)
		return
	}

	_ = utils.WriteOK(w, admin)
}

// HandleLogout handles POST /api/v1/auth/logout and POST /api/v1/admin/auth/logout.
// The presented token is blacklisted in its own audience until it would have expired.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := middleware.GetTokenFromContext(ctx)
	claims := middleware.GetClaimsFromContext(ctx)
	if token == "" || claims == nil {
		HandleServiceError(w, services.ErrAuthRequired, h.logger)
		return
	}

	if err := h.revoker.RevokeToken(ctx, claims.Kind, token, claims.ExpiresAtTime()); err != nil {
		HandleServiceError(w, services.WrapInternal("Failed to log out", err), h.logger)
		return
	}

	principal := middleware.GetPrincipalFromContext(ctx)
	if h.activity != nil {
		if err := h.activity.Record(ctx, principal, models.AuditActionLogout, middleware.RequestMetadata(r, nil)); err != nil {
			h.logger.Warn("logout not recorded",
				zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
				zap.Error(err))
		}
	}

	h.logger.Info("token revoked",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("audience", string(claims.Kind)),
		zap.String("subject", claims.Subject))

	_ = utils.WriteMessage(w, "Logged out successfully")
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/socialhub/middleware"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/repositories"
	"github.com/upb/socialhub/services"
	"github.com/upb/socialhub/tokens"
	"github.com/upb/socialhub/utils"
	"go.uber.org/zap"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// SubjectRevoker revokes every token issued to a subject up to an instant
type SubjectRevoker interface {
	RevokeSubject(ctx context.Context, audience tokens.Audience, subjectID string, at time.Time, ttl time.Duration) error
}

// RevokeSessionsRequest is the optional body of the revoke-sessions endpoint
type RevokeSessionsRequest struct {
	Deactivate bool   `json:"deactivate"`
	Reason     string `json:"reason" validate:"max=500"`
}

// RevokeSessionsResponse reports what was revoked
type RevokeSessionsResponse struct {
	UserID      string    `json:"user_id"`
	RevokedAt   time.Time `json:"revoked_at"`
	Deactivated bool      `json:"deactivated"`
}

// AdminHandler serves platform-operator endpoints
type AdminHandler struct {
	txManager   repositories.TransactionManager
	users       repositories.UserRepository
	auditLogs   repositories.AuditRepository
	revoker     SubjectRevoker
	customerTTL time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewAdminHandler creates a new AdminHandler. customerTTL bounds how long a
// subject revocation must outlive the tokens it covers.
func NewAdminHandler(
	txManager repositories.TransactionManager,
	repos *repositories.Repositories,
	revoker SubjectRevoker,
	customerTTL time.Duration,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		txManager:   txManager,
		users:       repos.Users,
		auditLogs:   repos.AuditLogs,
		revoker:     revoker,
		customerTTL: customerTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleRevokeSessions handles POST /api/v1/admin/users/{userId}/revoke-sessions.
// Every customer token issued to the user so far stops authenticating; the
// account can optionally be deactivated in the same step.
func (h *AdminHandler) HandleRevokeSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := utils.ParseUUID(chi.URLParam(r, "userId"))
	if err != nil {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("fields", map[string]string{"userId": err.Error()}), h.logger)
		return
	}

	var req RevokeSessionsRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			HandleValidationError(w, err, h.logger)
			return
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	admin := middleware.GetPrincipalFromContext(ctx)
	meta := middleware.RequestMetadata(r, nil)
	revokedAt := h.now()

	err = h.txManager.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) error {
		if _, err := h.users.GetByID(txCtx, userID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return services.ErrNotFound.WithDetail("resource", "user")
			}
			return err
		}

		if req.Deactivate {
			if err := h.users.SetActive(txCtx, userID, false); err != nil {
				return err
			}
		}

		entry := models.NewAuditLog(models.AuditCategorySecurity, models.AuditActionSessionsRevoked).
			WithPrincipal(admin).
			WithEndpoint(meta.Method, meta.Endpoint).
			WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent).
			WithDetails(map[string]interface{}{
				"target_user_id": userID.String(),
				"deactivated":    req.Deactivate,
				"reason":         req.Reason,
			})
		if err := h.auditLogs.Insert(txCtx, entry); err != nil {
			return err
		}

		// Last, so a cache failure rolls the database changes back
		return h.revoker.RevokeSubject(txCtx, tokens.AudienceCustomer, userID.String(), revokedAt, h.customerTTL)
	})
	if err != nil {
		var domainErr *services.DomainError
		if !errors.As(err, &domainErr) {
			err = services.WrapInternal("Failed to revoke sessions", err)
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("customer sessions revoked",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("user_id", userID.String()),
		zap.Bool("deactivated", req.Deactivate))

	_ = utils.WriteOK(w, RevokeSessionsResponse{
		UserID:      userID.String(),
		RevokedAt:   revokedAt.UTC(),
		Deactivated: req.Deactivate,
	})
}

// HandleListSecurityAudit handles GET /api/v1/admin/audit/security
func (h *AdminHandler) HandleListSecurityAudit(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultAuditPageSize)
	if err != nil || limit < 1 {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("fields", map[string]string{"limit": "limit must be a positive integer"}), h.logger)
		return
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("fields", map[string]string{"offset": "offset must be a non-negative integer"}), h.logger)
		return
	}

	logs, err := h.auditLogs.ListByCategory(r.Context(), models.AuditCategorySecurity, limit, offset)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("Failed to list security audit logs", err), h.logger)
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}

	_ = utils.WriteOK(w, map[string]interface{}{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

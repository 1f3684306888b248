package handlers

import (
	"net/http"
	"time"

	"github.com/upb/socialhub/middleware"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/services"
	"github.com/upb/socialhub/utils"
	"go.uber.org/zap"
)

var analyticsPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// AnalyticsRequest holds the query parameters of the analytics endpoint
type AnalyticsRequest struct {
	Period string `json:"period" validate:"required,oneof=7d 30d 90d"`
}

// AnalyticsResponse describes the reporting window of an analytics request
type AnalyticsResponse struct {
	OrganizationID string    `json:"organization_id"`
	Plan           string    `json:"plan"`
	Period         string    `json:"period"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
}

// OrganizationHandler serves organization-scoped endpoints. Routes are
// mounted behind the organization-scope gate, so the organization in context
// is the one addressed by the path.
type OrganizationHandler struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		logger: logger,
		now:    time.Now,
	}
}

// HandleGet handles GET /api/v1/organizations/{organizationId}
func (h *OrganizationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrganizationFromContext(r.Context())
	if org == nil {
		HandleServiceError(w, services.ErrOrganizationRequired, h.logger)
		return
	}

	_ = utils.WriteOK(w, org)
}

// HandleAnalytics handles GET /api/v1/organizations/{organizationId}/analytics
func (h *OrganizationHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrganizationFromContext(r.Context())
	if org == nil {
		HandleServiceError(w, services.ErrOrganizationRequired, h.logger)
		return
	}

	req := AnalyticsRequest{Period: r.URL.Query().Get("period")}
	if req.Period == "" {
		req.Period = "30d"
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, h.analyticsWindow(org, req.Period))
}

func (h *OrganizationHandler) analyticsWindow(org *models.Organization, period string) AnalyticsResponse {
	to := h.now().UTC()
	return AnalyticsResponse{
		OrganizationID: org.ID.String(),
		Plan:           org.Subscription.PlanID,
		Period:         period,
		From:           to.Add(-analyticsPeriods[period]),
		To:             to,
	}
}

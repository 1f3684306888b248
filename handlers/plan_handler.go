package handlers

import (
	"net/http"

	"github.com/upb/socialhub/middleware"
	"github.com/upb/socialhub/utils"
	"go.uber.org/zap"
)

// Plan is a subscription plan offered to organizations
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Features []string `json:"features"`
	Current  bool     `json:"current"`
}

// DefaultPlans is the catalog served by GET /api/v1/plans
var DefaultPlans = []Plan{
	{ID: "starter", Name: "Starter", Features: []string{"scheduling"}},
	{ID: "growth", Name: "Growth", Features: []string{"scheduling", "teamCollaboration", "advancedAnalytics"}},
	{ID: "enterprise", Name: "Enterprise", Features: []string{"scheduling", "teamCollaboration", "advancedAnalytics", "apiAccess", "whiteLabel"}},
}

// PlanHandler serves the public plan catalog
type PlanHandler struct {
	plans  []Plan
	logger *zap.Logger
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(plans []Plan, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		plans:  plans,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/plans. Anonymous callers get the bare
// catalog; authenticated callers see their organization's plan marked.
func (h *PlanHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	current := ""
	if org := middleware.GetOrganizationFromContext(r.Context()); org != nil {
		current = org.Subscription.PlanID
	}

	plans := make([]Plan, len(h.plans))
	for i, p := range h.plans {
		p.Current = current != "" && p.ID == current
		plans[i] = p
	}

	_ = utils.WriteOK(w, plans)
}

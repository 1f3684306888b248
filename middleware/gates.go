package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/socialhub/internal/observability"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/services"
	"go.uber.org/zap"
)

// OrganizationIDParam is the route parameter, body field and query key the
// organization-scope gate reads
const OrganizationIDParam = "organizationId"

// maxScopeBodyBytes caps how much of a request body is inspected for an organization id
const maxScopeBodyBytes = 1 << 20

// CheckPermission requires a customer principal holding permission. Role is
// not consulted.
func CheckPermission(p *models.Principal, permission string) error {
	if p == nil || p.Kind != models.KindCustomer {
		return services.ErrAuthRequired
	}
	if !p.HasPermission(permission) {
		return services.ErrPermissionDenied.WithDetail("required", permission)
	}
	return nil
}

// CheckRole requires a customer principal whose role is one of roles.
// Permissions are not consulted.
func CheckRole(p *models.Principal, roles ...string) error {
	if p == nil || p.Kind != models.KindCustomer {
		return services.ErrAuthRequired
	}
	if !p.HasRole(roles...) {
		return services.ErrRoleDenied.
			WithDetail("required", roles).
			WithDetail("current", p.Role)
	}
	return nil
}

// CheckOrganizationAccess requires a customer principal that belongs to organizationID
func CheckOrganizationAccess(p *models.Principal, organizationID string) error {
	if p == nil || p.Kind != models.KindCustomer {
		return services.ErrAuthRequired
	}
	if organizationID == "" {
		return services.ErrOrganizationIDRequired
	}
	id, err := uuid.Parse(organizationID)
	if err != nil || !p.BelongsTo(id) {
		return services.ErrOrganizationAccessDenied
	}
	return nil
}

// CheckActiveSubscription requires an organization whose subscription is active or trialing
func CheckActiveSubscription(org *models.Organization) error {
	if org == nil {
		return services.ErrOrganizationRequired
	}
	if !org.Subscription.IsActive() {
		return services.ErrSubscriptionRequired.WithDetail("subscriptionStatus", org.Subscription.Status)
	}
	return nil
}

// CheckFeature requires an organization with feature enabled. Denials carry
// the current plan.
func CheckFeature(org *models.Organization, feature string) error {
	if org == nil {
		return services.ErrOrganizationRequired
	}
	if !org.HasFeature(feature) {
		return services.ErrFeatureNotAvailable.
			WithDetail("feature", feature).
			WithDetail("currentPlan", org.Subscription.PlanID)
	}
	return nil
}

// CheckAdminPermission requires an admin principal holding permission
func CheckAdminPermission(p *models.Principal, permission string) error {
	if p == nil || p.Kind != models.KindAdmin {
		return services.ErrAdminAuthRequired
	}
	if !p.HasPermission(permission) {
		return services.ErrAdminPermissionDenied.WithDetail("required", permission)
	}
	return nil
}

// CheckAdminRole requires an admin principal whose role is one of roles
func CheckAdminRole(p *models.Principal, roles ...string) error {
	if p == nil || p.Kind != models.KindAdmin {
		return services.ErrAdminAuthRequired
	}
	if !p.HasRole(roles...) {
		return services.ErrAdminRoleDenied.
			WithDetail("required", roles).
			WithDetail("current", p.Role)
	}
	return nil
}

// Gate is a single authorization check run after an Authenticator
type Gate struct {
	name  string
	check func(r *http.Request) error

	// violation is the security audit action written for 403 denials
	violation models.AuditAction
	gates     *Gates
}

// Name returns the gate name used in logs and metrics
func (g Gate) Name() string {
	return g.name
}

// Check evaluates the gate against r
func (g Gate) Check(r *http.Request) error {
	return g.check(r)
}

// Handler rejects requests the gate denies
func (g Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.check(r); err != nil {
			g.gates.deny(r, g, err)
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Gates builds authorization gates sharing one logger, recorder and metrics
type Gates struct {
	activity ActivityRecorder
	metrics  *observability.AuthMetrics
	logger   *zap.Logger
}

// NewGates creates a gate factory
func NewGates(activity ActivityRecorder, metrics *observability.AuthMetrics, logger *zap.Logger) *Gates {
	return &Gates{
		activity: activity,
		metrics:  metrics,
		logger:   logger,
	}
}

// RequirePermission denies customers lacking permission
func (g *Gates) RequirePermission(permission string) Gate {
	return Gate{
		name: "permission",
		check: func(r *http.Request) error {
			return CheckPermission(GetPrincipalFromContext(r.Context()), permission)
		},
		violation: models.AuditActionPermissionDenied,
		gates:     g,
	}
}

// RequireRole denies customers whose role is not one of roles
func (g *Gates) RequireRole(roles ...string) Gate {
	return Gate{
		name: "role",
		check: func(r *http.Request) error {
			return CheckRole(GetPrincipalFromContext(r.Context()), roles...)
		},
		violation: models.AuditActionRoleDenied,
		gates:     g,
	}
}

// RequireOrganizationAccess denies customers addressing another organization
func (g *Gates) RequireOrganizationAccess() Gate {
	return Gate{
		name: "organization",
		check: func(r *http.Request) error {
			return CheckOrganizationAccess(GetPrincipalFromContext(r.Context()), organizationIDFromRequest(r))
		},
		violation: models.AuditActionOrganizationDenied,
		gates:     g,
	}
}

// RequireActiveSubscription denies organizations without an active or trialing subscription
func (g *Gates) RequireActiveSubscription() Gate {
	return Gate{
		name: "subscription",
		check: func(r *http.Request) error {
			return CheckActiveSubscription(GetOrganizationFromContext(r.Context()))
		},
		gates: g,
	}
}

// RequireFeature denies organizations without feature
func (g *Gates) RequireFeature(feature string) Gate {
	return Gate{
		name: "feature",
		check: func(r *http.Request) error {
			return CheckFeature(GetOrganizationFromContext(r.Context()), feature)
		},
		gates: g,
	}
}

// RequireAdminPermission denies admins lacking permission
func (g *Gates) RequireAdminPermission(permission string) Gate {
	return Gate{
		name: "admin_permission",
		check: func(r *http.Request) error {
			return CheckAdminPermission(GetPrincipalFromContext(r.Context()), permission)
		},
		violation: models.AuditActionPermissionDenied,
		gates:     g,
	}
}

// RequireAdminRole denies admins whose role is not one of roles
func (g *Gates) RequireAdminRole(roles ...string) Gate {
	return Gate{
		name: "admin_role",
		check: func(r *http.Request) error {
			return CheckAdminRole(GetPrincipalFromContext(r.Context()), roles...)
		},
		violation: models.AuditActionRoleDenied,
		gates:     g,
	}
}

func (g *Gates) deny(r *http.Request, gate Gate, err error) {
	code := errorCode(err)
	g.metrics.RecordDenial(gate.name, code)

	principal := GetPrincipalFromContext(r.Context())
	fields := []zap.Field{
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("gate", gate.name),
		zap.String("code", code),
		zap.String("path", r.URL.Path),
	}
	if principal != nil {
		fields = append(fields, zap.String("principal_id", principal.ID.String()))
	}
	g.logger.Info("authorization denied", fields...)

	// Only deliberate access violations reach the security log
	if gate.violation == "" || services.GetErrorStatus(err) != http.StatusForbidden || g.activity == nil {
		return
	}
	if recErr := g.activity.RecordDenial(r.Context(), principal, gate.violation, RequestMetadata(r, services.GetErrorDetails(err))); recErr != nil {
		g.logger.Debug("security event not recorded",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.Error(recErr))
	}
}

// organizationIDFromRequest reads the organization id from the route, then a
// JSON body, then the query string
func organizationIDFromRequest(r *http.Request) string {
	if id := chi.URLParam(r, OrganizationIDParam); id != "" {
		return id
	}
	if id := organizationIDFromBody(r); id != "" {
		return id
	}
	return r.URL.Query().Get(OrganizationIDParam)
}

// organizationIDFromBody peeks at a JSON body and restores it for the handler
func organizationIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxScopeBodyBytes))
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), rest), rest}
	if err != nil || len(data) == 0 {
		return ""
	}

	var body map[string]interface{}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	id, _ := body[OrganizationIDParam].(string)
	return id
}

package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/socialhub/app"
	"github.com/upb/socialhub/handlers"
	"github.com/upb/socialhub/middleware"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/services"
	"github.com/upb/socialhub/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	requestTimeout := cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var database, cache handlers.HealthChecker
	if deps.DB != nil {
		database = deps.DB
	}
	if deps.Cache != nil {
		cache = deps.Cache
	}
	health := handlers.NewHealthHandler(database, cache, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.Revoker, deps.Audit, deps.Logger)
	plans := handlers.NewPlanHandler(handlers.DefaultPlans, deps.Logger)
	organizations := handlers.NewOrganizationHandler(deps.Logger)
	admin := handlers.NewAdminHandler(deps.TxManager, deps.Repositories, deps.Revoker, cfg.Auth.CustomerTokenTTL, deps.Logger)

	customer := deps.CustomerAuth
	gates := deps.Gates

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog, personalised when a valid customer token is present
		r.With(customer.OptionalAuth).Get("/plans", plans.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(customer.Handler)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/auth/logout", authHandler.HandleLogout)
		})

		r.Route("/organizations/{"+middleware.OrganizationIDParam+"}", func(r chi.Router) {
			r.Use(middleware.Protect(customer, gates.RequireOrganizationAccess()))
			r.Get("/", organizations.HandleGet)
			r.With(middleware.Authorize(
				gates.RequireActiveSubscription(),
				gates.RequireFeature("advancedAnalytics"),
				gates.RequirePermission("analytics.view"),
			)).Get("/analytics", organizations.HandleAnalytics)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AdminAuth.Handler)
			r.Get("/me", authHandler.HandleAdminMe)
			r.Post("/auth/logout", authHandler.HandleLogout)

			r.With(middleware.Authorize(
				gates.RequireAdminRole(string(models.AdminRoleSuperAdmin), string(models.AdminRoleAdmin)),
				gates.RequireAdminPermission("canManageUsers"),
			)).Post("/users/{userId}/revoke-sessions", admin.HandleRevokeSessions)

			r.With(middleware.Authorize(
				gates.RequireAdminPermission("canViewAuditLogs"),
			)).Get("/audit/security", admin.HandleListSecurityAudit)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteFailure(w, http.StatusNotFound, services.ErrNotFound.Code, "Endpoint not found", nil)
	})

	return r
}

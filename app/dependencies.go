package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/socialhub/config"
	"github.com/upb/socialhub/internal/observability"
	"github.com/upb/socialhub/middleware"
	"github.com/upb/socialhub/repositories"
	"github.com/upb/socialhub/repositories/postgres"
	"github.com/upb/socialhub/revocation"
	"github.com/upb/socialhub/services/audit"
	"github.com/upb/socialhub/tokens"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Cache  *revocation.RedisStore
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repositories *repositories.Repositories
	TxManager    repositories.TransactionManager

	// Auth
	Tokens  *tokens.Service
	Revoker *revocation.Revoker
	Audit   *audit.Service
	Metrics *observability.AuthMetrics

	CustomerAuth *middleware.Authenticator
	AdminAuth    *middleware.Authenticator
	Gates        *middleware.Gates
}

// NewDependencies connects to PostgreSQL and Redis and wires every component on top
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	cache, err := revocation.NewRedisStore(revocation.RedisConfig{
		URL:        cfg.Redis.URL,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
	})
	if err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed to initialize revocation cache: %w", err)
	}
	logger.Info("revocation cache connected")

	deps, err := NewDependenciesFromInfra(cfg, logger, factory, cache)
	if err != nil {
		cache.Close()
		factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromInfra wires every component over already opened
// infrastructure and starts the audit workers
func NewDependenciesFromInfra(cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory, cache *revocation.RedisStore) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Cache:       cache,
	}

	deps.initRepositories()

	if err := deps.initAudit(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit service: %w", err)
	}

	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repositories = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initAudit starts the activity and security audit workers
func (d *Dependencies) initAudit(cfg *config.Config) error {
	d.Audit = audit.NewService(d.Repositories.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.WorkerCount,
	})
	return d.Audit.Start()
}

// initAuth builds the token service, revocation cache and both authenticators
func (d *Dependencies) initAuth(cfg *config.Config) {
	d.Tokens = tokens.NewService(tokens.Config{
		Issuer:         cfg.Auth.Issuer,
		CustomerSecret: []byte(cfg.Auth.CustomerTokenSecret),
		AdminSecret:    []byte(cfg.Auth.AdminTokenSecret),
		CustomerTTL:    cfg.Auth.CustomerTokenTTL,
		AdminTTL:       cfg.Auth.AdminTokenTTL,
	})
	d.Revoker = revocation.NewRevoker(d.Cache, cfg.Auth.RevocationDefaultTTL)

	if cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NewAuthMetrics()
	}

	d.CustomerAuth = middleware.NewCustomerAuthenticator(d.Tokens, d.Revoker, d.Repositories.Users, d.Audit, d.Metrics, d.Logger)
	d.AdminAuth = middleware.NewAdminAuthenticator(d.Tokens, d.Revoker, d.Repositories.Admins, d.Audit, d.Metrics, d.Logger)
	d.Gates = middleware.NewGates(d.Audit, d.Metrics, d.Logger)

	d.Logger.Info("authenticators initialized",
		zap.String("issuer", cfg.Auth.Issuer),
		zap.Bool("metrics_enabled", d.Metrics != nil))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued audit entries before the database goes away
	if d.Audit != nil {
		timeout := 10 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
		d.Audit = nil
	}

	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close revocation cache: %w", err))
		}
		d.Cache = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

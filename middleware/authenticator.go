package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/upb/socialhub/internal/observability"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/repositories"
	"github.com/upb/socialhub/services"
	"github.com/upb/socialhub/services/audit"
	"github.com/upb/socialhub/tokens"
	"go.uber.org/zap"
)

// TokenVerifier extracts and verifies bearer tokens
type TokenVerifier interface {
	Extract(headerValue string) string
	Verify(token string, audience tokens.Audience) (*tokens.Claims, error)
}

// RevocationChecker answers whether a token or every token of a subject has
// been revoked. A lookup failure must be returned as an error, never as false.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, audience tokens.Audience, token string) (bool, error)
	IsSubjectRevoked(ctx context.Context, audience tokens.Audience, subjectID string, issuedAt time.Time) (bool, error)
}

// ActivityRecorder persists activity and security audit entries without blocking
type ActivityRecorder interface {
	Record(ctx context.Context, principal *models.Principal, action models.AuditAction, meta audit.Metadata) error
	RecordDenial(ctx context.Context, principal *models.Principal, action models.AuditAction, meta audit.Metadata) error
}

// identityResolver loads the principal behind a verified subject id
type identityResolver func(ctx context.Context, id uuid.UUID) (*Identity, error)

// lastActiveTimeout bounds the detached last-active write
const lastActiveTimeout = 5 * time.Second

// Authenticator verifies a bearer token for one audience and resolves the
// principal behind it.
type Authenticator struct {
	audience tokens.Audience
	tokens   TokenVerifier
	revoker  RevocationChecker
	resolve  identityResolver
	activity ActivityRecorder
	metrics  *observability.AuthMetrics
	logger   *zap.Logger

	// strictRevocation fails the request when the revocation cache cannot be
	// consulted. Only the customer audience is strict.
	strictRevocation bool

	// users is set for the customer audience, which records last activity
	users repositories.UserRepository
}

// NewCustomerAuthenticator creates the customer authenticator
func NewCustomerAuthenticator(
	verifier TokenVerifier,
	revoker RevocationChecker,
	users repositories.UserRepository,
	activity ActivityRecorder,
	metrics *observability.AuthMetrics,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		audience:         tokens.AudienceCustomer,
		tokens:           verifier,
		revoker:          revoker,
		resolve:          customerResolver(users),
		activity:         activity,
		metrics:          metrics,
		logger:           logger,
		strictRevocation: true,
		users:            users,
	}
}

// NewAdminAuthenticator creates the admin authenticator. A revocation cache
// failure on this path is logged and the token is treated as not revoked.
func NewAdminAuthenticator(
	verifier TokenVerifier,
	revoker RevocationChecker,
	admins repositories.AdminRepository,
	activity ActivityRecorder,
	metrics *observability.AuthMetrics,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		audience: tokens.AudienceAdmin,
		tokens:   verifier,
		revoker:  revoker,
		resolve:  adminResolver(admins),
		activity: activity,
		metrics:  metrics,
		logger:   logger,
	}
}

// Audience returns the audience this authenticator accepts
func (a *Authenticator) Audience() tokens.Audience {
	return a.audience
}

// Authenticate runs every check in order and returns the resolved identity,
// or the domain error of the first check that failed. It has no side effects
// beyond logging.
func (a *Authenticator) Authenticate(r *http.Request) (*Identity, error) {
	ctx := r.Context()

	token := a.tokens.Extract(r.Header.Get("Authorization"))
	if token == "" {
		return nil, services.ErrTokenMissing
	}

	revoked, err := a.revoker.IsRevoked(ctx, a.audience, token)
	if err != nil {
		if err := a.revocationUnavailable(r, err); err != nil {
			return nil, err
		}
	} else if revoked {
		return nil, services.ErrTokenRevoked
	}

	claims, err := a.tokens.Verify(token, a.audience)
	if err != nil {
		return nil, mapVerifyError(err)
	}

	revoked, err = a.revoker.IsSubjectRevoked(ctx, a.audience, claims.Subject, claims.IssuedAtTime())
	if err != nil {
		if err := a.revocationUnavailable(r, err); err != nil {
			return nil, err
		}
	} else if revoked {
		return nil, services.ErrTokenRevoked
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, services.ErrTokenInvalid.Wrap(err)
	}

	identity, err := a.resolve(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	identity.Token = token
	identity.Claims = claims

	return identity, nil
}

// revocationUnavailable applies the audience's policy for a cache failure:
// nil means continue as if the token were not revoked.
func (a *Authenticator) revocationUnavailable(r *http.Request, err error) error {
	if a.strictRevocation {
		return services.ErrAuthFailed.Wrap(err)
	}
	a.logger.Warn("revocation check failed, treating token as not revoked",
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("audience", string(a.audience)),
		zap.Error(err))
	return nil
}

func mapVerifyError(err error) error {
	switch {
	case errors.Is(err, tokens.ErrTokenExpired):
		return services.ErrTokenExpired
	case errors.Is(err, tokens.ErrTokenInvalid):
		return services.ErrTokenInvalid.Wrap(err)
	default:
		return services.ErrAuthFailed.Wrap(err)
	}
}

// Handler rejects requests that fail Authenticate. On success it attaches the
// identity and dispatches the fire-and-forget side effects before calling next.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.Authenticate(r)
		if err != nil {
			a.metrics.RecordAttempt(string(a.audience), observability.OutcomeFailure)
			a.logFailure(r, err)
			writeError(w, err)
			return
		}
		a.metrics.RecordAttempt(string(a.audience), observability.OutcomeSuccess)

		r = r.WithContext(WithIdentity(r.Context(), identity))
		a.afterAuthentication(r, identity)

		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) logFailure(r *http.Request, err error) {
	fields := []zap.Field{
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("audience", string(a.audience)),
		zap.String("code", errorCode(err)),
		zap.String("path", r.URL.Path),
	}
	if errors.Is(err, services.ErrAuthFailed) {
		a.logger.Error("authentication failed", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Info("authentication rejected", fields...)
}

func (a *Authenticator) afterAuthentication(r *http.Request, identity *Identity) {
	principal := identity.Principal
	requestID := GetRequestIDFromContext(r.Context())

	if a.users != nil {
		ctx := context.WithoutCancel(r.Context())
		at := time.Now()
		go func() {
			ctx, cancel := context.WithTimeout(ctx, lastActiveTimeout)
			defer cancel()
			if err := a.users.UpdateLastActive(ctx, principal.ID, at); err != nil {
				a.logger.Warn("failed to update last active",
					zap.String("request_id", requestID),
					zap.String("user_id", principal.ID.String()),
					zap.Error(err))
			}
		}()
	}

	if a.activity == nil {
		return
	}
	if err := a.activity.Record(r.Context(), principal, models.AuditActionAPIAccess, RequestMetadata(r, nil)); err != nil {
		a.logger.Debug("activity event not recorded",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

func customerResolver(users repositories.UserRepository) identityResolver {
	return func(ctx context.Context, id uuid.UUID) (*Identity, error) {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrUserNotFound
			}
			return nil, services.ErrAuthFailed.Wrap(err)
		}
		if !user.IsActive {
			return nil, services.ErrUserInactive
		}
		if user.Organization == nil || !user.Organization.IsActive {
			return nil, services.ErrOrganizationInactive
		}

		return &Identity{
			Principal:    user.Principal(),
			User:         user,
			Organization: user.Organization,
		}, nil
	}
}

func adminResolver(admins repositories.AdminRepository) identityResolver {
	return func(ctx context.Context, id uuid.UUID) (*Identity, error) {
		admin, err := admins.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrAdminNotFound
			}
			return nil, services.ErrAuthFailed.Wrap(err)
		}
		if !admin.IsActive {
			return nil, services.ErrAdminInactive
		}

		return &Identity{
			Principal: admin.Principal(),
			Admin:     admin,
		}, nil
	}
}

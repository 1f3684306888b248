package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/revocation"
	"github.com/upb/socialhub/services/audit"
	"github.com/upb/socialhub/tokens"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockAdminRepository is a mock implementation of AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	args := m.Called(ctx, id)
	if admin := args.Get(0); admin != nil {
		return admin.(*models.AdminUser), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRevocationChecker is a mock implementation of RevocationChecker
type MockRevocationChecker struct {
	mock.Mock
}

func (m *MockRevocationChecker) IsRevoked(ctx context.Context, audience tokens.Audience, token string) (bool, error) {
	args := m.Called(ctx, audience, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockRevocationChecker) IsSubjectRevoked(ctx context.Context, audience tokens.Audience, subjectID string, issuedAt time.Time) (bool, error) {
	args := m.Called(ctx, audience, subjectID, issuedAt)
	return args.Bool(0), args.Error(1)
}

type recordedEvent struct {
	principal *models.Principal
	action    models.AuditAction
	meta      audit.Metadata
	security  bool
}

// recordingActivity collects audit entries in memory
type recordingActivity struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingActivity) Record(ctx context.Context, principal *models.Principal, action models.AuditAction, meta audit.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{principal: principal, action: action, meta: meta})
	return nil
}

func (r *recordingActivity) RecordDenial(ctx context.Context, principal *models.Principal, action models.AuditAction, meta audit.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{principal: principal, action: action, meta: meta, security: true})
	return nil
}

func (r *recordingActivity) Events() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func (r *recordingActivity) SecurityEvents() []recordedEvent {
	var out []recordedEvent
	for _, e := range r.Events() {
		if e.security {
			out = append(out, e)
		}
	}
	return out
}

const (
	testCustomerSecret = "middleware-customer-secret-000001"
	testAdminSecret    = "middleware-admin-secret-0000000001"
)

type testEnv struct {
	tokens   *tokens.Service
	redis    *miniredis.Miniredis
	revoker  *revocation.Revoker
	users    *MockUserRepository
	admins   *MockAdminRepository
	activity *recordingActivity
	customer *Authenticator
	admin    *Authenticator
	gates    *Gates
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := revocation.NewRedisStore(revocation.RedisConfig{
		URL:        "redis://" + mr.Addr(),
		MaxRetries: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		tokens: tokens.NewService(tokens.Config{
			Issuer:         "socialhub-test",
			CustomerSecret: []byte(testCustomerSecret),
			AdminSecret:    []byte(testAdminSecret),
			CustomerTTL:    time.Hour,
			AdminTTL:       time.Hour,
		}),
		redis:    mr,
		revoker:  revocation.NewRevoker(store, time.Hour),
		users:    new(MockUserRepository),
		admins:   new(MockAdminRepository),
		activity: &recordingActivity{},
	}
	logger := zap.NewNop()
	env.customer = NewCustomerAuthenticator(env.tokens, env.revoker, env.users, env.activity, nil, logger)
	env.admin = NewAdminAuthenticator(env.tokens, env.revoker, env.admins, env.activity, nil, logger)
	env.gates = NewGates(env.activity, nil, logger)
	return env
}

func (e *testEnv) issue(t *testing.T, audience tokens.Audience, subjectID uuid.UUID) string {
	t.Helper()
	token, err := e.tokens.Issue(audience, subjectID.String())
	require.NoError(t, err)
	return token
}

func newOrganization() *models.Organization {
	org := models.NewOrganization("Acme", "acme", "starter")
	org.Subscription.Status = models.SubscriptionActive
	return org
}

func newUser(org *models.Organization, role models.UserRole, permissions ...string) *models.User {
	user := models.NewUser("editor@acme.test", "Editor", org.ID, role, permissions)
	user.Organization = org
	return user
}

func newAdmin(role models.AdminRole, permissions ...string) *models.AdminUser {
	return models.NewAdminUser("ops@socialhub.test", "Ops", role, permissions)
}

func bearerRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// okHandler records whether it ran and the principal it saw
type okHandler struct {
	called    bool
	principal *models.Principal
	org       *models.Organization
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.principal = GetPrincipalFromContext(r.Context())
	h.org = GetOrganizationFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

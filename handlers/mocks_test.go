package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/repositories"
	"github.com/upb/socialhub/services/audit"
	"github.com/upb/socialhub/tokens"
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

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByCategory(ctx context.Context, category models.AuditCategory, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, category, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSubjectRevoker is a mock implementation of SubjectRevoker
type MockSubjectRevoker struct {
	mock.Mock
}

func (m *MockSubjectRevoker) RevokeSubject(ctx context.Context, audience tokens.Audience, subjectID string, at time.Time, ttl time.Duration) error {
	args := m.Called(ctx, audience, subjectID, at, ttl)
	return args.Error(0)
}

// fakeTxManager runs fn directly and records whether it committed
type fakeTxManager struct {
	committed  bool
	rolledBack bool
}

type fakeTx struct {
	ctx context.Context
}

func (t *fakeTx) Commit() error            { return nil }
func (t *fakeTx) Rollback() error          { return nil }
func (t *fakeTx) Context() context.Context { return t.ctx }

func (m *fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &fakeTx{ctx: ctx}, nil
}

func (m *fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	if err := fn(ctx, &fakeTx{ctx: ctx}); err != nil {
		m.rolledBack = true
		return err
	}
	m.committed = true
	return nil
}

type recordedEvent struct {
	principal *models.Principal
	action    models.AuditAction
	meta      audit.Metadata
}

// recordingActivity collects activity entries in memory
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
	return r.Record(ctx, principal, action, meta)
}

func (r *recordingActivity) Events() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/socialhub/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository resolves customer identities
type UserRepository interface {
	// GetByID retrieves a user together with its organization, if any.
	// Returns ErrNotFound when no user has the id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// UpdateLastActive records the user's most recent authenticated request
	UpdateLastActive(ctx context.Context, id uuid.UUID, at time.Time) error

	// SetActive enables or disables a user account
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// AdminRepository resolves platform admin identities
type AdminRepository interface {
	// GetByID retrieves an admin user. Returns ErrNotFound when no admin has the id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// ListByCategory retrieves audit logs of one category, newest first
	ListByCategory(ctx context.Context, category models.AuditCategory, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Admins    AdminRepository
	AuditLogs AuditRepository
}

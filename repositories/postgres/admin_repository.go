package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/repositories"
	"go.uber.org/zap"
)

// AdminRepository implements the repositories.AdminRepository interface
type AdminRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *DB, logger *zap.Logger) repositories.AdminRepository {
	return &AdminRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an admin user by ID
func (r *AdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	query := `
		SELECT id, email, name, role, permissions, is_active, last_login_at, created_at, updated_at
		FROM admin_users
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	admin := &models.AdminUser{}

	var (
		permissions pq.StringArray
		lastLoginAt sql.NullTime
	)

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.Role,
		&permissions,
		&admin.IsActive,
		&lastLoginAt,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("admin user %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	admin.Permissions = []string(permissions)
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		admin.LastLoginAt = &t
	}

	return admin, nil
}

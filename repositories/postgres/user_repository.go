package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/repositories"
	"go.uber.org/zap"
)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

const selectUserWithOrganization = `
		SELECT u.id, u.email, u.name, u.role, u.permissions, u.is_active,
		       u.organization_id, u.last_active_at, u.created_at, u.updated_at,
		       o.id, o.name, o.slug, o.is_active, o.subscription_status,
		       o.subscription_plan, o.features, o.created_at, o.updated_at
		FROM users u
		LEFT JOIN organizations o ON o.id = u.organization_id
		WHERE u.id = $1
	`

// GetByID retrieves a user by ID, with its organization when linked
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	executor := GetExecutor(ctx, r.db)

	var (
		user         models.User
		permissions  pq.StringArray
		userOrgID    uuid.NullUUID
		lastActiveAt sql.NullTime

		orgID        uuid.NullUUID
		orgName      sql.NullString
		orgSlug      sql.NullString
		orgActive    sql.NullBool
		orgStatus    sql.NullString
		orgPlan      sql.NullString
		orgFeatures  pq.StringArray
		orgCreatedAt sql.NullTime
		orgUpdatedAt sql.NullTime
	)

	err := executor.QueryRowContext(ctx, selectUserWithOrganization, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&permissions,
		&user.IsActive,
		&userOrgID,
		&lastActiveAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&orgID,
		&orgName,
		&orgSlug,
		&orgActive,
		&orgStatus,
		&orgPlan,
		&orgFeatures,
		&orgCreatedAt,
		&orgUpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Permissions = []string(permissions)
	if userOrgID.Valid {
		id := userOrgID.UUID
		user.OrganizationID = &id
	}
	if lastActiveAt.Valid {
		t := lastActiveAt.Time
		user.LastActiveAt = &t
	}

	// A dangling organization_id yields NULL organization columns.
	if orgID.Valid {
		user.Organization = &models.Organization{
			ID:       orgID.UUID,
			Name:     orgName.String,
			Slug:     orgSlug.String,
			IsActive: orgActive.Bool,
			Subscription: models.Subscription{
				Status: models.SubscriptionStatus(orgStatus.String),
				PlanID: orgPlan.String,
			},
			Features:  []string(orgFeatures),
			CreatedAt: orgCreatedAt.Time,
			UpdatedAt: orgUpdatedAt.Time,
		}
	}

	return &user, nil
}

// UpdateLastActive records the user's most recent authenticated request
func (r *UserRepository) UpdateLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_active_at = $2 WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	return nil
}

// SetActive enables or disables a user account
func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE users
		SET is_active = $2,
		    updated_at = $3
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("user activation changed", zap.String("id", id.String()), zap.Bool("active", active))
	return nil
}

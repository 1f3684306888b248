package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, category, action, principal_id, principal_kind, organization_id,
			endpoint, method, details, ip_address, user_agent, request_id, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		log.ID,
		log.Category,
		log.Action,
		log.PrincipalID,
		nullString(string(log.PrincipalKind)),
		log.OrganizationID,
		nullString(log.Endpoint),
		nullString(log.Method),
		nullBytes(log.Details),
		nullString(log.IPAddress),
		nullString(log.UserAgent),
		nullString(log.RequestID),
		log.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted",
		zap.String("id", log.ID.String()),
		zap.String("category", string(log.Category)),
		zap.String("action", string(log.Action)))
	return nil
}

// ListByCategory retrieves audit logs of one category, newest first
func (r *AuditRepository) ListByCategory(ctx context.Context, category models.AuditCategory, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, category, action, principal_id, principal_kind, organization_id,
		       endpoint, method, details, ip_address, user_agent, request_id, timestamp
		FROM audit_logs
		WHERE category = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryAuditLogs(ctx, query, category, limit, offset)
}

// queryAuditLogs is a helper method to query multiple audit logs
func (r *AuditRepository) queryAuditLogs(ctx context.Context, query string, args ...interface{}) ([]*models.AuditLog, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		var (
			log           models.AuditLog
			principalID   uuid.NullUUID
			principalKind sql.NullString
			orgID         uuid.NullUUID
			endpoint      sql.NullString
			method        sql.NullString
			details       []byte
			ipAddress     sql.NullString
			userAgent     sql.NullString
			requestID     sql.NullString
		)
		err := rows.Scan(
			&log.ID,
			&log.Category,
			&log.Action,
			&principalID,
			&principalKind,
			&orgID,
			&endpoint,
			&method,
			&details,
			&ipAddress,
			&userAgent,
			&requestID,
			&log.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		if principalID.Valid {
			id := principalID.UUID
			log.PrincipalID = &id
		}
		if orgID.Valid {
			id := orgID.UUID
			log.OrganizationID = &id
		}
		log.PrincipalKind = models.PrincipalKind(principalKind.String)
		log.Endpoint = endpoint.String
		log.Method = method.String
		log.Details = details
		log.IPAddress = ipAddress.String
		log.UserAgent = userAgent.String
		log.RequestID = requestID.String

		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

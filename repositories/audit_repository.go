package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/futbolmvp/booking-system/models"
)

type ListAuditFilter struct {
	EventID *uuid.UUID
	Action  *models.AuditAction
	Limit   int
}

// AuditRepository is the append-only audit sink. Every state-changing core
// operation appends exactly one entry (plus one per cascading promotion).
type AuditRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.AuditEntry) error
	List(ctx context.Context, exec SQLExecutor, filter ListAuditFilter) ([]models.AuditEntry, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAuditRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.AuditEntry) error {
	executor := r.getExecutor(exec)

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO event_audit_log (event_id, actor_user_id, action, target_registration_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = executor.QueryRowContext(ctx, query,
		entry.EventID, entry.ActorUserID, entry.Action, entry.TargetRegistrationID, metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *postgresAuditRepository) List(ctx context.Context, exec SQLExecutor, filter ListAuditFilter) ([]models.AuditEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, event_id, actor_user_id, action, target_registration_id, metadata, created_at
		FROM event_audit_log
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.EventID != nil {
		query += fmt.Sprintf(" AND event_id = $%d", argID)
		args = append(args, *filter.EventID)
		argID++
	}
	if filter.Action != nil {
		query += fmt.Sprintf(" AND action = $%d", argID)
		args = append(args, *filter.Action)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var entry models.AuditEntry
		var metadata []byte
		if scanErr := rows.Scan(
			&entry.ID, &entry.EventID, &entry.ActorUserID, &entry.Action,
			&entry.TargetRegistrationID, &metadata, &entry.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		if len(metadata) > 0 {
			if unmarshalErr := json.Unmarshal(metadata, &entry.Metadata); unmarshalErr != nil {
				return nil, fmt.Errorf("failed to unmarshal audit metadata for entry %d: %w", entry.ID, unmarshalErr)
			}
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

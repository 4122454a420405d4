package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/futbolmvp/booking-system/models"
)

var (
	ErrCourtNotFound = errors.New("court not found in this event")
	ErrCourtInUse    = errors.New("court has registrations attached")
)

// CourtPatch carries only the fields an update should touch. The repository
// turns each set field into a targeted assignment; unset fields are left
// alone. Replaces ad-hoc SQL string assembly for partial updates.
type CourtPatch struct {
	Name      *string
	Capacity  *int
	SortOrder *int
	IsOpen    *bool
}

func (p CourtPatch) IsEmpty() bool {
	return p.Name == nil && p.Capacity == nil && p.SortOrder == nil && p.IsOpen == nil
}

type CourtRepository interface {
	Create(ctx context.Context, exec SQLExecutor, court *models.Court) error
	GetByID(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID) (*models.Court, error)
	// GetForUpdate locks the court row until the surrounding transaction
	// commits. Every capacity check that gates a write goes through it.
	GetForUpdate(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID) (*models.Court, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Court, error)
	Update(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID, patch CourtPatch) error
	SetOpen(ctx context.Context, exec SQLExecutor, courtID uuid.UUID, open bool) error
	// CloseIfOpen flips is_open true -> false and reports whether it did.
	CloseIfOpen(ctx context.Context, exec SQLExecutor, courtID uuid.UUID) (bool, error)
	Delete(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const courtColumns = `id, event_id, name, capacity, is_open, sort_order, created_at`

func scanCourt(row interface{ Scan(...interface{}) error }, c *models.Court) error {
	return row.Scan(&c.ID, &c.EventID, &c.Name, &c.Capacity, &c.IsOpen, &c.SortOrder, &c.CreatedAt)
}

func (r *postgresCourtRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Court) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO event_courts (event_id, name, capacity, is_open, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, c.EventID, c.Name, c.Capacity, c.IsOpen, c.SortOrder).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create court: %w", err)
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID) (*models.Court, error) {
	return r.get(ctx, exec, courtID, eventID, false)
}

func (r *postgresCourtRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID) (*models.Court, error) {
	return r.get(ctx, exec, courtID, eventID, true)
}

func (r *postgresCourtRepository) get(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID, forUpdate bool) (*models.Court, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + courtColumns + ` FROM event_courts WHERE id = $1 AND event_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	c := &models.Court{}
	if err := scanCourt(executor.QueryRowContext(ctx, query, courtID, eventID), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCourtRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Court, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + courtColumns + ` FROM event_courts WHERE event_id = $1 ORDER BY sort_order ASC`

	rows, err := executor.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	for rows.Next() {
		var c models.Court
		if scanErr := scanCourt(rows, &c); scanErr != nil {
			return nil, scanErr
		}
		courts = append(courts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return courts, nil
}

func (r *postgresCourtRepository) Update(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID, patch CourtPatch) error {
	executor := r.getExecutor(exec)
	query := `UPDATE event_courts SET updated_at = now()`
	args := []interface{}{}
	argID := 1

	if patch.Name != nil {
		query += fmt.Sprintf(", name = $%d", argID)
		args = append(args, *patch.Name)
		argID++
	}
	if patch.Capacity != nil {
		query += fmt.Sprintf(", capacity = $%d", argID)
		args = append(args, *patch.Capacity)
		argID++
	}
	if patch.SortOrder != nil {
		query += fmt.Sprintf(", sort_order = $%d", argID)
		args = append(args, *patch.SortOrder)
		argID++
	}
	if patch.IsOpen != nil {
		query += fmt.Sprintf(", is_open = $%d", argID)
		args = append(args, *patch.IsOpen)
		argID++
	}

	query += fmt.Sprintf(" WHERE id = $%d AND event_id = $%d", argID, argID+1)
	args = append(args, courtID, eventID)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) SetOpen(ctx context.Context, exec SQLExecutor, courtID uuid.UUID, open bool) error {
	executor := r.getExecutor(exec)
	query := `UPDATE event_courts SET is_open = $1, updated_at = now() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, open, courtID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) CloseIfOpen(ctx context.Context, exec SQLExecutor, courtID uuid.UUID) (bool, error) {
	executor := r.getExecutor(exec)
	query := `UPDATE event_courts SET is_open = false, updated_at = now() WHERE id = $1 AND is_open = true`
	result, err := executor.ExecContext(ctx, query, courtID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *postgresCourtRepository) Delete(ctx context.Context, exec SQLExecutor, courtID, eventID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM event_courts WHERE id = $1 AND event_id = $2`
	result, err := executor.ExecContext(ctx, query, courtID, eventID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

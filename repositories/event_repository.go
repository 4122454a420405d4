package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/futbolmvp/booking-system/models"
)

var ErrEventNotFound = errors.New("event not found")

type ListEventsFilter struct {
	Status           *models.EventStatus
	IncludeFinalized bool
	Limit            int
}

type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.Event) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, exec SQLExecutor, filter ListEventsFilter) ([]models.Event, error)
	ListActive(ctx context.Context, exec SQLExecutor) ([]models.Event, error)
	MostRecentActive(ctx context.Context, exec SQLExecutor) (*models.Event, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.EventStatus) error
	Finalize(ctx context.Context, exec SQLExecutor, id uuid.UUID, at time.Time) error
	Reopen(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	// CloseIfOpen transitions OPEN -> CLOSED and reports whether a row changed.
	// The auto-close controller relies on it being forward-only.
	CloseIfOpen(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error)
	ListDueForClose(ctx context.Context, exec SQLExecutor, now time.Time) ([]models.Event, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const eventColumns = `id, title, starts_at, location_name, status, close_at, finalized_at, created_by_user_id, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }, e *models.Event) error {
	return row.Scan(
		&e.ID, &e.Title, &e.StartsAt, &e.LocationName, &e.Status,
		&e.CloseAt, &e.FinalizedAt, &e.CreatedByUserID, &e.CreatedAt,
	)
}

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, e *models.Event) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO events (title, starts_at, location_name, status, close_at, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		e.Title, e.StartsAt, e.LocationName, e.Status, e.CloseAt, e.CreatedByUserID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Event, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e := &models.Event{}
	if err := scanEvent(executor.QueryRowContext(ctx, query, id), e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresEventRepository) List(ctx context.Context, exec SQLExecutor, filter ListEventsFilter) ([]models.Event, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	} else if !filter.IncludeFinalized {
		query += fmt.Sprintf(" AND status != $%d", argID)
		args = append(args, models.EventStatusFinalized)
		argID++
	}

	query += " ORDER BY starts_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	return r.queryEvents(ctx, executor, query, args...)
}

func (r *postgresEventRepository) ListActive(ctx context.Context, exec SQLExecutor) ([]models.Event, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status IN ($1, $2)
		ORDER BY starts_at DESC`
	return r.queryEvents(ctx, executor, query, models.EventStatusOpen, models.EventStatusClosed)
}

func (r *postgresEventRepository) MostRecentActive(ctx context.Context, exec SQLExecutor) (*models.Event, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status IN ($1, $2)
		ORDER BY starts_at DESC
		LIMIT 1`

	e := &models.Event{}
	err := scanEvent(executor.QueryRowContext(ctx, query, models.EventStatusOpen, models.EventStatusClosed), e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.EventStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE events SET status = $1, updated_at = now() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Finalize(ctx context.Context, exec SQLExecutor, id uuid.UUID, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE events SET status = $1, finalized_at = $2, updated_at = now() WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.EventStatusFinalized, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Reopen(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `UPDATE events SET status = $1, finalized_at = NULL, updated_at = now() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, models.EventStatusOpen, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) CloseIfOpen(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error) {
	executor := r.getExecutor(exec)
	query := `UPDATE events SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, models.EventStatusClosed, id, models.EventStatusOpen)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *postgresEventRepository) ListDueForClose(ctx context.Context, exec SQLExecutor, now time.Time) ([]models.Event, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND close_at IS NOT NULL AND close_at <= $2`
	return r.queryEvents(ctx, executor, query, models.EventStatusOpen, now)
}

func (r *postgresEventRepository) queryEvents(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.Event, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if scanErr := scanEvent(rows, &e); scanErr != nil {
			return nil, scanErr
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

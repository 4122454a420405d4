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
	ErrCaptainNotFound = errors.New("user is not a captain of this court")
	ErrCaptainConflict = errors.New("user is already a captain of this court")
)

type CaptainRepository interface {
	Assign(ctx context.Context, exec SQLExecutor, captain *models.CourtCaptain) error
	Remove(ctx context.Context, exec SQLExecutor, eventID, courtID, userID uuid.UUID) error
	// IsCaptainOfCourt answers the refined permission question: is the user
	// a captain of this specific court.
	IsCaptainOfCourt(ctx context.Context, exec SQLExecutor, eventID, courtID, userID uuid.UUID) (bool, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.CourtCaptain, error)
	DeleteByCourt(ctx context.Context, exec SQLExecutor, eventID, courtID uuid.UUID) error
}

type postgresCaptainRepository struct {
	db *sql.DB
}

func NewPostgresCaptainRepository(db *sql.DB) CaptainRepository {
	return &postgresCaptainRepository{db: db}
}

func (r *postgresCaptainRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCaptainRepository) Assign(ctx context.Context, exec SQLExecutor, c *models.CourtCaptain) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO event_court_captains (event_id, court_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query, c.EventID, c.CourtID, c.UserID).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrCaptainConflict
		}
		return fmt.Errorf("failed to assign captain: %w", err)
	}
	return nil
}

func (r *postgresCaptainRepository) Remove(ctx context.Context, exec SQLExecutor, eventID, courtID, userID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM event_court_captains WHERE event_id = $1 AND court_id = $2 AND user_id = $3`
	result, err := executor.ExecContext(ctx, query, eventID, courtID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCaptainNotFound)
}

func (r *postgresCaptainRepository) IsCaptainOfCourt(ctx context.Context, exec SQLExecutor, eventID, courtID, userID uuid.UUID) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT EXISTS (
			SELECT 1 FROM event_court_captains
			WHERE event_id = $1 AND court_id = $2 AND user_id = $3
		)`

	var exists bool
	if err := executor.QueryRowContext(ctx, query, eventID, courtID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresCaptainRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.CourtCaptain, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT event_id, court_id, user_id, created_at
		FROM event_court_captains
		WHERE event_id = $1
		ORDER BY created_at ASC`

	rows, err := executor.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	captains := make([]models.CourtCaptain, 0)
	for rows.Next() {
		var c models.CourtCaptain
		if scanErr := rows.Scan(&c.EventID, &c.CourtID, &c.UserID, &c.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		captains = append(captains, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return captains, nil
}

func (r *postgresCaptainRepository) DeleteByCourt(ctx context.Context, exec SQLExecutor, eventID, courtID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM event_court_captains WHERE event_id = $1 AND court_id = $2`
	if _, err := executor.ExecContext(ctx, query, eventID, courtID); err != nil {
		return fmt.Errorf("failed to remove court captains: %w", err)
	}
	return nil
}

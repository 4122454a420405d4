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

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrRegistrationConflict maps the partial-unique index guaranteeing at
	// most one non-cancelled USER registration per (event, user). The index
	// is the final arbiter for races the court lock cannot cover, since an
	// insert cannot be locked in advance.
	ErrRegistrationConflict = errors.New("user already has an active registration for this event")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	GetForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Registration, error)
	// CountConfirmedByCourt is the capacity ledger read. Callers that gate a
	// mutation on it must hold the court row lock in the same transaction.
	CountConfirmedByCourt(ctx context.Context, exec SQLExecutor, courtID uuid.UUID) (int, error)
	CountActiveGuestsByCreator(ctx context.Context, exec SQLExecutor, eventID, creatorID uuid.UUID) (int, error)
	CountByCourt(ctx context.Context, exec SQLExecutor, courtID uuid.UUID) (int, error)
	// OldestWaitlisted returns the event-global FIFO head: the oldest
	// WAITLIST registration with no court, locked for the transaction.
	// Returns ErrRegistrationNotFound when the waitlist is empty.
	OldestWaitlisted(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) (*models.Registration, error)
	Cancel(ctx context.Context, exec SQLExecutor, id uuid.UUID, at time.Time) error
	MoveToCourt(ctx context.Context, exec SQLExecutor, id, courtID uuid.UUID) error
	// Promote confirms a waitlisted registration onto a court.
	Promote(ctx context.Context, exec SQLExecutor, id, courtID uuid.UUID) error
	ListConfirmedByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Registration, error)
	ListWaitlistByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Registration, error)
	// CourtOccupancies returns every court of the event with its CONFIRMED
	// count, for the all-courts-effectively-closed check.
	CourtOccupancies(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.CourtOccupancy, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationColumns = `id, event_id, registration_type, status, court_id, user_id, guest_name, created_by_user_id, created_at, cancelled_at`

func scanRegistration(row interface{ Scan(...interface{}) error }, reg *models.Registration) error {
	return row.Scan(
		&reg.ID, &reg.EventID, &reg.Type, &reg.Status, &reg.CourtID,
		&reg.UserID, &reg.GuestName, &reg.CreatedByUserID, &reg.CreatedAt, &reg.CancelledAt,
	)
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO event_registrations (
			event_id, registration_type, status, court_id, user_id, guest_name, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		reg.EventID, reg.Type, reg.Status, reg.CourtID, reg.UserID, reg.GuestName, reg.CreatedByUserID,
	).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrRegistrationConflict
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE id = $1 FOR UPDATE`

	reg := &models.Registration{}
	if err := scanRegistration(executor.QueryRowContext(ctx, query, id), reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) CountConfirmedByCourt(ctx context.Context, exec SQLExecutor, courtID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT count(*) FROM event_registrations WHERE court_id = $1 AND status = $2`

	var count int
	if err := executor.QueryRowContext(ctx, query, courtID, models.RegistrationStatusConfirmed).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRegistrationRepository) CountActiveGuestsByCreator(ctx context.Context, exec SQLExecutor, eventID, creatorID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT count(*)
		FROM event_registrations
		WHERE event_id = $1
		  AND registration_type = $2
		  AND created_by_user_id = $3
		  AND status != $4`

	var count int
	err := executor.QueryRowContext(ctx, query,
		eventID, models.RegistrationTypeGuest, creatorID, models.RegistrationStatusCancelled,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRegistrationRepository) CountByCourt(ctx context.Context, exec SQLExecutor, courtID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT count(*) FROM event_registrations WHERE court_id = $1`

	var count int
	if err := executor.QueryRowContext(ctx, query, courtID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRegistrationRepository) OldestWaitlisted(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + registrationColumns + `
		FROM event_registrations
		WHERE event_id = $1 AND status = $2 AND court_id IS NULL
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE`

	reg := &models.Registration{}
	err := scanRegistration(executor.QueryRowContext(ctx, query, eventID, models.RegistrationStatusWaitlist), reg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) Cancel(ctx context.Context, exec SQLExecutor, id uuid.UUID, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE event_registrations
		SET status = $1, cancelled_at = $2, updated_at = now()
		WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.RegistrationStatusCancelled, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) MoveToCourt(ctx context.Context, exec SQLExecutor, id, courtID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `UPDATE event_registrations SET court_id = $1, updated_at = now() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, courtID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Promote(ctx context.Context, exec SQLExecutor, id, courtID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE event_registrations
		SET status = $1, court_id = $2, updated_at = now()
		WHERE id = $3 AND status = $4`
	result, err := executor.ExecContext(ctx, query,
		models.RegistrationStatusConfirmed, courtID, id, models.RegistrationStatusWaitlist)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) ListConfirmedByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM event_registrations
		WHERE event_id = $1 AND status = $2 AND court_id IS NOT NULL
		ORDER BY created_at ASC`
	return r.queryRegistrations(ctx, exec, query, eventID, models.RegistrationStatusConfirmed)
}

func (r *postgresRegistrationRepository) ListWaitlistByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM event_registrations
		WHERE event_id = $1 AND status = $2 AND court_id IS NULL
		ORDER BY created_at ASC`
	return r.queryRegistrations(ctx, exec, query, eventID, models.RegistrationStatusWaitlist)
}

func (r *postgresRegistrationRepository) CourtOccupancies(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.CourtOccupancy, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ec.id, ec.capacity, ec.is_open,
		       count(er.id) FILTER (WHERE er.status = $2) AS occupied
		FROM event_courts ec
		LEFT JOIN event_registrations er ON er.court_id = ec.id
		WHERE ec.event_id = $1
		GROUP BY ec.id, ec.capacity, ec.is_open`

	rows, err := executor.QueryContext(ctx, query, eventID, models.RegistrationStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occupancies := make([]models.CourtOccupancy, 0)
	for rows.Next() {
		var o models.CourtOccupancy
		if scanErr := rows.Scan(&o.CourtID, &o.Capacity, &o.IsOpen, &o.Occupied); scanErr != nil {
			return nil, scanErr
		}
		occupancies = append(occupancies, o)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return occupancies, nil
}

func (r *postgresRegistrationRepository) queryRegistrations(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Registration, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := scanRegistration(rows, &reg); scanErr != nil {
			return nil, scanErr
		}
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

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
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentTokenConflict = errors.New("public token already in use")
)

type ListTournamentsFilter struct {
	Status          *models.TournamentStatus
	IncludeArchived bool
	Limit           int
}

// TournamentPatch mirrors CourtPatch: only set fields are written.
// Config is editable while the tournament is DRAFT.
type TournamentPatch struct {
	Title           *string
	LocationName    *string
	StartsAt        *time.Time
	Format          *models.TournamentFormat
	TeamsCount      *int
	MinutesPerMatch *int
}

func (p TournamentPatch) IsEmpty() bool {
	return p.Title == nil && p.LocationName == nil && p.StartsAt == nil &&
		p.Format == nil && p.TeamsCount == nil && p.MinutesPerMatch == nil
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	// GetForUpdate locks the tournament row; fixture generation and match
	// start/finish serialize on it.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	GetByPublicToken(ctx context.Context, exec SQLExecutor, token string) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, id uuid.UUID, patch TournamentPatch) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error
	Touch(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, title, location_name, starts_at, status, format, teams_count, minutes_per_match, public_token, created_by_user_id, created_at, updated_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Title, &t.LocationName, &t.StartsAt, &t.Status, &t.Format,
		&t.TeamsCount, &t.MinutesPerMatch, &t.PublicToken, &t.CreatedByUserID,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (
			title, location_name, starts_at, status, format,
			teams_count, minutes_per_match, public_token, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		t.Title, t.LocationName, t.StartsAt, t.Status, t.Format,
		t.TeamsCount, t.MinutesPerMatch, t.PublicToken, t.CreatedByUserID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "tournaments_public_token_key") {
			return ErrTournamentTokenConflict
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	return r.get(ctx, exec, `id = $1`, id, false)
}

func (r *postgresTournamentRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	return r.get(ctx, exec, `id = $1`, id, true)
}

func (r *postgresTournamentRepository) GetByPublicToken(ctx context.Context, exec SQLExecutor, token string) (*models.Tournament, error) {
	return r.get(ctx, exec, `public_token = $1`, token, false)
}

func (r *postgresTournamentRepository) get(ctx context.Context, exec SQLExecutor, where string, arg interface{}, forUpdate bool) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t := &models.Tournament{}
	if err := scanTournament(executor.QueryRowContext(ctx, query, arg), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	} else if !filter.IncludeArchived {
		query += fmt.Sprintf(" AND status != $%d", argID)
		args = append(args, models.TournamentStatusArchived)
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

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, id uuid.UUID, patch TournamentPatch) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET updated_at = now()`
	args := []interface{}{}
	argID := 1

	if patch.Title != nil {
		query += fmt.Sprintf(", title = $%d", argID)
		args = append(args, *patch.Title)
		argID++
	}
	if patch.LocationName != nil {
		query += fmt.Sprintf(", location_name = $%d", argID)
		args = append(args, nullIfEmpty(*patch.LocationName))
		argID++
	}
	if patch.StartsAt != nil {
		query += fmt.Sprintf(", starts_at = $%d", argID)
		args = append(args, *patch.StartsAt)
		argID++
	}
	if patch.Format != nil {
		query += fmt.Sprintf(", format = $%d", argID)
		args = append(args, *patch.Format)
		argID++
	}
	if patch.TeamsCount != nil {
		query += fmt.Sprintf(", teams_count = $%d", argID)
		args = append(args, *patch.TeamsCount)
		argID++
	}
	if patch.MinutesPerMatch != nil {
		query += fmt.Sprintf(", minutes_per_match = $%d", argID)
		args = append(args, *patch.MinutesPerMatch)
		argID++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argID)
	args = append(args, id)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1, updated_at = now() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Touch(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET updated_at = now() WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

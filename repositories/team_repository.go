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
	ErrTeamNotFound     = errors.New("team not found in this tournament")
	ErrTeamNameConflict = errors.New("a team with this name already exists in the tournament")
	ErrMemberNotFound   = errors.New("team member not found")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, teamID, tournamentID uuid.UUID) (*models.Team, error)
	// ListByTournament returns teams in registration order; the fixture
	// generators rely on this ordering being stable.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Team, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, teamID, tournamentID uuid.UUID) error

	AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	ListMembers(ctx context.Context, exec SQLExecutor, tournamentID, teamID uuid.UUID) ([]models.TeamMember, error)
	ListMembersByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.TeamMember, error)
	RemoveMember(ctx context.Context, exec SQLExecutor, memberID, teamID uuid.UUID) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, tournament_id, name, logo_emoji, is_guest, created_at`

func scanTeam(row interface{ Scan(...interface{}) error }, t *models.Team) error {
	return row.Scan(&t.ID, &t.TournamentID, &t.Name, &t.LogoEmoji, &t.IsGuest, &t.CreatedAt)
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_teams (tournament_id, name, logo_emoji, is_guest)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, t.TournamentID, t.Name, t.LogoEmoji, t.IsGuest).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, teamID, tournamentID uuid.UUID) (*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + teamColumns + ` FROM tournament_teams WHERE id = $1 AND tournament_id = $2`

	t := &models.Team{}
	if err := scanTeam(executor.QueryRowContext(ctx, query, teamID, tournamentID), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Team, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + teamColumns + `
		FROM tournament_teams
		WHERE tournament_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if scanErr := scanTeam(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT count(*) FROM tournament_teams WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, teamID, tournamentID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournament_teams WHERE id = $1 AND tournament_id = $2`
	result, err := executor.ExecContext(ctx, query, teamID, tournamentID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

const memberColumns = `id, tournament_id, team_id, member_type, user_id, guest_name, level_override, created_at`

func scanMember(row interface{ Scan(...interface{}) error }, m *models.TeamMember) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.TeamID, &m.MemberType,
		&m.UserID, &m.GuestName, &m.LevelOverride, &m.CreatedAt,
	)
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, m *models.TeamMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_team_members (
			tournament_id, team_id, member_type, user_id, guest_name, level_override
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		m.TournamentID, m.TeamID, m.MemberType, m.UserID, m.GuestName, m.LevelOverride,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, exec SQLExecutor, tournamentID, teamID uuid.UUID) ([]models.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM tournament_team_members
		WHERE tournament_id = $1 AND team_id = $2
		ORDER BY created_at ASC`
	return r.queryMembers(ctx, exec, query, tournamentID, teamID)
}

func (r *postgresTeamRepository) ListMembersByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM tournament_team_members
		WHERE tournament_id = $1
		ORDER BY created_at ASC`
	return r.queryMembers(ctx, exec, query, tournamentID)
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, exec SQLExecutor, memberID, teamID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournament_team_members WHERE id = $1 AND team_id = $2`
	result, err := executor.ExecContext(ctx, query, memberID, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresTeamRepository) queryMembers(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.TeamMember, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if scanErr := scanMember(rows, &m); scanErr != nil {
			return nil, scanErr
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

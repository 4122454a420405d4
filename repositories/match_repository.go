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

var ErrMatchNotFound = errors.New("match not found in this tournament")

type MatchRepository interface {
	// CreateBatch inserts generated fixture matches with their pre-assigned
	// IDs and next-match wiring in one pass.
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) error
	GetByID(ctx context.Context, exec SQLExecutor, matchID, tournamentID uuid.UUID) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error)
	ListFinishedWithTeams(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
	CountPlayed(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
	// CountLiveExcept counts LIVE matches other than the given one, for the
	// single-concurrent-match rule.
	CountLiveExcept(ctx context.Context, exec SQLExecutor, tournamentID, matchID uuid.UUID) (int, error)
	MarkStarted(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, at time.Time) error
	UpdateScore(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, homeGoals, awayGoals int) error
	MarkFinished(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, at time.Time) error
	// SetSlotTeam writes a winner into the HOME or AWAY slot of a downstream
	// knockout match.
	SetSlotTeam(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, slot models.MatchSlot, teamID uuid.UUID) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, sort_order, home_team_id, away_team_id, status, home_goals, away_goals, started_at, ended_at, next_match_id, next_slot, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.SortOrder, &m.HomeTeamID, &m.AwayTeamID,
		&m.Status, &m.HomeGoals, &m.AwayGoals, &m.StartedAt, &m.EndedAt,
		&m.NextMatchID, &m.NextSlot, &m.CreatedAt,
	)
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_matches (
			id, tournament_id, round, sort_order, home_team_id, away_team_id,
			status, home_goals, away_goals, next_match_id, next_slot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, m := range matches {
		_, err := executor.ExecContext(ctx, query,
			m.ID, m.TournamentID, m.Round, m.SortOrder, m.HomeTeamID, m.AwayTeamID,
			m.Status, m.HomeGoals, m.AwayGoals, m.NextMatchID, m.NextSlot,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match round %d order %d: %w", m.Round, m.SortOrder, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_matches WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete tournament matches: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, matchID, tournamentID uuid.UUID) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE id = $1 AND tournament_id = $2`

	m := &models.Match{}
	if err := scanMatch(executor.QueryRowContext(ctx, query, matchID, tournamentID), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM tournament_matches
		WHERE tournament_id = $1
		ORDER BY round ASC, sort_order ASC`
	return r.queryMatches(ctx, exec, query, tournamentID)
}

func (r *postgresMatchRepository) ListFinishedWithTeams(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM tournament_matches
		WHERE tournament_id = $1
		  AND status = $2
		  AND home_team_id IS NOT NULL
		  AND away_team_id IS NOT NULL
		ORDER BY round ASC, sort_order ASC`
	return r.queryMatches(ctx, exec, query, tournamentID, models.MatchStatusFinished)
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT count(*) FROM tournament_matches WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresMatchRepository) CountPlayed(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT count(*)
		FROM tournament_matches
		WHERE tournament_id = $1 AND status IN ($2, $3)`

	var count int
	err := executor.QueryRowContext(ctx, query,
		tournamentID, models.MatchStatusLive, models.MatchStatusFinished).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresMatchRepository) CountLiveExcept(ctx context.Context, exec SQLExecutor, tournamentID, matchID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT count(*)
		FROM tournament_matches
		WHERE tournament_id = $1 AND status = $2 AND id != $3`

	var count int
	err := executor.QueryRowContext(ctx, query, tournamentID, models.MatchStatusLive, matchID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresMatchRepository) MarkStarted(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournament_matches SET status = $1, started_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.MatchStatusLive, at, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, homeGoals, awayGoals int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournament_matches SET home_goals = $1, away_goals = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, homeGoals, awayGoals, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkFinished(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournament_matches SET status = $1, ended_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.MatchStatusFinished, at, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetSlotTeam(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, slot models.MatchSlot, teamID uuid.UUID) error {
	executor := r.getExecutor(exec)

	column := "home_team_id"
	if slot == models.SlotAway {
		column = "away_team_id"
	}
	query := fmt.Sprintf(`UPDATE tournament_matches SET %s = $1 WHERE id = $2`, column)

	result, err := executor.ExecContext(ctx, query, teamID, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

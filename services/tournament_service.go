package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/futbolmvp/booking-system/fixtures"
	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
	"github.com/futbolmvp/booking-system/utils"
)

const publicTokenAttempts = 8

// TournamentService manages the tournament lifecycle from DRAFT setup
// (config, teams, members) through fixture generation.
type TournamentService struct {
	transactor     repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	logger         *slog.Logger
}

func NewTournamentService(
	transactor repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		transactor:     transactor,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

type CreateTournamentInput struct {
	Title           string                  `json:"title"`
	LocationName    *string                 `json:"location_name,omitempty"`
	StartsAt        *time.Time              `json:"starts_at,omitempty"`
	Format          models.TournamentFormat `json:"format"`
	TeamsCount      int                     `json:"teams_count"`
	MinutesPerMatch int                     `json:"minutes_per_match"`
}

type CreateTeamInput struct {
	Name      string  `json:"name"`
	LogoEmoji *string `json:"logo_emoji,omitempty"`
	IsGuest   bool    `json:"is_guest"`
}

type AddMemberInput struct {
	MemberType    models.MemberType `json:"member_type"`
	UserID        *uuid.UUID        `json:"user_id,omitempty"`
	GuestName     *string           `json:"guest_name,omitempty"`
	LevelOverride *int              `json:"level_override,omitempty"`
}

type TournamentDetail struct {
	Tournament *models.Tournament `json:"tournament"`
	Teams      []models.Team      `json:"teams"`
	Matches    []models.Match     `json:"matches"`
}

func isValidKnockoutCount(n int) bool {
	return n == 4 || n == 8 || n == 16
}

// CreateTournament inserts a DRAFT tournament with a freshly generated public
// token, retrying on the unlikely token collision.
func (s *TournamentService) CreateTournament(ctx context.Context, actorUserID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.TeamsCount < 2 {
		return nil, fmt.Errorf("%w: teams_count must be at least 2", ErrValidationFailed)
	}
	if input.Format != models.FormatRoundRobin && input.Format != models.FormatKnockout {
		return nil, fmt.Errorf("%w: unsupported format", ErrValidationFailed)
	}
	if input.Format == models.FormatKnockout && !isValidKnockoutCount(input.TeamsCount) {
		return nil, ErrKnockoutTeamsCount
	}

	tournament := &models.Tournament{
		Title:           strings.TrimSpace(input.Title),
		LocationName:    input.LocationName,
		Status:          models.TournamentStatusDraft,
		Format:          input.Format,
		TeamsCount:      input.TeamsCount,
		MinutesPerMatch: input.MinutesPerMatch,
		CreatedByUserID: actorUserID,
	}
	tournament.StartsAt = input.StartsAt

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for attempt := 0; attempt < publicTokenAttempts; attempt++ {
			token, err := utils.GeneratePublicToken()
			if err != nil {
				return err
			}
			tournament.PublicToken = token

			err = s.tournamentRepo.Create(ctx, exec, tournament)
			if err == nil {
				return nil
			}
			if !errors.Is(err, repositories.ErrTournamentTokenConflict) {
				return fmt.Errorf("failed to create tournament: %w", err)
			}
		}
		return ErrPublicTokenGeneration
	})
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, actorUserID uuid.UUID, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	return s.tournamentRepo.List(ctx, nil, filter)
}

func (s *TournamentService) GetDetail(ctx context.Context, tournamentID uuid.UUID) (*TournamentDetail, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentErr(err)
	}
	teams, err := s.teamsWithMembers(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return &TournamentDetail{Tournament: tournament, Teams: teams, Matches: matches}, nil
}

// UpdateConfig edits tournament settings; allowed only while DRAFT.
func (s *TournamentService) UpdateConfig(ctx context.Context, tournamentID, actorUserID uuid.UUID, patch repositories.TournamentPatch) (*models.Tournament, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidationFailed)
	}

	var tournament *models.Tournament
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.Status != models.TournamentStatusDraft {
			return ErrTournamentNotDraft
		}

		format := tournament.Format
		if patch.Format != nil {
			format = *patch.Format
			if format != models.FormatRoundRobin && format != models.FormatKnockout {
				return fmt.Errorf("%w: unsupported format", ErrValidationFailed)
			}
		}
		teamsCount := tournament.TeamsCount
		if patch.TeamsCount != nil {
			teamsCount = *patch.TeamsCount
			if teamsCount < 2 {
				return fmt.Errorf("%w: teams_count must be at least 2", ErrValidationFailed)
			}
		}
		if format == models.FormatKnockout && !isValidKnockoutCount(teamsCount) {
			return ErrKnockoutTeamsCount
		}

		if err := s.tournamentRepo.Update(ctx, exec, tournamentID, patch); err != nil {
			return fmt.Errorf("failed to update tournament: %w", err)
		}

		tournament, err = s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

// UpdateStatus advances the one-way lifecycle. Going LIVE requires a
// generated fixture.
func (s *TournamentService) UpdateStatus(ctx context.Context, tournamentID, actorUserID uuid.UUID, next models.TournamentStatus) (*models.Tournament, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	var tournament *models.Tournament
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if !tournament.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, tournament.Status, next)
		}

		if tournament.Status == models.TournamentStatusDraft && next == models.TournamentStatusLive {
			count, err := s.matchRepo.CountByTournament(ctx, exec, tournamentID)
			if err != nil {
				return fmt.Errorf("failed to count fixture matches: %w", err)
			}
			if count == 0 {
				return ErrFixtureMissing
			}
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, next); err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}
		tournament.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *TournamentService) CreateTeam(ctx context.Context, tournamentID, actorUserID uuid.UUID, input CreateTeamInput) (*models.Team, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}

	team := &models.Team{
		TournamentID: tournamentID,
		Name:         strings.TrimSpace(input.Name),
		LogoEmoji:    input.LogoEmoji,
		IsGuest:      input.IsGuest,
	}

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.Status != models.TournamentStatusDraft {
			return ErrTournamentNotDraft
		}

		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			return fmt.Errorf("failed to create team: %w", err)
		}
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TournamentService) ListTeams(ctx context.Context, tournamentID uuid.UUID) ([]models.Team, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapTournamentErr(err)
	}
	return s.teamsWithMembers(ctx, tournamentID)
}

// DeleteTeam removes a DRAFT team; blocked once a fixture references teams.
func (s *TournamentService) DeleteTeam(ctx context.Context, tournamentID, teamID, actorUserID uuid.UUID) error {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return err
	}

	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.Status != models.TournamentStatusDraft {
			return ErrTournamentNotDraft
		}

		if _, err := s.teamRepo.GetByID(ctx, exec, teamID, tournamentID); err != nil {
			return mapTeamErr(err)
		}

		matches, err := s.matchRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to count fixture matches: %w", err)
		}
		if matches > 0 {
			return ErrTeamHasMatches
		}

		if err := s.teamRepo.Delete(ctx, exec, teamID, tournamentID); err != nil {
			return mapTeamErr(err)
		}
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
}

func (s *TournamentService) AddMember(ctx context.Context, tournamentID, teamID, actorUserID uuid.UUID, input AddMemberInput) (*models.TeamMember, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	member := &models.TeamMember{
		TournamentID:  tournamentID,
		TeamID:        teamID,
		MemberType:    input.MemberType,
		LevelOverride: input.LevelOverride,
	}

	switch input.MemberType {
	case models.MemberTypeUser:
		if input.UserID == nil {
			return nil, fmt.Errorf("%w: user_id is required for USER members", ErrValidationFailed)
		}
		member.UserID = input.UserID
	case models.MemberTypeGuest:
		if input.GuestName == nil || strings.TrimSpace(*input.GuestName) == "" {
			return nil, fmt.Errorf("%w: guest_name is required for GUEST members", ErrValidationFailed)
		}
		name := strings.TrimSpace(*input.GuestName)
		member.GuestName = &name
	default:
		return nil, fmt.Errorf("%w: unsupported member_type", ErrValidationFailed)
	}

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.Status != models.TournamentStatusDraft {
			return ErrTournamentNotDraft
		}

		if _, err := s.teamRepo.GetByID(ctx, exec, teamID, tournamentID); err != nil {
			return mapTeamErr(err)
		}
		if member.UserID != nil {
			if _, err := s.userRepo.GetByID(ctx, exec, *member.UserID); err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					return ErrUserNotFound
				}
				return err
			}
		}

		if err := s.teamRepo.AddMember(ctx, exec, member); err != nil {
			return fmt.Errorf("failed to add team member: %w", err)
		}
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *TournamentService) RemoveMember(ctx context.Context, tournamentID, teamID, memberID, actorUserID uuid.UUID) error {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return err
	}

	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.Status != models.TournamentStatusDraft {
			return ErrTournamentNotDraft
		}
		if _, err := s.teamRepo.GetByID(ctx, exec, teamID, tournamentID); err != nil {
			return mapTeamErr(err)
		}

		if err := s.teamRepo.RemoveMember(ctx, exec, memberID, teamID); err != nil {
			if errors.Is(err, repositories.ErrMemberNotFound) {
				return ErrMemberNotFound
			}
			return fmt.Errorf("failed to remove team member: %w", err)
		}
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
}

// GenerateFixture replaces the PENDING fixture of a DRAFT tournament. The
// tournament row lock serializes concurrent generation attempts; regeneration
// is refused once any match has been started or finished.
func (s *TournamentService) GenerateFixture(ctx context.Context, tournamentID, actorUserID uuid.UUID) ([]models.Match, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	var created []models.Match
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.Status != models.TournamentStatusDraft {
			return ErrTournamentNotDraft
		}

		teams, err := s.teamRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		if len(teams) != tournament.TeamsCount {
			return fmt.Errorf("%w: have %d, configured %d", ErrTeamsCountMismatch, len(teams), tournament.TeamsCount)
		}

		played, err := s.matchRepo.CountPlayed(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to count played matches: %w", err)
		}
		if played > 0 {
			return ErrFixtureAlreadyPlayed
		}

		teamIDs := make([]uuid.UUID, len(teams))
		for i, t := range teams {
			teamIDs[i] = t.ID
		}

		generator, ok := fixtures.ForFormat(tournament.Format)
		if !ok {
			return fmt.Errorf("%w: unsupported format", ErrValidationFailed)
		}
		if tournament.Format == models.FormatKnockout && !isValidKnockoutCount(len(teamIDs)) {
			return ErrKnockoutTeamsCount
		}

		generated, err := generator.Generate(teamIDs)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

		if err := s.matchRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return fmt.Errorf("failed to clear previous fixture: %w", err)
		}

		created = make([]models.Match, len(generated))
		batch := make([]*models.Match, len(generated))
		for i, m := range generated {
			created[i] = models.Match{
				ID:           m.ID,
				TournamentID: tournamentID,
				Round:        m.Round,
				SortOrder:    m.SortOrder,
				HomeTeamID:   m.HomeTeamID,
				AwayTeamID:   m.AwayTeamID,
				Status:       models.MatchStatusPending,
				NextMatchID:  m.NextMatchID,
				NextSlot:     m.NextSlot,
			}
			batch[i] = &created[i]
		}
		if err := s.matchRepo.CreateBatch(ctx, exec, batch); err != nil {
			return fmt.Errorf("failed to insert fixture: %w", err)
		}
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fixture generated", "tournament_id", tournamentID, "matches", len(created))
	return created, nil
}

func (s *TournamentService) teamsWithMembers(ctx context.Context, tournamentID uuid.UUID) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	members, err := s.teamRepo.ListMembersByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}

	byTeam := make(map[uuid.UUID][]*models.TeamMember, len(teams))
	for i := range members {
		m := members[i]
		byTeam[m.TeamID] = append(byTeam[m.TeamID], &m)
	}
	for i := range teams {
		teams[i].Members = byTeam[teams[i].ID]
		if teams[i].Members == nil {
			teams[i].Members = make([]*models.TeamMember, 0)
		}
	}
	return teams, nil
}

func (s *TournamentService) requireAdmin(ctx context.Context, actorUserID uuid.UUID) error {
	isAdmin, err := s.userRepo.HasAdminRole(ctx, nil, actorUserID)
	if err != nil {
		return fmt.Errorf("failed to check actor roles: %w", err)
	}
	if !isAdmin {
		return ErrForbidden
	}
	return nil
}

func mapTournamentErr(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

func mapTeamErr(err error) error {
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/futbolmvp/booking-system/fixtures"
	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
)

// MatchService runs live match progression: start, score updates, finish
// with knockout winner propagation, and the public live view. Every change
// is pushed to websocket subscribers of the tournament's room.
type MatchService struct {
	transactor     repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	hub            *fixtures.Hub
	logger         *slog.Logger
}

func NewMatchService(
	transactor repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	hub *fixtures.Hub,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		transactor:     transactor,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		hub:            hub,
		logger:         logger,
	}
}

// PublicLiveView is the read model behind the tokenized public page.
type PublicLiveView struct {
	Tournament *models.Tournament `json:"tournament"`
	Teams      []models.Team      `json:"teams"`
	Matches    []models.Match     `json:"matches"`
	Standings  []models.Standing  `json:"standings,omitempty"`
}

// StartMatch moves a PENDING match to LIVE. The tournament must be LIVE,
// both teams must be set and no other match of the tournament may be LIVE;
// the tournament row lock arbitrates concurrent start attempts.
func (s *MatchService) StartMatch(ctx context.Context, tournamentID, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	var (
		match      *models.Match
		tournament *models.Tournament
	)
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}
		if tournament.Status != models.TournamentStatusLive {
			return fmt.Errorf("%w: tournament is not live", ErrValidationFailed)
		}

		match, err = s.matchRepo.GetByID(ctx, exec, matchID, tournamentID)
		if err != nil {
			return mapMatchErr(err)
		}
		if match.Status != models.MatchStatusPending {
			return ErrMatchNotPending
		}
		if match.HomeTeamID == nil || match.AwayTeamID == nil {
			return ErrMatchTeamsUnset
		}

		live, err := s.matchRepo.CountLiveExcept(ctx, exec, tournamentID, matchID)
		if err != nil {
			return fmt.Errorf("failed to count live matches: %w", err)
		}
		if live > 0 {
			return ErrAnotherMatchLive
		}

		now := time.Now().UTC()
		if err := s.matchRepo.MarkStarted(ctx, exec, matchID, now); err != nil {
			return fmt.Errorf("failed to start match: %w", err)
		}
		match.Status = models.MatchStatusLive
		match.StartedAt = &now
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(tournament, match)
	return match, nil
}

// PatchScore updates the score of a LIVE or FINISHED match. Editing a
// finished score is allowed for corrections; knockout propagation only
// happens at finish time.
func (s *MatchService) PatchScore(ctx context.Context, tournamentID, matchID, actorUserID uuid.UUID, homeGoals, awayGoals int) (*models.Match, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if homeGoals < 0 || awayGoals < 0 {
		return nil, fmt.Errorf("%w: goals cannot be negative", ErrValidationFailed)
	}

	var (
		match      *models.Match
		tournament *models.Tournament
	)
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}

		match, err = s.matchRepo.GetByID(ctx, exec, matchID, tournamentID)
		if err != nil {
			return mapMatchErr(err)
		}
		if match.Status != models.MatchStatusLive && match.Status != models.MatchStatusFinished {
			return ErrMatchNotEditable
		}

		if err := s.matchRepo.UpdateScore(ctx, exec, matchID, homeGoals, awayGoals); err != nil {
			return fmt.Errorf("failed to update score: %w", err)
		}
		match.HomeGoals = homeGoals
		match.AwayGoals = awayGoals
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(tournament, match)
	return match, nil
}

// FinishMatch ends a LIVE match. Knockout draws are rejected; a knockout
// winner is written into the HOME or AWAY slot of the downstream match.
func (s *MatchService) FinishMatch(ctx context.Context, tournamentID, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	var (
		match      *models.Match
		tournament *models.Tournament
	)
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentErr(err)
		}

		match, err = s.matchRepo.GetByID(ctx, exec, matchID, tournamentID)
		if err != nil {
			return mapMatchErr(err)
		}
		if match.Status != models.MatchStatusLive {
			return ErrMatchNotLive
		}
		if tournament.Format == models.FormatKnockout && match.HomeGoals == match.AwayGoals {
			return ErrKnockoutDraw
		}

		now := time.Now().UTC()
		if err := s.matchRepo.MarkFinished(ctx, exec, matchID, now); err != nil {
			return fmt.Errorf("failed to finish match: %w", err)
		}
		match.Status = models.MatchStatusFinished
		match.EndedAt = &now

		if tournament.Format == models.FormatKnockout && match.NextMatchID != nil && match.NextSlot != nil {
			if winner := match.WinnerTeamID(); winner != nil {
				if err := s.matchRepo.SetSlotTeam(ctx, exec, *match.NextMatchID, *match.NextSlot, *winner); err != nil {
					return fmt.Errorf("failed to advance winner: %w", err)
				}
			}
		}
		return s.tournamentRepo.Touch(ctx, exec, tournamentID)
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(tournament, match)
	return match, nil
}

// Standings computes the round-robin table from finished matches.
func (s *MatchService) Standings(ctx context.Context, tournamentID uuid.UUID) ([]models.Standing, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentErr(err)
	}
	if tournament.Format != models.FormatRoundRobin {
		return nil, ErrStandingsNotApplicable
	}

	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	matches, err := s.matchRepo.ListFinishedWithTeams(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}
	return ComputeStandings(teams, matches), nil
}

// PublicLive resolves a tournament by its public token and assembles the
// read-only live view. No authentication: the token is the capability.
func (s *MatchService) PublicLive(ctx context.Context, token string) (*PublicLiveView, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTournamentNotFound
	}
	tournament, err := s.tournamentRepo.GetByPublicToken(ctx, nil, token)
	if err != nil {
		return nil, mapTournamentErr(err)
	}

	var (
		teams   []models.Team
		matches []models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		teams, err = s.teamRepo.ListByTournament(gctx, nil, tournament.ID)
		return err
	})
	g.Go(func() (err error) {
		matches, err = s.matchRepo.ListByTournament(gctx, nil, tournament.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble live view: %w", err)
	}

	view := &PublicLiveView{Tournament: tournament, Teams: teams, Matches: matches}
	if tournament.Format == models.FormatRoundRobin {
		finished := make([]models.Match, 0, len(matches))
		for _, m := range matches {
			if m.Status == models.MatchStatusFinished && m.HomeTeamID != nil && m.AwayTeamID != nil {
				finished = append(finished, m)
			}
		}
		view.Standings = ComputeStandings(teams, finished)
	}
	return view, nil
}

func (s *MatchService) broadcastMatch(tournament *models.Tournament, match *models.Match) {
	if s.hub == nil || tournament == nil {
		return
	}
	s.hub.BroadcastToRoom(tournament.PublicToken, fixtures.HubMessage{
		Type:    fixtures.MessageTypeMatchUpdated,
		Payload: match,
		RoomID:  tournament.PublicToken,
	})
}

// ComputeStandings tallies 3/1/0 points over finished matches. Matches whose
// teams are not in the team list are skipped. Ordering: points, goal
// difference, goals for, then team name.
func ComputeStandings(teams []models.Team, finished []models.Match) []models.Standing {
	byTeam := make(map[uuid.UUID]*models.Standing, len(teams))
	ordered := make([]*models.Standing, 0, len(teams))
	for _, t := range teams {
		st := &models.Standing{TeamID: t.ID, TeamName: t.Name, LogoEmoji: t.LogoEmoji}
		byTeam[t.ID] = st
		ordered = append(ordered, st)
	}

	for _, m := range finished {
		if m.HomeTeamID == nil || m.AwayTeamID == nil {
			continue
		}
		home, okHome := byTeam[*m.HomeTeamID]
		away, okAway := byTeam[*m.AwayTeamID]
		if !okHome || !okAway {
			continue
		}

		home.Played++
		away.Played++
		home.GoalsFor += m.HomeGoals
		home.GoalsAgainst += m.AwayGoals
		away.GoalsFor += m.AwayGoals
		away.GoalsAgainst += m.HomeGoals

		switch {
		case m.HomeGoals > m.AwayGoals:
			home.Won++
			away.Lost++
			home.Points += 3
		case m.AwayGoals > m.HomeGoals:
			away.Won++
			home.Lost++
			away.Points += 3
		default:
			home.Drawn++
			away.Drawn++
			home.Points++
			away.Points++
		}
	}

	for _, st := range ordered {
		st.GoalDiff = st.GoalsFor - st.GoalsAgainst
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Less(ordered[j])
	})

	standings := make([]models.Standing, len(ordered))
	for i, st := range ordered {
		standings[i] = *st
	}
	return standings
}

func (s *MatchService) requireAdmin(ctx context.Context, actorUserID uuid.UUID) error {
	isAdmin, err := s.userRepo.HasAdminRole(ctx, nil, actorUserID)
	if err != nil {
		return fmt.Errorf("failed to check actor roles: %w", err)
	}
	if !isAdmin {
		return ErrForbidden
	}
	return nil
}

func mapMatchErr(err error) error {
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return ErrMatchNotFound
	}
	return err
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "PENDING"
	MatchStatusLive     MatchStatus = "LIVE"
	MatchStatusFinished MatchStatus = "FINISHED"
)

// MatchSlot names the side of a downstream knockout match a winner feeds into.
type MatchSlot string

const (
	SlotHome MatchSlot = "HOME"
	SlotAway MatchSlot = "AWAY"
)

type Match struct {
	ID           uuid.UUID   `json:"id"`
	TournamentID uuid.UUID   `json:"tournament_id"`
	Round        int         `json:"round"`
	SortOrder    int         `json:"sort_order"`
	HomeTeamID   *uuid.UUID  `json:"home_team_id,omitempty"`
	AwayTeamID   *uuid.UUID  `json:"away_team_id,omitempty"`
	Status       MatchStatus `json:"status"`
	HomeGoals    int         `json:"home_goals"`
	AwayGoals    int         `json:"away_goals"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
	NextMatchID  *uuid.UUID  `json:"next_match_id,omitempty"`
	NextSlot     *MatchSlot  `json:"next_slot,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// WinnerTeamID returns the team with the higher score, or nil on a draw.
func (m *Match) WinnerTeamID() *uuid.UUID {
	switch {
	case m.HomeGoals > m.AwayGoals:
		return m.HomeTeamID
	case m.AwayGoals > m.HomeGoals:
		return m.AwayTeamID
	}
	return nil
}

// Standing is a computed round-robin table row; it is never persisted.
type Standing struct {
	TeamID       uuid.UUID `json:"team_id"`
	TeamName     string    `json:"team_name"`
	LogoEmoji    *string   `json:"logo_emoji,omitempty"`
	Points       int       `json:"points"`
	Played       int       `json:"played"`
	Won          int       `json:"won"`
	Drawn        int       `json:"drawn"`
	Lost         int       `json:"lost"`
	GoalsFor     int       `json:"goals_for"`
	GoalsAgainst int       `json:"goals_against"`
	GoalDiff     int       `json:"goal_diff"`
}

// Less orders standings: points desc, goal difference desc, goals for desc,
// team name ascending (case-insensitive) as the final tiebreak.
func (s *Standing) Less(other *Standing) bool {
	if s.Points != other.Points {
		return s.Points > other.Points
	}
	if s.GoalDiff != other.GoalDiff {
		return s.GoalDiff > other.GoalDiff
	}
	if s.GoalsFor != other.GoalsFor {
		return s.GoalsFor > other.GoalsFor
	}
	return strings.ToLower(s.TeamName) < strings.ToLower(other.TeamName)
}

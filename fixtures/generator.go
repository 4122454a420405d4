package fixtures

import (
	"github.com/google/uuid"
	"github.com/futbolmvp/booking-system/models"
)

// FixtureMatch is a match produced by a generator before persistence. IDs are
// assigned up front so knockout matches can reference their successors.
type FixtureMatch struct {
	ID         uuid.UUID
	Round      int
	SortOrder  int
	HomeTeamID *uuid.UUID
	AwayTeamID *uuid.UUID
	NextMatchID *uuid.UUID
	NextSlot   *models.MatchSlot
}

type Generator interface {
	// Generate builds the full fixture list for the given teams. Team order
	// is significant: generators treat it as the seeding order.
	Generate(teamIDs []uuid.UUID) ([]*FixtureMatch, error)

	Name() string
}

// ForFormat returns the generator matching the tournament format.
func ForFormat(format models.TournamentFormat) (Generator, bool) {
	switch format {
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), true
	case models.FormatKnockout:
		return NewKnockoutGenerator(), true
	default:
		return nil, false
	}
}

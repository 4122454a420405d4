package fixtures

import (
	"fmt"

	"github.com/google/uuid"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate builds a single round-robin schedule using the circle method.
// With an odd team count a bye seat is added and its pairings are skipped,
// so every team sits out exactly one round. Home and away alternate between
// odd and even rounds to balance the draw.
func (g *RoundRobinGenerator) Generate(teamIDs []uuid.UUID) ([]*FixtureMatch, error) {
	if len(teamIDs) < 2 {
		return nil, fmt.Errorf("round robin requires at least 2 teams, got %d", len(teamIDs))
	}

	const byeSeat = -1

	seats := make([]int, len(teamIDs))
	for i := range teamIDs {
		seats[i] = i
	}
	if len(seats)%2 == 1 {
		seats = append(seats, byeSeat)
	}

	rounds := len(seats) - 1
	matches := make([]*FixtureMatch, 0, rounds*len(seats)/2)
	lineup := make([]int, len(seats))
	copy(lineup, seats)

	for round := 1; round <= rounds; round++ {
		sortOrder := 1
		for i := 0; i < len(lineup)/2; i++ {
			a := lineup[i]
			b := lineup[len(lineup)-1-i]
			if a == byeSeat || b == byeSeat {
				continue
			}

			home, away := teamIDs[a], teamIDs[b]
			if round%2 == 0 {
				home, away = away, home
			}

			matches = append(matches, &FixtureMatch{
				ID:         uuid.New(),
				Round:      round,
				SortOrder:  sortOrder,
				HomeTeamID: &home,
				AwayTeamID: &away,
			})
			sortOrder++
		}

		// Keep the first seat fixed, rotate the rest clockwise.
		rotated := make([]int, 0, len(lineup))
		rotated = append(rotated, lineup[0], lineup[len(lineup)-1])
		rotated = append(rotated, lineup[1:len(lineup)-1]...)
		lineup = rotated
	}

	return matches, nil
}

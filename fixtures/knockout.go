package fixtures

import (
	"fmt"
	"math/bits"

	"github.com/google/uuid"
	"github.com/futbolmvp/booking-system/models"
)

type KnockoutGenerator struct{}

func NewKnockoutGenerator() Generator {
	return &KnockoutGenerator{}
}

func (g *KnockoutGenerator) Name() string {
	return "Knockout"
}

// Generate builds a single-elimination tree. The first round pairs teams in
// seeding order (1v2, 3v4, ...); later rounds are created empty and filled as
// winners advance. Winners of adjacent matches meet: the even-indexed match
// feeds the HOME slot of its target, the odd-indexed one the AWAY slot.
func (g *KnockoutGenerator) Generate(teamIDs []uuid.UUID) ([]*FixtureMatch, error) {
	total := len(teamIDs)
	if total < 2 || bits.OnesCount(uint(total)) != 1 {
		return nil, fmt.Errorf("knockout requires a power-of-two team count, got %d", total)
	}

	roundsCount := bits.TrailingZeros(uint(total))

	rounds := make([][]*FixtureMatch, 0, roundsCount)

	firstRound := make([]*FixtureMatch, 0, total/2)
	for idx := 0; idx < total/2; idx++ {
		home, away := teamIDs[idx*2], teamIDs[idx*2+1]
		firstRound = append(firstRound, &FixtureMatch{
			ID:         uuid.New(),
			Round:      1,
			SortOrder:  idx + 1,
			HomeTeamID: &home,
			AwayTeamID: &away,
		})
	}
	rounds = append(rounds, firstRound)

	prevMatches := len(firstRound)
	for r := 2; r <= roundsCount; r++ {
		currMatches := prevMatches / 2
		current := make([]*FixtureMatch, 0, currMatches)
		for idx := 0; idx < currMatches; idx++ {
			current = append(current, &FixtureMatch{
				ID:        uuid.New(),
				Round:     r,
				SortOrder: idx + 1,
			})
		}
		rounds = append(rounds, current)
		prevMatches = currMatches
	}

	for r := 0; r < len(rounds)-1; r++ {
		srcRound := rounds[r]
		targetRound := rounds[r+1]
		for i := 0; i < len(srcRound); i += 2 {
			target := targetRound[i/2]
			homeSlot, awaySlot := models.SlotHome, models.SlotAway
			srcRound[i].NextMatchID = &target.ID
			srcRound[i].NextSlot = &homeSlot
			srcRound[i+1].NextMatchID = &target.ID
			srcRound[i+1].NextSlot = &awaySlot
		}
	}

	matches := make([]*FixtureMatch, 0, total-1)
	for _, rnd := range rounds {
		matches = append(matches, rnd...)
	}
	return matches, nil
}

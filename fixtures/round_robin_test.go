package fixtures

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamList(n int) []uuid.UUID {
	teams := make([]uuid.UUID, n)
	for i := range teams {
		teams[i] = uuid.New()
	}
	return teams
}

func pairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + "|" + b.String()
	}
	return b.String() + "|" + a.String()
}

func TestRoundRobinEveryPairExactlyOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 6, 7, 10} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			teams := teamList(n)
			matches, err := NewRoundRobinGenerator().Generate(teams)
			require.NoError(t, err)

			assert.Len(t, matches, n*(n-1)/2)

			seen := make(map[string]int)
			for _, m := range matches {
				require.NotNil(t, m.HomeTeamID)
				require.NotNil(t, m.AwayTeamID)
				assert.NotEqual(t, *m.HomeTeamID, *m.AwayTeamID)
				seen[pairKey(*m.HomeTeamID, *m.AwayTeamID)]++
			}
			for key, count := range seen {
				assert.Equalf(t, 1, count, "pair %s scheduled %d times", key, count)
			}
		})
	}
}

func TestRoundRobinEachTeamOncePerRound(t *testing.T) {
	for _, n := range []int{4, 5, 8} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			teams := teamList(n)
			matches, err := NewRoundRobinGenerator().Generate(teams)
			require.NoError(t, err)

			perRound := make(map[int]map[uuid.UUID]int)
			for _, m := range matches {
				if perRound[m.Round] == nil {
					perRound[m.Round] = make(map[uuid.UUID]int)
				}
				perRound[m.Round][*m.HomeTeamID]++
				perRound[m.Round][*m.AwayTeamID]++
			}

			expectedRounds := n - 1
			if n%2 == 1 {
				expectedRounds = n
			}
			assert.Len(t, perRound, expectedRounds)

			for round, teamsSeen := range perRound {
				for teamID, count := range teamsSeen {
					assert.Equalf(t, 1, count, "team %s plays %d matches in round %d", teamID, count, round)
				}
			}
		})
	}
}

func TestRoundRobinOddCountByes(t *testing.T) {
	teams := teamList(5)
	matches, err := NewRoundRobinGenerator().Generate(teams)
	require.NoError(t, err)

	// Five rounds of two matches each; every team sits out exactly once.
	byes := make(map[uuid.UUID]int, len(teams))
	perRound := make(map[int][]*FixtureMatch)
	for _, m := range matches {
		perRound[m.Round] = append(perRound[m.Round], m)
	}
	require.Len(t, perRound, 5)

	for _, roundMatches := range perRound {
		assert.Len(t, roundMatches, 2)
		playing := make(map[uuid.UUID]bool)
		for _, m := range roundMatches {
			playing[*m.HomeTeamID] = true
			playing[*m.AwayTeamID] = true
		}
		for _, teamID := range teams {
			if !playing[teamID] {
				byes[teamID]++
			}
		}
	}
	for _, teamID := range teams {
		assert.Equal(t, 1, byes[teamID])
	}
}

func TestRoundRobinSortOrderResetsPerRound(t *testing.T) {
	teams := teamList(6)
	matches, err := NewRoundRobinGenerator().Generate(teams)
	require.NoError(t, err)

	next := make(map[int]int)
	for _, m := range matches {
		next[m.Round]++
		assert.Equal(t, next[m.Round], m.SortOrder)
	}
}

func TestRoundRobinFourTeamSchedule(t *testing.T) {
	teams := teamList(4)
	a, b, c, d := teams[0], teams[1], teams[2], teams[3]

	matches, err := NewRoundRobinGenerator().Generate(teams)
	require.NoError(t, err)
	require.Len(t, matches, 6)

	type pairing struct{ home, away uuid.UUID }
	got := make([]pairing, len(matches))
	for i, m := range matches {
		got[i] = pairing{*m.HomeTeamID, *m.AwayTeamID}
	}

	// Circle method with seat 0 fixed; even rounds swap home and away.
	want := []pairing{
		{a, d}, {b, c},
		{c, a}, {b, d},
		{a, b}, {c, d},
	}
	assert.Equal(t, want, got)
}

func TestRoundRobinRejectsTooFewTeams(t *testing.T) {
	for _, n := range []int{0, 1} {
		_, err := NewRoundRobinGenerator().Generate(teamList(n))
		assert.Error(t, err)
	}
}

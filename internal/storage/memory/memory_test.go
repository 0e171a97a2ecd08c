package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/tourney-server/internal/storage"
)

func seededStore() *Store {
	s := NewStore()
	s.Seed(
		[]storage.Tournament{
			{Name: "Deutsche Meisterschaft 8", Shorthand: "DM8", Format: 1, BWS: true},
			{Name: "osu! World Cup 2023", Shorthand: "OWC23", Format: 4},
		},
		map[string][]storage.Stage{
			"DM8": {
				{Name: "QF", StageOrder: 2, BestOf: 9},
				{Name: "RO16", StageOrder: 1, BestOf: 9},
			},
		},
	)
	return s
}

func TestListTournamentsOrderedByID(t *testing.T) {
	s := seededStore()

	tournaments, err := s.ListTournaments(context.Background())
	require.NoError(t, err)
	require.Len(t, tournaments, 2)
	assert.Equal(t, "DM8", tournaments[0].Shorthand)
	assert.Equal(t, "OWC23", tournaments[1].Shorthand)
	assert.Equal(t, int32(1), tournaments[0].ID)
}

func TestGetTournament(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	tournament, err := s.GetTournament(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Deutsche Meisterschaft 8", tournament.Name)
	assert.True(t, tournament.BWS)

	_, err = s.GetTournament(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListStagesInStageOrder(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	stages, err := s.ListStages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "RO16", stages[0].Name)
	assert.Equal(t, "QF", stages[1].Name)
	assert.Equal(t, int32(1), stages[0].TournamentID)

	_, err = s.ListStages(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

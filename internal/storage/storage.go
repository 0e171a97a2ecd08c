// Package storage describes the tournament data this service reads. The
// relational persistence layer lives outside this repository; gated routes
// only need the read interface below.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// Tournament is a bookkept tournament.
type Tournament struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Shorthand string `json:"shorthand"`
	// Format is how many players are playing at any one time (1v1 = 1, 2v2 = 2, ...).
	Format int32 `json:"format"`
	// BWS reports whether badge-weighted seeding adjusts player ranks.
	BWS bool `json:"bws"`
}

// Stage is a stage in a tournament ("QF", "RO16", ...).
type Stage struct {
	TournamentID int32  `json:"tournamentId"`
	Name         string `json:"name"`
	StageOrder   int16  `json:"stageOrder"`
	BestOf       int16  `json:"bestOf"`
}

// TournamentStore is the read surface the gated routes require.
type TournamentStore interface {
	ListTournaments(ctx context.Context) ([]Tournament, error)
	GetTournament(ctx context.Context, id int32) (*Tournament, error)
	ListStages(ctx context.Context, tournamentID int32) ([]Stage, error)
}

// Package memory provides an in-memory TournamentStore. It backs the gated
// routes in deployments without a relational database and is seeded
// explicitly at startup instead of through process-wide demo tables.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tourneyhub/tourney-server/internal/storage"
)

// Store is a concurrency-safe in-memory TournamentStore.
type Store struct {
	mu          sync.RWMutex
	tournaments map[int32]storage.Tournament
	stages      map[int32][]storage.Stage
	nextID      int32
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tournaments: make(map[int32]storage.Tournament),
		stages:      make(map[int32][]storage.Stage),
		nextID:      1,
	}
}

// Seed inserts the given tournaments and stages, assigning ids in order.
func (s *Store) Seed(tournaments []storage.Tournament, stages map[string][]storage.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tournaments {
		t.ID = s.nextID
		s.nextID++
		s.tournaments[t.ID] = t
		for _, st := range stages[t.Shorthand] {
			st.TournamentID = t.ID
			s.stages[t.ID] = append(s.stages[t.ID], st)
		}
	}
}

// ListTournaments returns all tournaments ordered by id.
func (s *Store) ListTournaments(ctx context.Context) ([]storage.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetTournament returns the tournament with the given id.
func (s *Store) GetTournament(ctx context.Context, id int32) (*storage.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}

// ListStages returns a tournament's stages in stage order.
func (s *Store) ListStages(ctx context.Context, tournamentID int32) ([]storage.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.tournaments[tournamentID]; !ok {
		return nil, storage.ErrNotFound
	}
	stages := append([]storage.Stage(nil), s.stages[tournamentID]...)
	sort.Slice(stages, func(i, j int) bool { return stages[i].StageOrder < stages[j].StageOrder })
	return stages, nil
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

// ProjectStore is an in-memory RecordStore keyed by project id.
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[int]showcase.ProjectRecord
	err      error
}

// NewProjectStore constructs an empty ProjectStore.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[int]showcase.ProjectRecord)}
}

// FailWith makes subsequent upserts return err. Passing nil clears it.
func (s *ProjectStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// UpsertProject inserts or fully replaces the row for record.ProjectID.
func (s *ProjectStore) UpsertProject(_ context.Context, record showcase.ProjectRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if record.ProjectID <= 0 {
		return errors.New("project id must be positive")
	}
	s.projects[record.ProjectID] = record
	return nil
}

// Project returns the stored row for id.
func (s *ProjectStore) Project(id int) (showcase.ProjectRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.projects[id]
	return rec, ok
}

// IDs lists stored project ids in ascending order.
func (s *ProjectStore) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Ping always succeeds.
func (s *ProjectStore) Ping(context.Context) error {
	return nil
}

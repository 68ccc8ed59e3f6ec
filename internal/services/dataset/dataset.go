// Package dataset holds the current record set snapshot for the process.
package dataset

import (
	"context"
	"sync"
	"sync/atomic"

	"salesdash/internal/models"
)

// Loader produces a complete new snapshot
type Loader interface {
	LoadData(ctx context.Context) (*models.RecordSet, error)
}

// Store hands out the current snapshot. Readers never block; a reload
// swaps in a fully built snapshot, so a reader sees the old set or the new
// one and never a mix.
type Store struct {
	loader  Loader
	current atomic.Pointer[models.RecordSet]

	// serializes reloads
	mu sync.Mutex
}

// New creates a store with an empty snapshot
func New(loader Loader) *Store {
	s := &Store{loader: loader}
	s.current.Store(models.NewRecordSet("", "empty", nil))
	return s
}

// NewWithSnapshot creates a store already holding set
func NewWithSnapshot(loader Loader, set *models.RecordSet) *Store {
	s := &Store{loader: loader}
	s.current.Store(set)
	return s
}

// Snapshot returns the current record set
func (s *Store) Snapshot() *models.RecordSet {
	return s.current.Load()
}

// Reload loads a new snapshot and publishes it. On error the previous
// snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*models.RecordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.loader.LoadData(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(set)
	return set, nil
}

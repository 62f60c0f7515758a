package store

import (
	"context"
	"sync"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
)

// MemoryStore is a [Store] that keeps the configuration in memory.
// It is safe for concurrent use.
type MemoryStore struct {
	config  *inlays.Config
	loadErr error
	saveErr error
	saves   int
	mu      sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new [MemoryStore]. A nil config behaves as if
// nothing had been persisted.
func NewMemoryStore(c *inlays.Config) *MemoryStore {
	s := &MemoryStore{}
	if c != nil {
		s.config = c.Clone()
	}

	return s
}

func (s *MemoryStore) Load(ctx context.Context) (*inlays.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.config == nil {
		return nil, ErrNotFound
	}

	return s.config.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, c *inlays.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.saveErr != nil {
		return s.saveErr
	}

	s.config = c.Clone()
	s.saves++

	return nil
}

// SetLoadError makes subsequent loads fail with err.
func (s *MemoryStore) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadErr = err
}

// SetSaveError makes subsequent saves fail with err.
func (s *MemoryStore) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveErr = err
}

// Saves returns the number of successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saves
}

// Snapshot returns a copy of the stored configuration, or nil.
func (s *MemoryStore) Snapshot() *inlays.Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return nil
	}

	return s.config.Clone()
}

// Package memory provides a Config store backed by nothing but process
// memory, for tests and single-process demos.
package memory

import (
	"context"
	"sync"

	"distfs/internal/config"
)

// Store is an in-memory config.Store.
type Store struct {
	mu  sync.Mutex
	cfg *config.Config
}

var _ config.Store = (*Store)(nil)

// NewStore creates an empty store. Load returns nil until Save is called.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load(_ context.Context) (*config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return nil, nil
	}
	cp := *s.cfg
	return &cp, nil
}

func (s *Store) Save(_ context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cfg
	s.cfg = &cp
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by Update for an unknown id
	ErrNotFound = errors.New("call not found")
	// ErrCorrupt marks persisted data that is unparsable or not an array.
	// Stores log it and serve an empty collection instead of returning it.
	ErrCorrupt = errors.New("stored calls are corrupt")
)

// Store is the durable record store behind the call repository
type Store interface {
	LoadAll(ctx context.Context) ([]types.Call, error)
	// Create persists c and returns its id, assigning one when c.ID is empty
	Create(ctx context.Context, c types.Call) (string, error)
	// Update merges p over the stored call, ErrNotFound if id is unknown
	Update(ctx context.Context, id string, p types.Patch) error
	// Delete is idempotent
	Delete(ctx context.Context, id string) error
}

// NewID returns a time-ordered random id
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// MemoryStore keeps calls in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	calls map[string]types.Call
	order []string
}

func NewMemoryStore(seed ...types.Call) *MemoryStore {
	s := &MemoryStore{calls: make(map[string]types.Call)}
	for _, c := range seed {
		s.calls[c.ID] = c.Clone()
		s.order = append(s.order, c.ID)
	}
	return s
}

func (s *MemoryStore) LoadAll(_ context.Context) ([]types.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Call, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.calls[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, c types.Call) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = NewID()
	}
	if _, exists := s.calls[c.ID]; exists {
		return "", fmt.Errorf("call %s already exists", c.ID)
	}
	s.calls[c.ID] = c.Clone()
	s.order = append(s.order, c.ID)
	return c.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, p types.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.calls[id] = p.ApplyTo(c)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calls[id]; !ok {
		return nil
	}
	delete(s.calls, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

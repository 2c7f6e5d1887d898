package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/peterbourgon/diskv/v3"
	"github.com/rs/zerolog"
)

const (
	// CurrentKey holds the collection written by this version
	CurrentKey = "workforce_calls_v2"
)

// PriorKeys are earlier layouts, oldest last, tried in order when CurrentKey is absent
var PriorKeys = []string{"workforce_calls_v1"}

// DiskStore keeps the whole collection as one JSON array under a versioned key.
// Writes replace the array. Every operation reads through the diskv cache.
type DiskStore struct {
	mu     sync.Mutex
	d      *diskv.Diskv
	logger zerolog.Logger
}

func NewDiskStore(basePath string, logger zerolog.Logger) *DiskStore {
	return &DiskStore{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
		logger: logger.With().Str("component", "disk_store").Str("path", basePath).Logger(),
	}
}

// LoadAll never fails on bad data: a corrupt or missing collection reads as empty
func (s *DiskStore) LoadAll(_ context.Context) ([]types.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.d.Has(CurrentKey) {
		return s.migrate()
	}
	return s.read(), nil
}

// migrate copies the first valid prior array forward unchanged. Versions are never merged.
func (s *DiskStore) migrate() ([]types.Call, error) {
	for _, key := range PriorKeys {
		if !s.d.Has(key) {
			continue
		}
		raw, err := s.d.Read(key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read prior collection")
			continue
		}
		calls, err := decode(raw)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("skipping corrupt prior collection")
			continue
		}
		if err := s.d.Write(CurrentKey, raw); err != nil {
			return calls, fmt.Errorf("failed to migrate %s: %w", key, err)
		}
		s.logger.Info().Str("from", key).Str("to", CurrentKey).Int("calls", len(calls)).Msg("migrated calls")
		return calls, nil
	}
	return []types.Call{}, nil
}

func (s *DiskStore) read() []types.Call {
	raw, err := s.d.Read(CurrentKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read calls")
		return []types.Call{}
	}
	calls, err := decode(raw)
	if err != nil {
		s.logger.Error().Err(err).Msg("treating corrupt calls as empty")
		return []types.Call{}
	}
	return calls
}

func decode(raw []byte) ([]types.Call, error) {
	var calls []types.Call
	if err := json.Unmarshal(raw, &calls); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if calls == nil {
		calls = []types.Call{}
	}
	return calls, nil
}

func (s *DiskStore) write(calls []types.Call) error {
	raw, err := json.Marshal(calls)
	if err != nil {
		return fmt.Errorf("failed to encode calls: %w", err)
	}
	if err := s.d.Write(CurrentKey, raw); err != nil {
		return fmt.Errorf("failed to write calls: %w", err)
	}
	return nil
}

func (s *DiskStore) Create(_ context.Context, c types.Call) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = NewID()
	}
	calls := s.current()
	for _, existing := range calls {
		if existing.ID == c.ID {
			return "", fmt.Errorf("call %s already exists", c.ID)
		}
	}
	return c.ID, s.write(append(calls, c))
}

func (s *DiskStore) Update(_ context.Context, id string, p types.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := s.current()
	for i, c := range calls {
		if c.ID == id {
			calls[i] = p.ApplyTo(c)
			return s.write(calls)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *DiskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := s.current()
	for i, c := range calls {
		if c.ID == id {
			return s.write(append(calls[:i], calls[i+1:]...))
		}
	}
	return nil
}

// current returns the collection a write should start from, running migration first
func (s *DiskStore) current() []types.Call {
	if !s.d.Has(CurrentKey) {
		calls, err := s.migrate()
		if err != nil {
			s.logger.Error().Err(err).Msg("migration failed")
		}
		return calls
	}
	return s.read()
}

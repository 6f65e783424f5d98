package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dioinnovo/voicelead/internal/dialogue"
)

// ErrNotFound indicates the session has no checkpointed state.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL bounds how long an idle session's checkpoint survives.
const DefaultTTL = 24 * time.Hour

// Store checkpoints dialogue state between turns. Implementations must be
// safe for concurrent use.
type Store interface {
	Save(ctx context.Context, state *dialogue.State) error
	Get(ctx context.Context, sessionID string) (*dialogue.State, error)
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps checkpoints in process memory. Used in tests and for
// single-instance deployments where durability doesn't matter.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryStore builds an in-memory store. A ttl <= 0 falls back to
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(ctx context.Context, state *dialogue.State) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session: state with session_id required")
	}
	data, err := state.Marshal()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state.SessionID] = memoryEntry{
		data:      data,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*dialogue.State, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return dialogue.UnmarshalState(entry.data)
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

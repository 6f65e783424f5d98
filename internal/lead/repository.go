package lead

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested lead does not exist.
var ErrNotFound = errors.New("lead: not found")

// Repository defines the interface for qualified-lead storage
type Repository interface {
	Create(ctx context.Context, sessionID string, info Info) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	GetBySession(ctx context.Context, sessionID string) (*Record, error)
}

// InMemoryRepository is an in-memory implementation of Repository
type InMemoryRepository struct {
	mu        sync.RWMutex
	leads     map[string]*Record
	bySession map[string]string // sessionID -> lead ID
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:     make(map[string]*Record),
		bySession: make(map[string]string),
	}
}

// Create stores a qualified lead. Repeat qualification for the same session
// updates the existing record instead of duplicating it.
func (r *InMemoryRepository) Create(ctx context.Context, sessionID string, info Info) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.bySession[sessionID]; ok {
		existing := r.leads[id]
		existing.Info = existing.Info.Merge(info)
		existing.QualifiedAt = time.Now().UTC()
		return existing, nil
	}

	rec := &Record{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Info:        info,
		QualifiedAt: time.Now().UTC(),
	}
	r.leads[rec.ID] = rec
	r.bySession[sessionID] = rec.ID
	return rec, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// GetBySession retrieves the lead qualified from a given session, if any.
func (r *InMemoryRepository) GetBySession(ctx context.Context, sessionID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.leads[id], nil
}

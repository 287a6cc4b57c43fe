package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"medhead-reservation/internal/domain/entity"
	domainRepo "medhead-reservation/internal/domain/repository"

	"github.com/google/uuid"
)

// memorySweepInterval bounds how often Save scans for expired sessions
const memorySweepInterval = time.Minute

type memoryFormState struct {
	data      []byte
	expiresAt time.Time
}

type formStateMemoryRepository struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[uuid.UUID]memoryFormState
	now    func() time.Time

	lastSweep time.Time
}

// NewFormStateMemoryRepository keeps form states in process memory.
// States are stored serialized so callers never share a *FormState.
func NewFormStateMemoryRepository(ttl time.Duration) domainRepo.FormStateRepository {
	return &formStateMemoryRepository{
		ttl:    ttl,
		states: make(map[uuid.UUID]memoryFormState),
		now:    time.Now,
	}
}

func (r *formStateMemoryRepository) Get(ctx context.Context, sessionID uuid.UUID) (*entity.FormState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.states[sessionID]
	if !ok {
		return nil, domainRepo.ErrFormStateNotFound
	}
	if r.expired(stored, r.now()) {
		delete(r.states, sessionID)
		return nil, domainRepo.ErrFormStateNotFound
	}

	var state entity.FormState
	if err := json.Unmarshal(stored.data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *formStateMemoryRepository) Save(ctx context.Context, state *entity.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	r.states[state.SessionID] = memoryFormState{
		data:      data,
		expiresAt: now.Add(r.ttl),
	}
	return nil
}

func (r *formStateMemoryRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, sessionID)
	return nil
}

// sweep drops sessions that were never read again after expiring
func (r *formStateMemoryRepository) sweep(now time.Time) {
	if r.ttl <= 0 || now.Sub(r.lastSweep) < memorySweepInterval {
		return
	}
	r.lastSweep = now

	for id, stored := range r.states {
		if r.expired(stored, now) {
			delete(r.states, id)
		}
	}
}

func (r *formStateMemoryRepository) expired(stored memoryFormState, now time.Time) bool {
	return r.ttl > 0 && now.After(stored.expiresAt)
}

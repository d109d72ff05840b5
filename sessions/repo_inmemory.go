package sessions

import (
	"context"
	"sync"
	"time"
)

var _ Repo = (*InMemoryRepo)(nil)

type storedSession struct {
	session   *Session
	expiresAt time.Time
}

// InMemoryRepo is a single-process Repo. Sessions are copied on the way in
// and out so callers never share state with the store.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]storedSession
	nowFunc  func() time.Time
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]storedSession),
		nowFunc:  time.Now,
	}
}

// WithClock is used by tests to control expiry.
func (r *InMemoryRepo) WithClock(now func() time.Time) *InMemoryRepo {
	r.nowFunc = now
	return r
}

func (r *InMemoryRepo) Upsert(_ context.Context, session *Session, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return ErrSessionIDRequired
	}

	stored := session.Clone()
	stored.isNew = false

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = storedSession{
		session:   stored,
		expiresAt: r.nowFunc().Add(ttl),
	}
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}

	r.mu.RLock()
	stored, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if now := r.nowFunc(); !now.Before(stored.expiresAt) {
		r.mu.Lock()
		// an Upsert may have landed since the read lock was released
		if current, ok := r.sessions[sessionID]; ok && !now.Before(current.expiresAt) {
			delete(r.sessions, sessionID)
		}
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return stored.session.Clone(), nil
}

func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// PurgeExpired drops every expired session and returns how many went.
func (r *InMemoryRepo) PurgeExpired() int {
	now := r.nowFunc()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, stored := range r.sessions {
		if !now.Before(stored.expiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len is the number of stored sessions, expired or not.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

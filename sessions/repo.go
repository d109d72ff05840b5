package sessions

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidSessionCookie = errors.New("invalid session cookie")
	ErrSessionIDRequired    = errors.New("session id is required")
)

// Repo stores sessions by id. Implementations must be safe for concurrent
// use; each call touches a single session.
type Repo interface {
	// Upsert creates or replaces a session, keeping it for ttl.
	Upsert(ctx context.Context, session *Session, ttl time.Duration) error

	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, sessionID string) error
}

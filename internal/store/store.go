// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/chrononote/internal/domain"
)

// ErrSessionNotFound is returned when no unexpired data exists for a session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps one work list per session token with a sliding expiry.
type SessionStore interface {
	// Get returns the session's work list in stored order.
	// It returns ErrSessionNotFound if the session is absent or expired.
	Get(ctx context.Context, sessionID string) ([]domain.WorkItem, error)

	// Save replaces the session's work list and resets its expiry to now+ttl.
	Save(ctx context.Context, sessionID string, works []domain.WorkItem, ttl time.Duration) error

	// Refresh resets the session's expiry to now+ttl.
	// It returns ErrSessionNotFound if the session is absent or expired.
	Refresh(ctx context.Context, sessionID string, ttl time.Duration) error

	// Delete removes the session's data. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired purges expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/microscopium/signup/internal/signup/domain"
)

// ErrNotFound reports that a record does not exist (or, for nonces, was
// already consumed).
var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface for the service's only local
// state: outstanding form nonces. The default driver is an in-memory SQLite
// database; nothing here survives a restart, deliberately. Account state
// lives entirely on the remote image data server.
type Store interface {
	Nonces() Nonces

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Nonces interface {
	// CreateNonce stores a freshly issued nonce fingerprint.
	CreateNonce(ctx context.Context, n domain.FormNonce) error

	// ConsumeNonce atomically removes the unexpired nonce matching the
	// fingerprint and session. Returns ErrNotFound when no such nonce
	// exists, which callers treat as a duplicate submission. The removal is
	// unconditional: a consumed nonce is gone regardless of whether the
	// submission it guarded later succeeds.
	ConsumeNonce(ctx context.Context, fingerprint, sessionID string, now time.Time) error

	// DeleteExpiredNonces removes nonces whose expiry has passed.
	DeleteExpiredNonces(ctx context.Context, now time.Time) error
}

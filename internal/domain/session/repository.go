package session

import (
	"context"
	"time"
)

// Repository defines the interface for session storage operations
type Repository interface {
	// Insert stores a new open session and assigns its ID
	Insert(ctx context.Context, sess *Session) error

	// GetByID retrieves a session by its ID
	GetByID(ctx context.Context, id int64) (*Session, error)

	// LatestOpen returns the most recent open session for a user, or nil
	// when the user has no open session
	LatestOpen(ctx context.Context, userID int64) (*Session, error)

	// Close sets the logout time and duration on an open session. It
	// reports false when the session does not exist, belongs to another
	// user, or is already closed.
	Close(ctx context.Context, id, userID int64, logoutTime time.Time, duration int64) (bool, error)

	// ListByUser returns sessions for a user, newest first
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Session, error)

	// LastKnownUsername returns the username recorded on the user's most
	// recent session, or empty when the user has no sessions
	LastKnownUsername(ctx context.Context, userID int64) (string, error)

	// UserSummary returns per-user aggregates ordered by last login
	UserSummary(ctx context.Context, limit, offset int) ([]*UserSummary, error)

	// CountTrackedUsers counts distinct users with at least one session
	CountTrackedUsers(ctx context.Context) (int64, error)

	// TotalDuration sums the recorded durations of a user's closed sessions
	TotalDuration(ctx context.Context, userID int64) (int64, error)

	// PurgeBefore deletes sessions that started before the cutoff. Invoked
	// by external retention tooling only, never by the core.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateRepository is the dedicated lookup owned by the lifecycle engine,
// keyed by user id.
type StateRepository interface {
	// Get returns the state for a user, or nil when none is recorded
	Get(ctx context.Context, userID int64) (*UserState, error)

	// Put upserts the state for a user
	Put(ctx context.Context, state *UserState) error

	// Clear removes the state for a user
	Clear(ctx context.Context, userID int64) error
}

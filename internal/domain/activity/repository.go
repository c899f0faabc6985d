package activity

import (
	"context"
	"time"
)

// Repository defines the interface for activity storage operations.
// Activities are append-only; there is no update or single delete.
type Repository interface {
	// Insert stores a new activity and assigns its ID
	Insert(ctx context.Context, act *Activity) error

	// GetByID retrieves an activity by its ID
	GetByID(ctx context.Context, id int64) (*Activity, error)

	// ListBySession returns all activities of a session in chronological
	// order
	ListBySession(ctx context.Context, sessionID int64) ([]*Activity, error)

	// List returns activities matching the filter, newest first, along
	// with the total match count
	List(ctx context.Context, filter Filter) ([]*Activity, int64, error)

	// PurgeBefore deletes activities recorded before the cutoff. Invoked
	// by external retention tooling only, never by the core.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

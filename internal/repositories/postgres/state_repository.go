package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ualog/activity-tracker/internal/domain/session"
)

// StateRepository implements session.StateRepository on PostgreSQL
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new PostgreSQL user-state repository
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) Get(ctx context.Context, userID int64) (*session.UserState, error) {
	query := `
		SELECT user_id, last_seen_at, current_session_id
		FROM ual_user_state
		WHERE user_id = $1`

	state := &session.UserState{}
	var lastSeen sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&state.UserID,
		&lastSeen,
		&state.CurrentSessionID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	if lastSeen.Valid {
		state.LastSeenAt = lastSeen.Time
	}
	return state, nil
}

func (r *StateRepository) Put(ctx context.Context, state *session.UserState) error {
	query := `
		INSERT INTO ual_user_state (user_id, last_seen_at, current_session_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET last_seen_at = EXCLUDED.last_seen_at,
		    current_session_id = EXCLUDED.current_session_id`

	lastSeen := sql.NullTime{Time: state.LastSeenAt, Valid: !state.LastSeenAt.IsZero()}
	_, err := r.db.ExecContext(ctx, query, state.UserID, lastSeen, state.CurrentSessionID)
	if err != nil {
		return fmt.Errorf("failed to put user state: %w", err)
	}
	return nil
}

func (r *StateRepository) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ual_user_state WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear user state: %w", err)
	}
	return nil
}

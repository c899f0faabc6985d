package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ualog/activity-tracker/internal/domain/session"
)

// SessionRepository implements session.Repository on PostgreSQL
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO ual_sessions (user_id, username, ip_address, login_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		sess.UserID,
		sess.Username,
		sess.IPAddress,
		sess.LoginTime,
	).Scan(&sess.ID)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*session.Session, error) {
	query := `
		SELECT id, user_id, username, ip_address, login_time, logout_time, session_duration
		FROM ual_sessions
		WHERE id = $1`

	sess, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

func (r *SessionRepository) LatestOpen(ctx context.Context, userID int64) (*session.Session, error) {
	query := `
		SELECT id, user_id, username, ip_address, login_time, logout_time, session_duration
		FROM ual_sessions
		WHERE user_id = $1 AND logout_time IS NULL
		ORDER BY login_time DESC
		LIMIT 1`

	sess, err := scanSession(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest open session: %w", err)
	}
	return sess, nil
}

func (r *SessionRepository) Close(ctx context.Context, id, userID int64, logoutTime time.Time, duration int64) (bool, error) {
	query := `
		UPDATE ual_sessions
		SET logout_time = $1, session_duration = $2
		WHERE id = $3 AND user_id = $4 AND logout_time IS NULL`

	result, err := r.db.ExecContext(ctx, query, logoutTime, duration, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*session.Session, error) {
	query := `
		SELECT id, user_id, username, ip_address, login_time, logout_time, session_duration
		FROM ual_sessions
		WHERE user_id = $1
		ORDER BY login_time DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	sessions := []*session.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) LastKnownUsername(ctx context.Context, userID int64) (string, error) {
	query := `
		SELECT username
		FROM ual_sessions
		WHERE user_id = $1
		ORDER BY login_time DESC
		LIMIT 1`

	var username string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get username: %w", err)
	}
	return username, nil
}

func (r *SessionRepository) UserSummary(ctx context.Context, limit, offset int) ([]*session.UserSummary, error) {
	query := `
		SELECT
			s.user_id,
			(SELECT s2.username FROM ual_sessions s2
			 WHERE s2.user_id = s.user_id
			 ORDER BY s2.login_time DESC LIMIT 1) AS username,
			MAX(s.login_time) AS last_login,
			(SELECT s3.session_duration FROM ual_sessions s3
			 WHERE s3.user_id = s.user_id
			 ORDER BY s3.login_time DESC LIMIT 1) AS last_session_duration,
			COUNT(*) AS total_sessions
		FROM ual_sessions s
		GROUP BY s.user_id
		ORDER BY last_login DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query user summary: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	summaries := []*session.UserSummary{}
	for rows.Next() {
		summary := &session.UserSummary{}
		var lastDuration sql.NullInt64
		if err := rows.Scan(
			&summary.UserID,
			&summary.Username,
			&summary.LastLogin,
			&lastDuration,
			&summary.TotalSessions,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		if lastDuration.Valid {
			summary.LastSessionDuration = &lastDuration.Int64
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return summaries, nil
}

func (r *SessionRepository) CountTrackedUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM ual_sessions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracked users: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) TotalDuration(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(session_duration), 0)
		FROM ual_sessions
		WHERE user_id = $1 AND session_duration IS NOT NULL`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to total durations: %w", err)
	}
	return total, nil
}

func (r *SessionRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ual_sessions WHERE login_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*session.Session, error) {
	sess := &session.Session{}
	var logoutTime sql.NullTime
	var duration sql.NullInt64

	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Username,
		&sess.IPAddress,
		&sess.LoginTime,
		&logoutTime,
		&duration,
	)
	if err != nil {
		return nil, err
	}
	if logoutTime.Valid {
		t := logoutTime.Time
		sess.LogoutTime = &t
	}
	if duration.Valid {
		d := duration.Int64
		sess.Duration = &d
	}
	return sess, nil
}

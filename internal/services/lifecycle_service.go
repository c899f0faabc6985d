package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ualog/activity-tracker/internal/domain/session"
	"github.com/ualog/activity-tracker/internal/metrics"
)

const (
	// DefaultIdleTimeout is the inactivity gap after which the next tracked
	// request rolls the session over.
	DefaultIdleTimeout = 1800 * time.Second

	// DefaultStaleAfter is how long a session may stay open before the next
	// login force-closes it.
	DefaultStaleAfter = 12 * time.Hour
)

// LifecycleConfig holds lifecycle engine settings
type LifecycleConfig struct {
	IdleTimeout time.Duration
	StaleAfter  time.Duration

	// Clock overrides the time source; nil means time.Now
	Clock func() time.Time
}

// LifecycleService decides when a session opens, closes, or is reconciled
// as abandoned. It maintains the invariant that no open session survives
// abnormal abandonment indefinitely; it deliberately does not prevent a
// user from holding more than one open session (multi-device use).
type LifecycleService struct {
	sessions    session.Repository
	state       session.StateRepository
	idleTimeout time.Duration
	staleAfter  time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(sessions session.Repository, state session.StateRepository, cfg LifecycleConfig, logger *zap.Logger) *LifecycleService {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		sessions:    sessions,
		state:       state,
		idleTimeout: cfg.IdleTimeout,
		staleAfter:  cfg.StaleAfter,
		logger:      logger,
		now:         cfg.Clock,
	}
}

// OpenSession creates a new open session and records it as the user's
// current one. No uniqueness check is made against other open sessions.
func (s *LifecycleService) OpenSession(ctx context.Context, userID int64, username, ipAddress string) (int64, error) {
	sess := &session.Session{
		UserID:    userID,
		Username:  username,
		IPAddress: ipAddress,
		LoginTime: s.now().UTC(),
	}
	if err := s.sessions.Insert(ctx, sess); err != nil {
		return 0, fmt.Errorf("failed to open session: %w", err)
	}
	metrics.SessionsOpened.Inc()

	if err := s.setCurrentSession(ctx, userID, sess.ID); err != nil {
		// The pointer is a cache; the fallback query still finds the row.
		s.logger.Warn("failed to record current session pointer",
			zap.Int64("user_id", userID),
			zap.Int64("session_id", sess.ID),
			zap.Error(err))
	}
	return sess.ID, nil
}

// ImplicitOpen opens a session for activity that arrives without one, so
// that no activity is ever orphaned. The username is recovered from the
// user's most recent session when available.
func (s *LifecycleService) ImplicitOpen(ctx context.Context, userID int64, ipAddress string) (int64, error) {
	username, err := s.sessions.LastKnownUsername(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve username: %w", err)
	}
	return s.OpenSession(ctx, userID, username, ipAddress)
}

// CloseSession closes a specific session when sessionID is non-zero, or the
// user's latest open session when it is zero. It reports false when there
// was nothing to close: closing an already closed session is a no-op.
func (s *LifecycleService) CloseSession(ctx context.Context, userID, sessionID int64) (bool, error) {
	var target *session.Session
	if sessionID != 0 {
		sess, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("failed to load session: %w", err)
		}
		if sess.UserID != userID || !sess.Open() {
			return false, nil
		}
		target = sess
	} else {
		sess, err := s.sessions.LatestOpen(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("failed to find open session: %w", err)
		}
		if sess == nil {
			return false, nil
		}
		target = sess
	}
	return s.closeAt(ctx, target, s.now(), metrics.CauseLogout)
}

// TouchActivity is called on every authenticated request. When the gap
// since the user's last tracked request exceeds the idle timeout, the
// current session is closed at the last-seen instant and a fresh one is
// opened with the same identity. The last-seen timestamp is always
// advanced, whichever branch is taken.
func (s *LifecycleService) TouchActivity(ctx context.Context, userID int64) error {
	now := s.now().UTC()

	state, err := s.state.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read user state: %w", err)
	}
	if state == nil {
		state = &session.UserState{UserID: userID}
	}

	var rolloverErr error
	if !state.LastSeenAt.IsZero() && now.Sub(state.LastSeenAt) > s.idleTimeout && state.CurrentSessionID != 0 {
		rolloverErr = s.rollover(ctx, userID, state, now)
	}

	state.LastSeenAt = now
	if err := s.state.Put(ctx, state); err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return rolloverErr
}

// rollover closes the idle session at the last tick and opens a successor.
// A failure between the two steps leaves the user without an open session
// until their next tracked signal; there is no cross-row transaction.
func (s *LifecycleService) rollover(ctx context.Context, userID int64, state *session.UserState, now time.Time) error {
	sess, err := s.sessions.GetByID(ctx, state.CurrentSessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			state.CurrentSessionID = 0
			return nil
		}
		return fmt.Errorf("failed to load idle session: %w", err)
	}
	if sess.UserID != userID || !sess.Open() {
		state.CurrentSessionID = 0
		return nil
	}

	// Duration runs up to the last tick, not up to now.
	if _, err := s.closeAt(ctx, sess, state.LastSeenAt, metrics.CauseIdle); err != nil {
		return err
	}
	state.CurrentSessionID = 0

	fresh := &session.Session{
		UserID:    userID,
		Username:  sess.Username,
		IPAddress: sess.IPAddress,
		LoginTime: now,
	}
	if err := s.sessions.Insert(ctx, fresh); err != nil {
		return fmt.Errorf("failed to open successor session: %w", err)
	}
	metrics.SessionsOpened.Inc()
	state.CurrentSessionID = fresh.ID

	s.logger.Info("idle session rolled over",
		zap.Int64("user_id", userID),
		zap.Int64("closed_session_id", sess.ID),
		zap.Int64("new_session_id", fresh.ID))
	return nil
}

// ReconcileOnLogin force-closes the user's latest open session when it has
// been open longer than the stale threshold. It guards against crashes or
// missed logout signals leaving sessions open indefinitely.
func (s *LifecycleService) ReconcileOnLogin(ctx context.Context, userID int64) error {
	sess, err := s.sessions.LatestOpen(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find open session: %w", err)
	}
	if sess == nil {
		return nil
	}

	now := s.now().UTC()
	if now.Sub(sess.LoginTime) <= s.staleAfter {
		return nil
	}

	if _, err := s.closeAt(ctx, sess, now, metrics.CauseStale); err != nil {
		return err
	}
	s.logger.Info("stale session reconciled",
		zap.Int64("user_id", userID),
		zap.Int64("session_id", sess.ID))
	return nil
}

// CurrentSessionID returns the user's current session id, or 0 when the
// user has no open session. The cached pointer is preferred; a store lookup
// backfills it when missing.
func (s *LifecycleService) CurrentSessionID(ctx context.Context, userID int64) (int64, error) {
	state, err := s.state.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read user state: %w", err)
	}
	if state != nil && state.CurrentSessionID != 0 {
		return state.CurrentSessionID, nil
	}

	sess, err := s.sessions.LatestOpen(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to find open session: %w", err)
	}
	if sess == nil {
		return 0, nil
	}

	if state == nil {
		state = &session.UserState{UserID: userID}
	}
	state.CurrentSessionID = sess.ID
	if err := s.state.Put(ctx, state); err != nil {
		s.logger.Warn("failed to cache current session pointer",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
	return sess.ID, nil
}

// closeAt closes a session at the given instant and drops the user's
// current-session pointer when it referenced the closed session.
func (s *LifecycleService) closeAt(ctx context.Context, sess *session.Session, at time.Time, cause string) (bool, error) {
	at = at.UTC()
	duration := int64(at.Sub(sess.LoginTime) / time.Second)

	closed, err := s.sessions.Close(ctx, sess.ID, sess.UserID, at, duration)
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}
	if !closed {
		return false, nil
	}
	metrics.SessionsClosed.WithLabelValues(cause).Inc()

	if err := s.clearCurrentSession(ctx, sess.UserID, sess.ID); err != nil {
		s.logger.Warn("failed to clear current session pointer",
			zap.Int64("user_id", sess.UserID),
			zap.Int64("session_id", sess.ID),
			zap.Error(err))
	}
	return true, nil
}

func (s *LifecycleService) setCurrentSession(ctx context.Context, userID, sessionID int64) error {
	state, err := s.state.Get(ctx, userID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &session.UserState{UserID: userID}
	}
	state.CurrentSessionID = sessionID
	return s.state.Put(ctx, state)
}

func (s *LifecycleService) clearCurrentSession(ctx context.Context, userID, sessionID int64) error {
	state, err := s.state.Get(ctx, userID)
	if err != nil {
		return err
	}
	if state == nil || state.CurrentSessionID != sessionID {
		return nil
	}
	state.CurrentSessionID = 0
	return s.state.Put(ctx, state)
}

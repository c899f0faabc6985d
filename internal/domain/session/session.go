package session

import (
	"time"
)

// Session represents one continuous span of a user's presence, from login
// (or an implicit first tracked action) to logout, idle rollover, or stale
// reconciliation. A session is open while LogoutTime is unset.
type Session struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	IPAddress  string     `json:"ip_address"`
	LoginTime  time.Time  `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time,omitempty"`
	Duration   *int64     `json:"duration,omitempty"`
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool {
	return s.LogoutTime == nil
}

// Close stamps the logout time and derives the duration in whole seconds.
// Closing an already closed session is a no-op and reports false; the
// original logout time is never changed.
func (s *Session) Close(at time.Time) bool {
	if s.LogoutTime != nil {
		return false
	}
	at = at.UTC()
	duration := int64(at.Sub(s.LoginTime) / time.Second)
	s.LogoutTime = &at
	s.Duration = &duration
	return true
}

// UserState is the per-user side channel consulted on every tracked request.
// It holds exactly the last-seen timestamp and the current session pointer.
type UserState struct {
	UserID           int64     `json:"user_id"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	CurrentSessionID int64     `json:"current_session_id"`
}

// UserSummary is the per-user aggregate exposed to reporting collaborators.
type UserSummary struct {
	UserID              int64     `json:"user_id"`
	Username            string    `json:"username"`
	LastLogin           time.Time `json:"last_login"`
	LastSessionDuration *int64    `json:"last_session_duration,omitempty"`
	TotalSessions       int64     `json:"total_sessions"`
}

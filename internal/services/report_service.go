package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ualog/activity-tracker/internal/domain/activity"
	"github.com/ualog/activity-tracker/internal/domain/session"
)

// reportSessionPage bounds how many sessions a single export walks.
const reportSessionPage = 500

// UserReport is the assembled export payload: total connection time plus a
// chronological session/activity breakdown.
type UserReport struct {
	UserID        int64           `json:"user_id"`
	Username      string          `json:"username"`
	TotalDuration time.Duration   `json:"total_duration"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Sessions      []SessionReport `json:"sessions"`
}

// SessionReport pairs a session with its activities in chronological order.
type SessionReport struct {
	Session    *session.Session     `json:"session"`
	Activities []*activity.Activity `json:"activities"`
}

// ReportService exposes the read queries used by presentation
// collaborators.
type ReportService struct {
	sessions   session.Repository
	activities activity.Repository
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(sessions session.Repository, activities activity.Repository) *ReportService {
	return &ReportService{
		sessions:   sessions,
		activities: activities,
		now:        time.Now,
	}
}

// ListUserSessions returns a user's sessions, newest first.
func (s *ReportService) ListUserSessions(ctx context.Context, userID int64, limit, offset int) ([]*session.Session, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessions.ListByUser(ctx, userID, limit, offset)
}

// ListSessionActivities returns a session's activities in chronological
// order.
func (s *ReportService) ListSessionActivities(ctx context.Context, sessionID int64) ([]*activity.Activity, error) {
	return s.activities.ListBySession(ctx, sessionID)
}

// ListUserActivities returns activities matching the filter.
func (s *ReportService) ListUserActivities(ctx context.Context, filter activity.Filter) ([]*activity.Activity, int64, error) {
	return s.activities.List(ctx, filter)
}

// UserSummary returns per-user aggregates, most recently seen first.
func (s *ReportService) UserSummary(ctx context.Context, limit, offset int) ([]*session.UserSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessions.UserSummary(ctx, limit, offset)
}

// CountTrackedUsers returns the number of distinct users with at least one
// session.
func (s *ReportService) CountTrackedUsers(ctx context.Context) (int64, error) {
	return s.sessions.CountTrackedUsers(ctx)
}

// BuildUserReport assembles the export document for one user.
func (s *ReportService) BuildUserReport(ctx context.Context, userID int64) (*UserReport, error) {
	username, err := s.sessions.LastKnownUsername(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve username: %w", err)
	}

	total, err := s.sessions.TotalDuration(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to total session durations: %w", err)
	}

	report := &UserReport{
		UserID:        userID,
		Username:      username,
		TotalDuration: time.Duration(total) * time.Second,
		GeneratedAt:   s.now().UTC(),
	}

	for offset := 0; ; offset += reportSessionPage {
		sessions, err := s.sessions.ListByUser(ctx, userID, reportSessionPage, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		for _, sess := range sessions {
			acts, err := s.activities.ListBySession(ctx, sess.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list session activities: %w", err)
			}
			report.Sessions = append(report.Sessions, SessionReport{
				Session:    sess,
				Activities: acts,
			})
		}
		if len(sessions) < reportSessionPage {
			break
		}
	}
	return report, nil
}

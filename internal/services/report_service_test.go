package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ualog/activity-tracker/internal/domain/activity"
	"github.com/ualog/activity-tracker/internal/domain/session"
	"github.com/ualog/activity-tracker/internal/services"
)

func TestReportService_ListUserSessions_DefaultsLimit(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	activities := new(MockActivityRepository)
	svc := services.NewReportService(sessions, activities)

	expected := []*session.Session{{ID: 1, UserID: 42}}
	sessions.On("ListByUser", ctx, int64(42), 10, 0).Return(expected, nil)

	got, err := svc.ListUserSessions(ctx, 42, 0, -5)

	require.NoError(t, err)
	assert.Equal(t, expected, got)
	sessions.AssertExpectations(t)
}

func TestReportService_UserSummary_DefaultsLimit(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	activities := new(MockActivityRepository)
	svc := services.NewReportService(sessions, activities)

	dur := int64(300)
	expected := []*session.UserSummary{{
		UserID:              42,
		Username:            "alice",
		LastLogin:           time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		LastSessionDuration: &dur,
		TotalSessions:       3,
	}}
	sessions.On("UserSummary", ctx, 20, 0).Return(expected, nil)

	got, err := svc.UserSummary(ctx, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestReportService_CountTrackedUsers(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	activities := new(MockActivityRepository)
	svc := services.NewReportService(sessions, activities)

	sessions.On("CountTrackedUsers", ctx).Return(int64(17), nil)

	count, err := svc.CountTrackedUsers(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(17), count)
}

func TestReportService_BuildUserReport(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	activities := new(MockActivityRepository)
	svc := services.NewReportService(sessions, activities)

	login := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sessList := []*session.Session{
		{ID: 2, UserID: 42, LoginTime: login.Add(2 * time.Hour)},
		{ID: 1, UserID: 42, LoginTime: login},
	}
	acts := []*activity.Activity{{ID: 9, SessionID: 2, UserID: 42, Type: activity.TypePageVisit}}

	sessions.On("LastKnownUsername", ctx, int64(42)).Return("alice", nil)
	sessions.On("TotalDuration", ctx, int64(42)).Return(int64(5700), nil)
	sessions.On("ListByUser", ctx, int64(42), 500, 0).Return(sessList, nil)
	activities.On("ListBySession", ctx, int64(2)).Return(acts, nil)
	activities.On("ListBySession", ctx, int64(1)).Return([]*activity.Activity{}, nil)

	report, err := svc.BuildUserReport(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), report.UserID)
	assert.Equal(t, "alice", report.Username)
	assert.Equal(t, 95*time.Minute, report.TotalDuration)
	assert.False(t, report.GeneratedAt.IsZero())
	require.Len(t, report.Sessions, 2)
	assert.Equal(t, int64(2), report.Sessions[0].Session.ID)
	assert.Equal(t, acts, report.Sessions[0].Activities)
	assert.Empty(t, report.Sessions[1].Activities)
	sessions.AssertExpectations(t)
	activities.AssertExpectations(t)
}

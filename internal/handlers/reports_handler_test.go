package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ualog/activity-tracker/internal/domain/activity"
	"github.com/ualog/activity-tracker/internal/domain/session"
	"github.com/ualog/activity-tracker/internal/presentation"
	"github.com/ualog/activity-tracker/internal/services"
)

type mockReports struct {
	mock.Mock
}

func (m *mockReports) ListUserSessions(ctx context.Context, userID int64, limit, offset int) ([]*session.Session, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *mockReports) ListSessionActivities(ctx context.Context, sessionID int64) ([]*activity.Activity, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Activity), args.Error(1)
}

func (m *mockReports) UserSummary(ctx context.Context, limit, offset int) ([]*session.UserSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.UserSummary), args.Error(1)
}

func (m *mockReports) CountTrackedUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReports) BuildUserReport(ctx context.Context, userID int64) (*services.UserReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.UserReport), args.Error(1)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) Export(report *services.UserReport) ([]byte, error) {
	args := m.Called(report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func reportsRouter(reports *mockReports, exporter *mockExporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewReportsHandler(reports, exporter, presentation.NewFormatter())

	router := gin.New()
	router.GET("/v1/users/:id/sessions", h.ListUserSessions)
	router.GET("/v1/users/:id/export", h.ExportUser)
	router.GET("/v1/sessions/:id/activities", h.ListSessionActivities)
	router.GET("/v1/reports/summary", h.Summary)
	router.GET("/v1/reports/users/count", h.CountUsers)
	return router
}

func getPath(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReportsHandler_ListUserSessions(t *testing.T) {
	reports := new(mockReports)
	exporter := new(mockExporter)
	router := reportsRouter(reports, exporter)

	login := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reports.On("ListUserSessions", mock.Anything, int64(42), 5, 10).Return([]*session.Session{
		{ID: 7, UserID: 42, Username: "alice", LoginTime: login},
	}, nil)

	w := getPath(router, "/v1/users/42/sessions?limit=5&offset=10")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Sessions []*session.Session `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, int64(7), resp.Sessions[0].ID)
}

func TestReportsHandler_ListUserSessions_BadID(t *testing.T) {
	reports := new(mockReports)
	exporter := new(mockExporter)
	router := reportsRouter(reports, exporter)

	w := getPath(router, "/v1/users/abc/sessions")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	reports.AssertNotCalled(t, "ListUserSessions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportsHandler_ListSessionActivities_AttachesDisplay(t *testing.T) {
	reports := new(mockReports)
	exporter := new(mockExporter)
	router := reportsRouter(reports, exporter)

	reports.On("ListSessionActivities", mock.Anything, int64(5)).Return([]*activity.Activity{
		{
			ID:           1,
			SessionID:    5,
			UserID:       42,
			Type:         activity.TypePageVisit,
			ObjectName:   "Home",
			ActivityTime: time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC),
		},
	}, nil)

	w := getPath(router, "/v1/sessions/5/activities")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Activities []struct {
			ID      int64                `json:"id"`
			Display presentation.Display `json:"display"`
		} `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Activities, 1)
	assert.Equal(t, "Page Visit", resp.Activities[0].Display.TypeLabel)
	assert.Equal(t, "Visited page: Home", resp.Activities[0].Display.Summary)
}

func TestReportsHandler_Summary(t *testing.T) {
	reports := new(mockReports)
	exporter := new(mockExporter)
	router := reportsRouter(reports, exporter)

	reports.On("UserSummary", mock.Anything, 20, 0).Return([]*session.UserSummary{
		{UserID: 42, Username: "alice", TotalSessions: 3},
	}, nil)

	w := getPath(router, "/v1/reports/summary")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Users []*session.UserSummary `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, int64(3), resp.Users[0].TotalSessions)
}

func TestReportsHandler_CountUsers(t *testing.T) {
	reports := new(mockReports)
	exporter := new(mockExporter)
	router := reportsRouter(reports, exporter)

	reports.On("CountTrackedUsers", mock.Anything).Return(int64(17), nil)

	w := getPath(router, "/v1/reports/users/count")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(17), resp["count"])
}

func TestReportsHandler_ExportUser(t *testing.T) {
	reports := new(mockReports)
	exporter := new(mockExporter)
	router := reportsRouter(reports, exporter)

	report := &services.UserReport{UserID: 42, Username: "alice"}
	reports.On("BuildUserReport", mock.Anything, int64(42)).Return(report, nil)
	exporter.On("Export", report).Return([]byte("%PDF-1.4 fake"), nil)

	w := getPath(router, "/v1/users/42/export")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "user-activity-42.pdf")
	assert.Equal(t, "%PDF-1.4 fake", w.Body.String())
}

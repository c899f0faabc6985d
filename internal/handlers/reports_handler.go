package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ualog/activity-tracker/internal/domain/activity"
	"github.com/ualog/activity-tracker/internal/domain/session"
	"github.com/ualog/activity-tracker/internal/presentation"
	"github.com/ualog/activity-tracker/internal/services"
)

// ReportProvider is the slice of the report service the read endpoints
// need
type ReportProvider interface {
	ListUserSessions(ctx context.Context, userID int64, limit, offset int) ([]*session.Session, error)
	ListSessionActivities(ctx context.Context, sessionID int64) ([]*activity.Activity, error)
	UserSummary(ctx context.Context, limit, offset int) ([]*session.UserSummary, error)
	CountTrackedUsers(ctx context.Context) (int64, error)
	BuildUserReport(ctx context.Context, userID int64) (*services.UserReport, error)
}

// Exporter renders a user report as a downloadable document
type Exporter interface {
	Export(report *services.UserReport) ([]byte, error)
}

// ReportsHandler serves the outbound queries used by presentation
// collaborators.
type ReportsHandler struct {
	reports   ReportProvider
	exporter  Exporter
	formatter *presentation.Formatter
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(reports ReportProvider, exporter Exporter, formatter *presentation.Formatter) *ReportsHandler {
	return &ReportsHandler{
		reports:   reports,
		exporter:  exporter,
		formatter: formatter,
	}
}

// ListUserSessions returns a user's sessions, newest first
func (h *ReportsHandler) ListUserSessions(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_USER_ID",
			Message: "Invalid user id",
		})
		return
	}

	sessions, err := h.reports.ListUserSessions(c.Request.Context(), userID,
		queryInt(c, "limit", 10), queryInt(c, "offset", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "LIST_SESSIONS_FAILED",
			Message: "Failed to list sessions",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"sessions": sessions,
	})
}

// activityView pairs the stored record with its display tuple
type activityView struct {
	*activity.Activity
	Display presentation.Display `json:"display"`
}

// ListSessionActivities returns a session's activities in chronological
// order, each with its display tuple
func (h *ReportsHandler) ListSessionActivities(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_SESSION_ID",
			Message: "Invalid session id",
		})
		return
	}

	activities, err := h.reports.ListSessionActivities(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "LIST_ACTIVITIES_FAILED",
			Message: "Failed to list activities",
			Details: err.Error(),
		})
		return
	}

	views := make([]activityView, 0, len(activities))
	for _, act := range activities {
		views = append(views, activityView{
			Activity: act,
			Display:  h.formatter.Format(act),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"activities": views,
	})
}

// Summary returns per-user aggregates
func (h *ReportsHandler) Summary(c *gin.Context) {
	summaries, err := h.reports.UserSummary(c.Request.Context(),
		queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "SUMMARY_FAILED",
			Message: "Failed to build user summary",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"users":  summaries,
	})
}

// CountUsers returns the number of distinct users with sessions
func (h *ReportsHandler) CountUsers(c *gin.Context) {
	count, err := h.reports.CountTrackedUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "COUNT_FAILED",
			Message: "Failed to count tracked users",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"count":  count,
	})
}

// ExportUser streams a PDF report for one user
func (h *ReportsHandler) ExportUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_USER_ID",
			Message: "Invalid user id",
		})
		return
	}

	report, err := h.reports.BuildUserReport(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "REPORT_FAILED",
			Message: "Failed to build report",
			Details: err.Error(),
		})
		return
	}

	document, err := h.exporter.Export(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "EXPORT_FAILED",
			Message: "Failed to render report",
			Details: err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("user-activity-%d.pdf", userID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", document)
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ualog/activity-tracker/internal/domain/activity"
)

// LifecycleEngine is the slice of the lifecycle service the signal
// endpoints need
type LifecycleEngine interface {
	OpenSession(ctx context.Context, userID int64, username, ipAddress string) (int64, error)
	CloseSession(ctx context.Context, userID, sessionID int64) (bool, error)
	TouchActivity(ctx context.Context, userID int64) error
	ReconcileOnLogin(ctx context.Context, userID int64) error
}

// ActivityRecorder is the slice of the recorder service the signal
// endpoints need
type ActivityRecorder interface {
	RecordPageView(ctx context.Context, userID, pageID int64, pageTitle, pageURL string) (int64, error)
	RecordFormSubmission(ctx context.Context, userID, formID int64, formTitle string, rawFields map[string]any) (int64, error)
	RecordCourseEvent(ctx context.Context, userID int64, kind activity.Type, objectID int64, objectName, objectURL string, extra map[string]any) (int64, error)
}

// SignalsHandler receives the inbound host signals: login, logout, request
// ticks, and the event-producing hooks.
type SignalsHandler struct {
	lifecycle LifecycleEngine
	recorder  ActivityRecorder
	logger    *zap.Logger
}

// NewSignalsHandler creates a new signals handler
func NewSignalsHandler(lifecycle LifecycleEngine, recorder ActivityRecorder, logger *zap.Logger) *SignalsHandler {
	return &SignalsHandler{
		lifecycle: lifecycle,
		recorder:  recorder,
		logger:    logger,
	}
}

// LoginRequest is the login signal body
type LoginRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// Login reconciles any stale session and opens a new one
func (h *SignalsHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST_BODY",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.lifecycle.ReconcileOnLogin(ctx, req.UserID); err != nil {
		// Reconciliation is best-effort; a fresh session still opens.
		h.logger.Warn("stale session reconciliation failed",
			zap.Int64("user_id", req.UserID),
			zap.Error(err))
	}

	sessionID, err := h.lifecycle.OpenSession(ctx, req.UserID, req.Username, c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "OPEN_SESSION_FAILED",
			Message: "Failed to open session",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"session_id": sessionID,
	})
}

// LogoutRequest is the logout signal body
type LogoutRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	SessionID int64 `json:"session_id"`
}

// Logout closes the given session, or the latest open one when no session
// id is supplied
func (h *SignalsHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST_BODY",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	closed, err := h.lifecycle.CloseSession(c.Request.Context(), req.UserID, req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "CLOSE_SESSION_FAILED",
			Message: "Failed to close session",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"closed": closed,
	})
}

// TickRequest is the per-request activity signal body
type TickRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// Tick advances the user's last-seen timestamp and applies the idle
// rollover check
func (h *SignalsHandler) Tick(c *gin.Context) {
	var req TickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST_BODY",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.lifecycle.TouchActivity(c.Request.Context(), req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "TOUCH_FAILED",
			Message: "Failed to track activity",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// PageViewRequest is the page-visit signal body
type PageViewRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	PageID    int64  `json:"page_id" binding:"required"`
	PageTitle string `json:"page_title"`
	PageURL   string `json:"page_url"`
}

// PageView records a page visit
func (h *SignalsHandler) PageView(c *gin.Context) {
	var req PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST_BODY",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	id, err := h.recorder.RecordPageView(c.Request.Context(), req.UserID, req.PageID, req.PageTitle, req.PageURL)
	if err != nil {
		h.writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":      "success",
		"activity_id": id,
	})
}

// FormSubmitRequest is the form-submission signal body. Fields are redacted
// before storage.
type FormSubmitRequest struct {
	UserID    int64          `json:"user_id" binding:"required"`
	FormID    int64          `json:"form_id" binding:"required"`
	FormTitle string         `json:"form_title"`
	Fields    map[string]any `json:"fields"`
}

// FormSubmit records a form submission
func (h *SignalsHandler) FormSubmit(c *gin.Context) {
	var req FormSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST_BODY",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	id, err := h.recorder.RecordFormSubmission(c.Request.Context(), req.UserID, req.FormID, req.FormTitle, req.Fields)
	if err != nil {
		h.writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":      "success",
		"activity_id": id,
	})
}

// CourseEventRequest is the course-progress signal body
type CourseEventRequest struct {
	UserID     int64          `json:"user_id" binding:"required"`
	Kind       string         `json:"kind" binding:"required"`
	ObjectID   int64          `json:"object_id" binding:"required"`
	ObjectName string         `json:"object_name"`
	ObjectURL  string         `json:"object_url"`
	Extra      map[string]any `json:"extra"`
}

// CourseEvent records a lesson, topic, quiz, or course completion
func (h *SignalsHandler) CourseEvent(c *gin.Context) {
	var req CourseEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST_BODY",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	id, err := h.recorder.RecordCourseEvent(c.Request.Context(), req.UserID,
		activity.Type(req.Kind), req.ObjectID, req.ObjectName, req.ObjectURL, req.Extra)
	if err != nil {
		h.writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":      "success",
		"activity_id": id,
	})
}

func (h *SignalsHandler) writeRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, activity.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "NOT_AUTHENTICATED",
			Message: "Acting user is not authenticated",
		})
	case errors.Is(err, activity.ErrInvalidActivityType):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_ACTIVITY_TYPE",
			Message: "Activity type is not accepted by this endpoint",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "RECORD_FAILED",
			Message: "Failed to record activity",
			Details: err.Error(),
		})
	}
}

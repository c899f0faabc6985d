package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ualog/activity-tracker/internal/domain/activity"
	"github.com/ualog/activity-tracker/internal/metrics"
)

// IPResolver provides a best-effort origin address for implicitly opened
// sessions.
type IPResolver interface {
	ResolveIP(ctx context.Context, userID int64) string
}

// IPResolverFunc adapts a function to the IPResolver interface
type IPResolverFunc func(ctx context.Context, userID int64) string

// ResolveIP implements IPResolver
func (f IPResolverFunc) ResolveIP(ctx context.Context, userID int64) string {
	return f(ctx, userID)
}

// RecorderService validates and stores one activity per call, resolving the
// owning session through the lifecycle engine.
type RecorderService struct {
	activities activity.Repository
	lifecycle  *LifecycleService
	ips        IPResolver
	logger     *zap.Logger
	now        func() time.Time
}

// NewRecorderService creates a new activity recorder
func NewRecorderService(activities activity.Repository, lifecycle *LifecycleService, ips IPResolver, logger *zap.Logger) *RecorderService {
	if ips == nil {
		ips = IPResolverFunc(func(context.Context, int64) string { return "127.0.0.1" })
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecorderService{
		activities: activities,
		lifecycle:  lifecycle,
		ips:        ips,
		logger:     logger,
		now:        time.Now,
	}
}

// Record persists one activity. The acting user must be authenticated; when
// no open session exists one is opened implicitly so the activity is never
// orphaned. Exactly one activity row is written on success.
func (s *RecorderService) Record(ctx context.Context, userID int64, typ activity.Type, data activity.Payload, objectID *int64, objectName, objectURL string) (int64, error) {
	if userID <= 0 {
		return 0, activity.ErrNotAuthenticated
	}
	if typ == "" {
		return 0, activity.ErrInvalidActivityType
	}

	sessionID, err := s.lifecycle.CurrentSessionID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if sessionID == 0 {
		ip := s.ips.ResolveIP(ctx, userID)
		sessionID, err = s.lifecycle.ImplicitOpen(ctx, userID, ip)
		if err != nil {
			return 0, err
		}
		s.logger.Info("session opened implicitly for activity",
			zap.Int64("user_id", userID),
			zap.Int64("session_id", sessionID),
			zap.String("activity_type", string(typ)))
	}

	act := &activity.Activity{
		SessionID:    sessionID,
		UserID:       userID,
		Type:         typ,
		Data:         data,
		ObjectID:     objectID,
		ObjectName:   objectName,
		ObjectURL:    objectURL,
		ActivityTime: s.now().UTC(),
	}
	if err := s.activities.Insert(ctx, act); err != nil {
		return 0, fmt.Errorf("failed to record activity: %w", err)
	}
	metrics.ActivitiesRecorded.WithLabelValues(string(typ)).Inc()
	return act.ID, nil
}

// RecordPageView records a page visit.
func (s *RecorderService) RecordPageView(ctx context.Context, userID, pageID int64, pageTitle, pageURL string) (int64, error) {
	payload := activity.NewPayload(map[string]any{
		activity.KeyPageID: pageID,
	})
	return s.Record(ctx, userID, activity.TypePageVisit, payload, &pageID, pageTitle, pageURL)
}

// RecordFormSubmission records a form submission. The raw field map is
// redacted before storage; sensitive keys are dropped, nested values are
// replaced with a placeholder, and long values are truncated.
func (s *RecorderService) RecordFormSubmission(ctx context.Context, userID, formID int64, formTitle string, rawFields map[string]any) (int64, error) {
	payload := activity.NewPayload(map[string]any{
		activity.KeyFormID:     formID,
		activity.KeySubmission: activity.SanitizeSubmission(rawFields),
	})
	return s.Record(ctx, userID, activity.TypeFormSubmission, payload, &formID, formTitle, "")
}

// RecordCourseEvent records a course-progress event. The kind must belong
// to the lesson/topic/quiz/course completion set; anything else is
// rejected without a write.
func (s *RecorderService) RecordCourseEvent(ctx context.Context, userID int64, kind activity.Type, objectID int64, objectName, objectURL string, extra map[string]any) (int64, error) {
	if !kind.CourseEvent() {
		return 0, activity.ErrInvalidActivityType
	}
	return s.Record(ctx, userID, kind, activity.NewPayload(extra), &objectID, objectName, objectURL)
}

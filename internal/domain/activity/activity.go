package activity

import (
	"time"
)

// Type identifies the kind of a tracked activity. The vocabulary below is
// the built-in set; hosts may record additional types, which fall back to
// generic formatting.
type Type string

const (
	TypePageVisit       Type = "page_visit"
	TypeFormSubmission  Type = "form_submission"
	TypeLessonCompleted Type = "lesson_completed"
	TypeTopicCompleted  Type = "topic_completed"
	TypeQuizCompleted   Type = "quiz_completed"
	TypeCourseCompleted Type = "course_completed"
)

// CourseEvent reports whether the type is a member of the restricted
// course-progress set. Only these four types may be recorded through the
// course-event entry point.
func (t Type) CourseEvent() bool {
	switch t {
	case TypeLessonCompleted, TypeTopicCompleted, TypeQuizCompleted, TypeCourseCompleted:
		return true
	}
	return false
}

// Activity represents one discrete tracked event belonging to a session.
// Activities are never mutated after creation.
type Activity struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"session_id"`
	UserID       int64     `json:"user_id"`
	Type         Type      `json:"type"`
	Data         Payload   `json:"data"`
	ObjectID     *int64    `json:"object_id,omitempty"`
	ObjectName   string    `json:"object_name,omitempty"`
	ObjectURL    string    `json:"object_url,omitempty"`
	ActivityTime time.Time `json:"activity_time"`
}

// Filter represents filters for querying activities
type Filter struct {
	UserID    *int64     `json:"user_id,omitempty"`
	SessionID *int64     `json:"session_id,omitempty"`
	Types     []Type     `json:"types,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

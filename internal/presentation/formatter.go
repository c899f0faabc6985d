package presentation

import (
	"fmt"
	"strings"

	"github.com/ualog/activity-tracker/internal/domain/activity"
)

// defaultTimeLayout mirrors the host's date+time display preference.
const defaultTimeLayout = "Jan 2, 2006 3:04 pm"

// Display is the boundary tuple handed to external renderers.
type Display struct {
	TypeLabel     string `json:"type_label"`
	Icon          string `json:"icon"`
	Summary       string `json:"summary"`
	FormattedTime string `json:"formatted_time"`
}

// Formatter turns stored activities into display tuples. It is pure
// presentation logic over the activity record.
type Formatter struct {
	timeLayout string
}

// NewFormatter creates a formatter with the default time layout
func NewFormatter() *Formatter {
	return &Formatter{timeLayout: defaultTimeLayout}
}

// Format renders one activity for display.
func (f *Formatter) Format(act *activity.Activity) Display {
	v := variantFor(act.Type)
	return Display{
		TypeLabel:     v.label(),
		Icon:          v.icon(),
		Summary:       v.summary(act),
		FormattedTime: act.ActivityTime.Format(f.timeLayout),
	}
}

// variant is the closed set of renderers, one per known activity kind plus
// a fallback carrying the raw type.
type variant interface {
	label() string
	icon() string
	summary(act *activity.Activity) string
}

func variantFor(t activity.Type) variant {
	switch t {
	case activity.TypePageVisit:
		return pageVisit{}
	case activity.TypeFormSubmission:
		return formSubmission{}
	case activity.TypeLessonCompleted:
		return lessonCompleted{}
	case activity.TypeTopicCompleted:
		return topicCompleted{}
	case activity.TypeQuizCompleted:
		return quizCompleted{}
	case activity.TypeCourseCompleted:
		return courseCompleted{}
	}
	return other{raw: t}
}

type pageVisit struct{}

func (pageVisit) label() string { return "Page Visit" }
func (pageVisit) icon() string  { return "page" }
func (pageVisit) summary(act *activity.Activity) string {
	return fmt.Sprintf("Visited page: %s", act.ObjectName)
}

type formSubmission struct{}

func (formSubmission) label() string { return "Form Submission" }
func (formSubmission) icon() string  { return "feedback" }
func (formSubmission) summary(act *activity.Activity) string {
	return fmt.Sprintf("Submitted form: %s", act.ObjectName)
}

type lessonCompleted struct{}

func (lessonCompleted) label() string { return "Lesson Completed" }
func (lessonCompleted) icon() string  { return "learn" }
func (lessonCompleted) summary(act *activity.Activity) string {
	return fmt.Sprintf("Completed lesson: %s", act.ObjectName)
}

type topicCompleted struct{}

func (topicCompleted) label() string { return "Topic Completed" }
func (topicCompleted) icon() string  { return "learn" }
func (topicCompleted) summary(act *activity.Activity) string {
	return fmt.Sprintf("Completed topic: %s", act.ObjectName)
}

type quizCompleted struct{}

func (quizCompleted) label() string { return "Quiz Completed" }
func (quizCompleted) icon() string  { return "clipboard" }
func (quizCompleted) summary(act *activity.Activity) string {
	summary := fmt.Sprintf("Completed quiz: %s", act.ObjectName)
	if score, ok := act.Data.Number(activity.KeyScore); ok && score != 0 {
		summary += fmt.Sprintf(", Score: %v", trimFloat(score))
	}
	if passed, ok := act.Data.Bool(activity.KeyPassed); ok {
		if passed {
			summary += ", Passed"
		} else {
			summary += ", Failed"
		}
	}
	return summary
}

type courseCompleted struct{}

func (courseCompleted) label() string { return "Course Completed" }
func (courseCompleted) icon() string  { return "award" }
func (courseCompleted) summary(act *activity.Activity) string {
	return fmt.Sprintf("Completed course: %s", act.ObjectName)
}

// other renders host-defined types the built-in set does not know.
type other struct {
	raw activity.Type
}

func (o other) label() string {
	words := strings.ReplaceAll(string(o.raw), "_", " ")
	if words == "" {
		return ""
	}
	return strings.ToUpper(words[:1]) + words[1:]
}

func (o other) icon() string { return "marker" }

func (o other) summary(act *activity.Activity) string {
	return fmt.Sprintf("%s: %s", o.label(), act.ObjectName)
}

func trimFloat(f float64) any {
	if f == float64(int64(f)) {
		return int64(f)
	}
	return f
}

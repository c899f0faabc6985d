package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ualog/activity-tracker/internal/domain/activity"
)

func TestActivityRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityRepository(db)
	at := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	objectID := int64(10)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ual_activities")).
		WithArgs(int64(5), int64(42), "page_visit", sqlmock.AnyArg(), int64(10), "Home", "/home", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

	act := &activity.Activity{
		SessionID:    5,
		UserID:       42,
		Type:         activity.TypePageVisit,
		Data:         activity.NewPayload(map[string]any{activity.KeyPageID: int64(10)}),
		ObjectID:     &objectID,
		ObjectName:   "Home",
		ObjectURL:    "/home",
		ActivityTime: at,
	}
	require.NoError(t, repo.Insert(context.Background(), act))

	assert.Equal(t, int64(100), act.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ual_activities")).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(activityColumns))

	_, err = repo.GetByID(context.Background(), 100)

	assert.ErrorIs(t, err, activity.ErrActivityNotFound)
}

func TestActivityRepository_ListBySession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityRepository(db)
	at := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY activity_time ASC")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(activityColumns).
			AddRow(int64(1), int64(5), int64(42), "page_visit",
				[]byte(`{"version":1,"fields":{"page_id":10}}`),
				int64(10), "Home", "/home", at).
			AddRow(int64(2), int64(5), int64(42), "quiz_completed",
				[]byte(`{"version":1,"fields":{"score":80,"passed":true}}`),
				nil, nil, nil, at.Add(time.Minute)))

	activities, err := repo.ListBySession(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, activities, 2)

	first := activities[0]
	assert.Equal(t, activity.TypePageVisit, first.Type)
	assert.Equal(t, "Home", first.ObjectName)
	require.NotNil(t, first.ObjectID)
	assert.Equal(t, int64(10), *first.ObjectID)
	pageID, ok := first.Data.Number(activity.KeyPageID)
	require.True(t, ok)
	assert.Equal(t, float64(10), pageID)

	second := activities[1]
	assert.Equal(t, activity.TypeQuizCompleted, second.Type)
	assert.Nil(t, second.ObjectID)
	assert.Empty(t, second.ObjectName)
	passed, ok := second.Data.Bool(activity.KeyPassed)
	require.True(t, ok)
	assert.True(t, passed)
}

func TestActivityRepository_List_FiltersAndCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityRepository(db)
	at := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	userID := int64(42)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ual_activities WHERE user_id = $1 AND activity_type IN ($2,$3)")).
		WithArgs(userID, "lesson_completed", "quiz_completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(25)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY activity_time DESC LIMIT 10 OFFSET 0")).
		WithArgs(userID, "lesson_completed", "quiz_completed").
		WillReturnRows(sqlmock.NewRows(activityColumns).
			AddRow(int64(3), int64(5), userID, "lesson_completed",
				[]byte(`{"version":1}`), int64(9), "Intro", nil, at))

	activities, total, err := repo.List(context.Background(), activity.Filter{
		UserID: &userID,
		Types:  []activity.Type{activity.TypeLessonCompleted, activity.TypeQuizCompleted},
		Limit:  10,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, activities, 1)
	assert.Equal(t, activity.TypeLessonCompleted, activities[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_PurgeBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityRepository(db)
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ual_activities WHERE activity_time < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 40))

	count, err := repo.PurgeBefore(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(40), count)
}

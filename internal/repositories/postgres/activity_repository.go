package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ualog/activity-tracker/internal/domain/activity"
)

var activityColumns = []string{
	"id", "session_id", "user_id", "activity_type", "activity_data",
	"object_id", "object_name", "object_url", "activity_time",
}

// ActivityRepository implements activity.Repository on PostgreSQL
type ActivityRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewActivityRepository creates a new PostgreSQL activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ActivityRepository) Insert(ctx context.Context, act *activity.Activity) error {
	data, err := json.Marshal(act.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal activity data: %w", err)
	}

	query := `
		INSERT INTO ual_activities (
			session_id, user_id, activity_type, activity_data,
			object_id, object_name, object_url, activity_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err = r.db.QueryRowContext(ctx, query,
		act.SessionID,
		act.UserID,
		string(act.Type),
		data,
		act.ObjectID,
		nullString(act.ObjectName),
		nullString(act.ObjectURL),
		act.ActivityTime,
	).Scan(&act.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*activity.Activity, error) {
	query, args, err := r.sb.Select(activityColumns...).
		From("ual_activities").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	act, err := scanActivity(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, activity.ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return act, nil
}

func (r *ActivityRepository) ListBySession(ctx context.Context, sessionID int64) ([]*activity.Activity, error) {
	query, args, err := r.sb.Select(activityColumns...).
		From("ual_activities").
		Where(sq.Eq{"session_id": sessionID}).
		OrderBy("activity_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryActivities(ctx, query, args)
}

func (r *ActivityRepository) List(ctx context.Context, filter activity.Filter) ([]*activity.Activity, int64, error) {
	conditions := filterConditions(filter)

	countBuilder := r.sb.Select("COUNT(*)").From("ual_activities")
	for _, cond := range conditions {
		countBuilder = countBuilder.Where(cond)
	}
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listBuilder := r.sb.Select(activityColumns...).From("ual_activities")
	for _, cond := range conditions {
		listBuilder = listBuilder.Where(cond)
	}
	query, args, err := listBuilder.
		OrderBy("activity_time DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	activities, err := r.queryActivities(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}

func (r *ActivityRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ual_activities WHERE activity_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge activities: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return count, nil
}

func filterConditions(filter activity.Filter) []sq.Sqlizer {
	conditions := []sq.Sqlizer{}
	if filter.UserID != nil {
		conditions = append(conditions, sq.Eq{"user_id": *filter.UserID})
	}
	if filter.SessionID != nil {
		conditions = append(conditions, sq.Eq{"session_id": *filter.SessionID})
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		conditions = append(conditions, sq.Eq{"activity_type": types})
	}
	if filter.StartTime != nil {
		conditions = append(conditions, sq.GtOrEq{"activity_time": *filter.StartTime})
	}
	if filter.EndTime != nil {
		conditions = append(conditions, sq.LtOrEq{"activity_time": *filter.EndTime})
	}
	return conditions
}

func (r *ActivityRepository) queryActivities(ctx context.Context, query string, args []interface{}) ([]*activity.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	activities := []*activity.Activity{}
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return activities, nil
}

func scanActivity(row scanner) (*activity.Activity, error) {
	act := &activity.Activity{}
	var activityType string
	var data []byte
	var objectID sql.NullInt64
	var objectName, objectURL sql.NullString

	err := row.Scan(
		&act.ID,
		&act.SessionID,
		&act.UserID,
		&activityType,
		&data,
		&objectID,
		&objectName,
		&objectURL,
		&act.ActivityTime,
	)
	if err != nil {
		return nil, err
	}

	act.Type = activity.Type(activityType)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &act.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity data: %w", err)
		}
	}
	if objectID.Valid {
		id := objectID.Int64
		act.ObjectID = &id
	}
	if objectName.Valid {
		act.ObjectName = objectName.String
	}
	if objectURL.Valid {
		act.ObjectURL = objectURL.String
	}
	return act, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

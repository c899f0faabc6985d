package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ualog/activity-tracker/internal/domain/activity"
	"github.com/ualog/activity-tracker/internal/domain/session"
)

// MockSessionRepository is a mock implementation of session.Repository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Insert(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id int64) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionRepository) LatestOpen(ctx context.Context, userID int64) (*session.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionRepository) Close(ctx context.Context, id, userID int64, logoutTime time.Time, duration int64) (bool, error) {
	args := m.Called(ctx, id, userID, logoutTime, duration)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*session.Session, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockSessionRepository) LastKnownUsername(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionRepository) UserSummary(ctx context.Context, limit, offset int) ([]*session.UserSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.UserSummary), args.Error(1)
}

func (m *MockSessionRepository) CountTrackedUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) TotalDuration(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockStateRepository is a mock implementation of session.StateRepository
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) Get(ctx context.Context, userID int64) (*session.UserState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.UserState), args.Error(1)
}

func (m *MockStateRepository) Put(ctx context.Context, state *session.UserState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockStateRepository) Clear(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockActivityRepository is a mock implementation of activity.Repository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Insert(ctx context.Context, act *activity.Activity) error {
	args := m.Called(ctx, act)
	return args.Error(0)
}

func (m *MockActivityRepository) GetByID(ctx context.Context, id int64) (*activity.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.Activity), args.Error(1)
}

func (m *MockActivityRepository) ListBySession(ctx context.Context, sessionID int64) ([]*activity.Activity, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Activity), args.Error(1)
}

func (m *MockActivityRepository) List(ctx context.Context, filter activity.Filter) ([]*activity.Activity, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*activity.Activity), args.Get(1).(int64), args.Error(2)
}

func (m *MockActivityRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

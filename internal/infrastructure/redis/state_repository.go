package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ualog/activity-tracker/internal/domain/session"
)

const (
	stateKeyPrefix = "user_state:"

	// defaultStateTTL bounds how long per-user state lives without a
	// tracked request. An expired entry only costs one store lookup on the
	// next request; the engine backfills the pointer from the database.
	defaultStateTTL = 24 * time.Hour
)

// StateRepository implements session.StateRepository using Redis
type StateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateRepository creates a new Redis user-state repository
func NewStateRepository(addr string, db int, password string) *StateRepository {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &StateRepository{client: rdb, ttl: defaultStateTTL}
}

// NewStateRepositoryWithClient creates a repository with an existing client
// (for testing)
func NewStateRepositoryWithClient(client *redis.Client) *StateRepository {
	return &StateRepository{client: client, ttl: defaultStateTTL}
}

func (r *StateRepository) Get(ctx context.Context, userID int64) (*session.UserState, error) {
	data, err := r.client.Get(ctx, stateKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}

	var state session.UserState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize user state: %w", err)
	}
	return &state, nil
}

func (r *StateRepository) Put(ctx context.Context, state *session.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize user state: %w", err)
	}
	if err := r.client.Set(ctx, stateKey(state.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store user state: %w", err)
	}
	return nil
}

func (r *StateRepository) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear user state: %w", err)
	}
	return nil
}

func stateKey(userID int64) string {
	return stateKeyPrefix + strconv.FormatInt(userID, 10)
}

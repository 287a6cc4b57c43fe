package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medhead-reservation/internal/domain/entity"
	domainRepo "medhead-reservation/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RedisFormStateKeyPrefix = "form_state:"

type formStateRedisRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewFormStateRedisRepository(redisClient *redis.Client, ttl time.Duration) domainRepo.FormStateRepository {
	return &formStateRedisRepository{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func formStateKey(sessionID uuid.UUID) string {
	return RedisFormStateKeyPrefix + sessionID.String()
}

func (r *formStateRedisRepository) Get(ctx context.Context, sessionID uuid.UUID) (*entity.FormState, error) {
	data, err := r.redisClient.Get(ctx, formStateKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domainRepo.ErrFormStateNotFound
		}
		return nil, fmt.Errorf("get form state %s: %w", sessionID, err)
	}

	var state entity.FormState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode form state %s: %w", sessionID, err)
	}
	return &state, nil
}

// Save refreshes the TTL on every write, so active visitors keep their form
func (r *formStateRedisRepository) Save(ctx context.Context, state *entity.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if err := r.redisClient.Set(ctx, formStateKey(state.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save form state %s: %w", state.SessionID, err)
	}
	return nil
}

func (r *formStateRedisRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := r.redisClient.Del(ctx, formStateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete form state %s: %w", sessionID, err)
	}
	return nil
}

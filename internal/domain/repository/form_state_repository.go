package repository

import (
	"context"
	"errors"

	"medhead-reservation/internal/domain/entity"

	"github.com/google/uuid"
)

var ErrFormStateNotFound = errors.New("form state not found")

type FormStateRepository interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*entity.FormState, error)
	Save(ctx context.Context, state *entity.FormState) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

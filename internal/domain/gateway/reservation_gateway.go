package gateway

import (
	"context"
	"fmt"

	"medhead-reservation/internal/domain/entity"
)

// ReservationGateway sends reservation requests to the MedHead backend
type ReservationGateway interface {
	// Process submits a patient for hospital allocation
	Process(ctx context.Context, req *entity.ReservationRequest) (*entity.ReservationResponse, error)
	// Reserve creates a bed reservation directly
	Reserve(ctx context.Context, req *entity.ReservationRequest) (*entity.ReservationResponse, error)
}

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Code, e.Body)
}

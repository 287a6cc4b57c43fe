package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"medhead-reservation/internal/converter"
	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/domain/gateway"
	"medhead-reservation/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownSpeciality   = errors.New("unknown speciality")
	ErrReservationRejected = errors.New("reservation rejected by backend")
)

// ReservationUsecase creates bed reservations without going through the form
type ReservationUsecase interface {
	CreateReservation(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)
}

type reservationUsecase struct {
	log     *logrus.Logger
	catalog *service.SpecialityCatalog
	gateway gateway.ReservationGateway
	timeout time.Duration
}

func NewReservationUsecase(
	log *logrus.Logger,
	catalog *service.SpecialityCatalog,
	reservationGateway gateway.ReservationGateway,
	timeout time.Duration,
) ReservationUsecase {
	return &reservationUsecase{
		log:     log,
		catalog: catalog,
		gateway: reservationGateway,
		timeout: timeout,
	}
}

// CreateReservation sends the request to the reserve endpoint. Unlike the
// form, an unknown specialty is an error here: there is no urgency fallback.
func (u *reservationUsecase) CreateReservation(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	payload := converter.CreateReservationToEntity(req)
	payload.Specialite = service.Capitalize(service.Normalize(payload.Specialite))
	payload.Responsable = service.Normalize(payload.Responsable)
	payload.Qualite = service.Normalize(payload.Qualite)

	if !u.catalog.Contains(payload.Specialite) {
		return nil, ErrUnknownSpeciality
	}
	if payload.ID == uuid.Nil {
		payload.ID = uuid.New()
	}

	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	resp, err := u.gateway.Reserve(callCtx, payload)
	if err != nil {
		var statusErr *gateway.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest {
			u.log.Infof("Reservation %s rejected: %s", payload.ID, statusErr.Body)
			return nil, fmt.Errorf("%w: %s", ErrReservationRejected, statusErr.Body)
		}
		u.log.Warnf("Failed to create reservation %s: %+v", payload.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	resp.RequestID = payload.ID
	u.log.Infof("Reservation created: id=%s, specialite=%s", payload.ID, payload.Specialite)
	return converter.ReservationToResponse(resp), nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medhead-reservation/internal/converter"
	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/domain/entity"
	"medhead-reservation/internal/domain/gateway"
	"medhead-reservation/internal/domain/repository"
	"medhead-reservation/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AlertReservationFailed is shown to the visitor when the backend call fails
const AlertReservationFailed = "Une erreur est survenue lors de la réservation."

var (
	ErrReservationPending = errors.New("a reservation is already pending for this form")
	ErrBackendUnavailable = errors.New("reservation backend unavailable")
)

type ReservationFormUsecase interface {
	GetForm(ctx context.Context, sessionID uuid.UUID) (*dto.FormResponse, error)
	UpdateDetails(ctx context.Context, sessionID uuid.UUID, req *dto.UpdateDetailsRequest) (*dto.FormResponse, error)
	InputSpeciality(ctx context.Context, sessionID uuid.UUID, value string) (*dto.FormResponse, error)
	SelectSpeciality(ctx context.Context, sessionID uuid.UUID, specialite string) (*dto.FormResponse, error)
	Submit(ctx context.Context, sessionID uuid.UUID, req *dto.SubmitFormRequest) (*dto.SubmitFormResponse, error)
	ReserveInUrgency(ctx context.Context, sessionID uuid.UUID) (*dto.SubmitFormResponse, error)
	ClosePopup(ctx context.Context, sessionID uuid.UUID) (*dto.FormResponse, error)
	CloseUrgencyPopup(ctx context.Context, sessionID uuid.UUID) (*dto.FormResponse, error)
	Reset(ctx context.Context, sessionID uuid.UUID) error
}

type reservationFormUsecase struct {
	log           *logrus.Logger
	formStateRepo repository.FormStateRepository
	catalog       *service.SpecialityCatalog
	guard         *service.SubmissionGuard
	gateway       gateway.ReservationGateway
	timeout       time.Duration
}

func NewReservationFormUsecase(
	log *logrus.Logger,
	formStateRepo repository.FormStateRepository,
	catalog *service.SpecialityCatalog,
	guard *service.SubmissionGuard,
	reservationGateway gateway.ReservationGateway,
	timeout time.Duration,
) ReservationFormUsecase {
	return &reservationFormUsecase{
		log:           log,
		formStateRepo: formStateRepo,
		catalog:       catalog,
		guard:         guard,
		gateway:       reservationGateway,
		timeout:       timeout,
	}
}

// GetForm returns the session's form, creating the default one on first visit
func (u *reservationFormUsecase) GetForm(ctx context.Context, sessionID uuid.UUID) (*dto.FormResponse, error) {
	state, err := u.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return converter.FormStateToResponse(state), nil
}

func (u *reservationFormUsecase) UpdateDetails(ctx context.Context, sessionID uuid.UUID, req *dto.UpdateDetailsRequest) (*dto.FormResponse, error) {
	return u.mutate(ctx, sessionID, func(state *entity.FormState) {
		state.Responsable = service.Normalize(req.Responsable)
		state.Qualite = service.Normalize(req.Qualite)
		state.Latitude = *req.Latitude
		state.Longitude = *req.Longitude
	})
}

// InputSpeciality records what the visitor typed and refreshes the suggestions
func (u *reservationFormUsecase) InputSpeciality(ctx context.Context, sessionID uuid.UUID, value string) (*dto.FormResponse, error) {
	return u.mutate(ctx, sessionID, func(state *entity.FormState) {
		state.Specialite = value
		state.FilteredSpecialities = u.catalog.Filter(value)
	})
}

func (u *reservationFormUsecase) SelectSpeciality(ctx context.Context, sessionID uuid.UUID, specialite string) (*dto.FormResponse, error) {
	return u.mutate(ctx, sessionID, func(state *entity.FormState) {
		state.Specialite = specialite
		state.ClearSuggestions()
	})
}

// Submit capitalizes the specialty and sends the reservation when the
// specialty is known. An unknown or empty specialty opens the urgency popup
// instead and nothing is sent.
func (u *reservationFormUsecase) Submit(ctx context.Context, sessionID uuid.UUID, req *dto.SubmitFormRequest) (*dto.SubmitFormResponse, error) {
	state, err := u.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req != nil && req.Specialite != nil {
		state.Specialite = *req.Specialite
	}
	specialite := service.Capitalize(service.Normalize(state.Specialite))

	// a refused submit leaves the stored form untouched
	if state.HasPendingReservation() || u.guard.InFlight(sessionID) {
		return nil, ErrReservationPending
	}

	state.Specialite = specialite
	if specialite == "" || !u.catalog.Contains(specialite) {
		state.ShowUrgencyPopup = true
		if err := u.saveState(ctx, state); err != nil {
			return nil, err
		}
		u.log.Infof("Unknown speciality %q, offering urgency fallback: session=%s", specialite, sessionID)
		return &dto.SubmitFormResponse{
			Outcome: dto.SubmitOutcomeUrgency,
			Form:    converter.FormStateToResponse(state),
		}, nil
	}

	return u.send(ctx, sessionID, func(state *entity.FormState) {
		state.Specialite = specialite
	})
}

// ReserveInUrgency submits the form with the emergency medicine specialty
func (u *reservationFormUsecase) ReserveInUrgency(ctx context.Context, sessionID uuid.UUID) (*dto.SubmitFormResponse, error) {
	state, err := u.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.HasPendingReservation() {
		return nil, ErrReservationPending
	}

	return u.send(ctx, sessionID, func(state *entity.FormState) {
		state.Specialite = service.UrgencySpeciality
		state.ShowUrgencyPopup = false
	})
}

func (u *reservationFormUsecase) ClosePopup(ctx context.Context, sessionID uuid.UUID) (*dto.FormResponse, error) {
	return u.mutate(ctx, sessionID, func(state *entity.FormState) {
		state.ClosePopup()
	})
}

func (u *reservationFormUsecase) CloseUrgencyPopup(ctx context.Context, sessionID uuid.UUID) (*dto.FormResponse, error) {
	return u.mutate(ctx, sessionID, func(state *entity.FormState) {
		state.CloseUrgencyPopup()
	})
}

func (u *reservationFormUsecase) Reset(ctx context.Context, sessionID uuid.UUID) error {
	if err := u.formStateRepo.Delete(ctx, sessionID); err != nil {
		u.log.Warnf("Failed to reset form %s: %+v", sessionID, err)
		return err
	}
	return nil
}

// send performs the single backend call of a submission. The form is read
// again once the lock is held and again before the outcome is written, so
// a concurrent request never sees its changes overwritten by a stale copy.
func (u *reservationFormUsecase) send(ctx context.Context, sessionID uuid.UUID, prepare func(state *entity.FormState)) (*dto.SubmitFormResponse, error) {
	release, err := u.guard.Acquire(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionInFlight) {
			return nil, ErrReservationPending
		}
		return nil, err
	}
	defer release()

	state, err := u.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.HasPendingReservation() {
		return nil, ErrReservationPending
	}

	prepare(state)
	state.Submitting = true
	if err := u.saveState(ctx, state); err != nil {
		return nil, err
	}

	req := entity.NewReservationRequest(state)

	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	resp, err := u.gateway.Process(callCtx, req)

	// the outcome is recorded even if the caller went away
	saveCtx := context.WithoutCancel(ctx)
	if latest, loadErr := u.loadState(saveCtx, sessionID); loadErr == nil {
		state = latest
	}
	state.Submitting = false

	if err != nil {
		u.log.Warnf("Reservation failed: session=%s, request=%s, specialite=%s: %+v", sessionID, req.ID, req.Specialite, err)
		state.Response = nil
		state.Alert = AlertReservationFailed
		if saveErr := u.saveState(saveCtx, state); saveErr != nil {
			u.log.Errorf("Failed to save form %s after reservation failure: %+v", sessionID, saveErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	resp.RequestID = req.ID
	state.Response = resp
	state.Alert = ""
	if err := u.saveState(saveCtx, state); err != nil {
		return nil, err
	}

	u.log.Infof("Reservation submitted: session=%s, request=%s, specialite=%s", sessionID, req.ID, req.Specialite)
	return &dto.SubmitFormResponse{
		Outcome: dto.SubmitOutcomeReserved,
		Form:    converter.FormStateToResponse(state),
	}, nil
}

func (u *reservationFormUsecase) mutate(ctx context.Context, sessionID uuid.UUID, fn func(state *entity.FormState)) (*dto.FormResponse, error) {
	state, err := u.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fn(state)

	if err := u.saveState(ctx, state); err != nil {
		return nil, err
	}
	return converter.FormStateToResponse(state), nil
}

func (u *reservationFormUsecase) loadState(ctx context.Context, sessionID uuid.UUID) (*entity.FormState, error) {
	state, err := u.formStateRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrFormStateNotFound) {
			return entity.NewFormState(sessionID), nil
		}
		u.log.Warnf("Failed to load form %s: %+v", sessionID, err)
		return nil, err
	}
	return state, nil
}

func (u *reservationFormUsecase) saveState(ctx context.Context, state *entity.FormState) error {
	state.Touch()
	if err := u.formStateRepo.Save(ctx, state); err != nil {
		u.log.Warnf("Failed to save form %s: %+v", state.SessionID, err)
		return err
	}
	return nil
}

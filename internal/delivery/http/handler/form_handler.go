package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/delivery/http/middleware"
	"medhead-reservation/internal/usecase"
	"medhead-reservation/pkg/response"
	"medhead-reservation/pkg/validator"

	"github.com/google/uuid"
)

type FormHandler struct {
	formUsecase usecase.ReservationFormUsecase
	validator   *validator.CustomValidator
}

func NewFormHandler(formUsecase usecase.ReservationFormUsecase, validator *validator.CustomValidator) *FormHandler {
	return &FormHandler{
		formUsecase: formUsecase,
		validator:   validator,
	}
}

func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	form, err := h.formUsecase.GetForm(r.Context(), sessionID)
	if err != nil {
		response.InternalServerError(w, "Failed to get form")
		return
	}

	response.Success(w, http.StatusOK, "Form retrieved successfully", form)
}

func (h *FormHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.UpdateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	form, err := h.formUsecase.UpdateDetails(r.Context(), sessionID, &req)
	if err != nil {
		response.InternalServerError(w, "Failed to update form")
		return
	}

	response.Success(w, http.StatusOK, "Form updated successfully", form)
}

// InputSpeciality returns the suggestions for what the visitor typed so far
func (h *FormHandler) InputSpeciality(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.SpecialityInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	form, err := h.formUsecase.InputSpeciality(r.Context(), sessionID, req.Value)
	if err != nil {
		response.InternalServerError(w, "Failed to update form")
		return
	}

	response.Success(w, http.StatusOK, "Suggestions updated", form)
}

func (h *FormHandler) SelectSpeciality(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.SelectSpecialityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	form, err := h.formUsecase.SelectSpeciality(r.Context(), sessionID, req.Specialite)
	if err != nil {
		response.InternalServerError(w, "Failed to update form")
		return
	}

	response.Success(w, http.StatusOK, "Speciality selected", form)
}

// Submit accepts an empty body, in which case the stored specialty is used
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.SubmitFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.formUsecase.Submit(r.Context(), sessionID, &req)
	if err != nil {
		writeReservationError(w, err, "Failed to submit reservation")
		return
	}

	if result.Outcome == dto.SubmitOutcomeUrgency {
		response.Success(w, http.StatusOK, "Unknown speciality, urgency reservation offered", result)
		return
	}
	response.Success(w, http.StatusCreated, "Reservation submitted successfully", result)
}

func (h *FormHandler) ReserveInUrgency(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.formUsecase.ReserveInUrgency(r.Context(), sessionID)
	if err != nil {
		writeReservationError(w, err, "Failed to submit urgency reservation")
		return
	}

	response.Success(w, http.StatusCreated, "Urgency reservation submitted successfully", result)
}

func (h *FormHandler) ClosePopup(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	form, err := h.formUsecase.ClosePopup(r.Context(), sessionID)
	if err != nil {
		response.InternalServerError(w, "Failed to close popup")
		return
	}

	response.Success(w, http.StatusOK, "Popup closed", form)
}

func (h *FormHandler) CloseUrgencyPopup(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	form, err := h.formUsecase.CloseUrgencyPopup(r.Context(), sessionID)
	if err != nil {
		response.InternalServerError(w, "Failed to close popup")
		return
	}

	response.Success(w, http.StatusOK, "Urgency popup closed", form)
}

func (h *FormHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.formUsecase.Reset(r.Context(), sessionID); err != nil {
		response.InternalServerError(w, "Failed to reset form")
		return
	}

	response.Success(w, http.StatusOK, "Form reset", nil)
}

func sessionFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		response.InternalServerError(w, "Session not found")
		return uuid.Nil, false
	}
	return sessionID, true
}

func writeReservationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrReservationPending):
		response.Error(w, http.StatusConflict, "A reservation is already pending, close the popup first", nil)
	case errors.Is(err, usecase.ErrUnknownSpeciality):
		response.Error(w, http.StatusUnprocessableEntity, "Unknown speciality", nil)
	case errors.Is(err, usecase.ErrReservationRejected):
		response.Error(w, http.StatusConflict, "Reservation rejected", err.Error())
	case errors.Is(err, usecase.ErrBackendUnavailable):
		response.BadGateway(w, usecase.AlertReservationFailed)
	default:
		response.InternalServerError(w, fallback)
	}
}

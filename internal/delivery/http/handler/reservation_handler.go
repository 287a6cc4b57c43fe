package handler

import (
	"encoding/json"
	"net/http"

	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/usecase"
	"medhead-reservation/pkg/response"
	"medhead-reservation/pkg/validator"
)

type ReservationHandler struct {
	reservationUsecase usecase.ReservationUsecase
	validator          *validator.CustomValidator
}

func NewReservationHandler(reservationUsecase usecase.ReservationUsecase, validator *validator.CustomValidator) *ReservationHandler {
	return &ReservationHandler{
		reservationUsecase: reservationUsecase,
		validator:          validator,
	}
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	reservation, err := h.reservationUsecase.CreateReservation(r.Context(), &req)
	if err != nil {
		writeReservationError(w, err, "Failed to create reservation")
		return
	}

	response.Success(w, http.StatusCreated, "Reservation created successfully", reservation)
}

package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Request DTOs

type CreateReservationRequest struct {
	ID          *uuid.UUID `json:"id,omitempty" validate:"omitempty,uuid4"`
	Specialite  string     `json:"specialite" validate:"required,notblank,max=100"`
	Responsable string     `json:"responsable" validate:"required,notblank,max=100"`
	Qualite     string     `json:"qualite" validate:"required,notblank,max=50"`
	Latitude    *float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// Response DTOs

type ReservationResultResponse struct {
	ID                   uuid.UUID `json:"id"`
	PatientID            uuid.UUID `json:"patient_id"`
	Specialite           string    `json:"specialite"`
	HopitalNom           string    `json:"hopital_nom"`
	Delai                int       `json:"delai"`
	SpecialiteDisponible bool      `json:"specialite_disponible"`
	LitReserve           bool      `json:"lit_reserve"`
}

type ReservationResponse struct {
	RequestID uuid.UUID                  `json:"request_id"`
	Result    *ReservationResultResponse `json:"result,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Raw       json.RawMessage            `json:"raw,omitempty"`
}

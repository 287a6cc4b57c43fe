package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type UpdateDetailsRequest struct {
	Responsable string   `json:"responsable" validate:"required,notblank,max=100"`
	Qualite     string   `json:"qualite" validate:"required,notblank,max=50"`
	Latitude    *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type SpecialityInputRequest struct {
	Value string `json:"value" validate:"max=100"`
}

type SelectSpecialityRequest struct {
	Specialite string `json:"specialite" validate:"required,notblank,max=100"`
}

type SubmitFormRequest struct {
	Specialite *string `json:"specialite,omitempty" validate:"omitempty,max=100"`
}

// Response DTOs

type FormResponse struct {
	SessionID            uuid.UUID            `json:"session_id"`
	Qualite              string               `json:"qualite"`
	Responsable          string               `json:"responsable"`
	Latitude             float64              `json:"latitude"`
	Longitude            float64              `json:"longitude"`
	Specialite           string               `json:"specialite"`
	FilteredSpecialities []string             `json:"filtered_specialities"`
	ShowUrgencyPopup     bool                 `json:"show_urgency_popup"`
	Submitting           bool                 `json:"submitting"`
	Reservation          *ReservationResponse `json:"reservation,omitempty"`
	Alert                string               `json:"alert,omitempty"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

type SubmitOutcome string

const (
	SubmitOutcomeReserved SubmitOutcome = "reserved"
	SubmitOutcomeUrgency  SubmitOutcome = "urgency"
)

type SubmitFormResponse struct {
	Outcome SubmitOutcome `json:"outcome"`
	Form    *FormResponse `json:"form"`
}

type SpecialityListResponse struct {
	Specialities []string `json:"specialities"`
	Total        int      `json:"total"`
}

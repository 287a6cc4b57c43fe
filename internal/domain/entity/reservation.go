package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ReservationRequest is the payload sent to the MedHead backend
type ReservationRequest struct {
	ID          uuid.UUID `json:"id"`
	Specialite  string    `json:"specialite"`
	Responsable string    `json:"responsable"`
	Qualite     string    `json:"qualite"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// NewReservationRequest builds a request for the given form with a fresh id
func NewReservationRequest(form *FormState) *ReservationRequest {
	return &ReservationRequest{
		ID:          uuid.New(),
		Specialite:  form.Specialite,
		Responsable: form.Responsable,
		Qualite:     form.Qualite,
		Latitude:    form.Latitude,
		Longitude:   form.Longitude,
	}
}

// ReservationResult is the hospital allocation returned by the process endpoint
type ReservationResult struct {
	ID                   uuid.UUID `json:"id"`
	PatientID            uuid.UUID `json:"patientId"`
	Specialite           string    `json:"specialite"`
	HopitalNom           string    `json:"hopitalNom"`
	Delai                int       `json:"delai"`
	SpecialiteDisponible bool      `json:"specialiteDisponible"`
	LitReserve           bool      `json:"litReserve"`
}

// ReservationResponse keeps the backend answer verbatim. Result is set when
// the body decodes as a ReservationResult, Message when the body is not JSON.
type ReservationResponse struct {
	RequestID uuid.UUID          `json:"request_id"`
	Raw       json.RawMessage    `json:"raw,omitempty"`
	Result    *ReservationResult `json:"result,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// ParseReservationResponse interprets a backend response body
func ParseReservationResponse(body []byte) *ReservationResponse {
	if !json.Valid(body) {
		return &ReservationResponse{Message: string(body)}
	}

	resp := &ReservationResponse{Raw: append(json.RawMessage(nil), body...)}

	var result ReservationResult
	if err := json.Unmarshal(body, &result); err == nil && result.HopitalNom != "" {
		resp.Result = &result
	}

	return resp
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultQualite     = "Dr."
	DefaultResponsable = "Frank Estein"
	DefaultLatitude    = 48.8566
	DefaultLongitude   = 2.3522
)

// FormState is the reservation form of one visitor session
type FormState struct {
	SessionID            uuid.UUID            `json:"session_id"`
	Qualite              string               `json:"qualite"`
	Responsable          string               `json:"responsable"`
	Latitude             float64              `json:"latitude"`
	Longitude            float64              `json:"longitude"`
	Specialite           string               `json:"specialite"`
	FilteredSpecialities []string             `json:"filtered_specialities"`
	ShowUrgencyPopup     bool                 `json:"show_urgency_popup"`
	Submitting           bool                 `json:"submitting"`
	Response             *ReservationResponse `json:"response,omitempty"`
	Alert                string               `json:"alert,omitempty"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// NewFormState returns the form as it looks on first visit
func NewFormState(sessionID uuid.UUID) *FormState {
	return &FormState{
		SessionID:            sessionID,
		Qualite:              DefaultQualite,
		Responsable:          DefaultResponsable,
		Latitude:             DefaultLatitude,
		Longitude:            DefaultLongitude,
		FilteredSpecialities: []string{},
		UpdatedAt:            time.Now(),
	}
}

// HasPendingReservation reports whether a reservation result is still on
// screen. Submitting is not consulted: a crashed submit would otherwise lock
// the form until the session expires; in-flight calls are held by the
// submission guard instead.
func (f *FormState) HasPendingReservation() bool {
	return f.Response != nil
}

// ClearSuggestions empties the suggestion list
func (f *FormState) ClearSuggestions() {
	f.FilteredSpecialities = []string{}
}

// ClosePopup hides the result popup and resets the specialty field
func (f *FormState) ClosePopup() {
	f.Response = nil
	f.Submitting = false
	f.Specialite = ""
	f.Alert = ""
	f.ClearSuggestions()
}

// CloseUrgencyPopup behaves like ClosePopup and also hides the urgency popup
func (f *FormState) CloseUrgencyPopup() {
	f.ClosePopup()
	f.ShowUrgencyPopup = false
}

// Touch updates the modification time
func (f *FormState) Touch() {
	f.UpdatedAt = time.Now()
}

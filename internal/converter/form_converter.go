package converter

import (
	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/domain/entity"
)

// FormStateToResponse converts a FormState entity to FormResponse DTO
func FormStateToResponse(state *entity.FormState) *dto.FormResponse {
	if state == nil {
		return nil
	}

	filtered := state.FilteredSpecialities
	if filtered == nil {
		filtered = []string{}
	}

	return &dto.FormResponse{
		SessionID:            state.SessionID,
		Qualite:              state.Qualite,
		Responsable:          state.Responsable,
		Latitude:             state.Latitude,
		Longitude:            state.Longitude,
		Specialite:           state.Specialite,
		FilteredSpecialities: filtered,
		ShowUrgencyPopup:     state.ShowUrgencyPopup,
		Submitting:           state.Submitting,
		Reservation:          ReservationToResponse(state.Response),
		Alert:                state.Alert,
		UpdatedAt:            state.UpdatedAt,
	}
}

// ReservationToResponse converts a ReservationResponse entity to its DTO
func ReservationToResponse(resp *entity.ReservationResponse) *dto.ReservationResponse {
	if resp == nil {
		return nil
	}

	out := &dto.ReservationResponse{
		RequestID: resp.RequestID,
		Message:   resp.Message,
		Raw:       resp.Raw,
	}

	if r := resp.Result; r != nil {
		out.Result = &dto.ReservationResultResponse{
			ID:                   r.ID,
			PatientID:            r.PatientID,
			Specialite:           r.Specialite,
			HopitalNom:           r.HopitalNom,
			Delai:                r.Delai,
			SpecialiteDisponible: r.SpecialiteDisponible,
			LitReserve:           r.LitReserve,
		}
	}

	return out
}

// CreateReservationToEntity converts a direct reservation DTO to the backend payload
func CreateReservationToEntity(req *dto.CreateReservationRequest) *entity.ReservationRequest {
	out := &entity.ReservationRequest{
		Specialite:  req.Specialite,
		Responsable: req.Responsable,
		Qualite:     req.Qualite,
	}
	if req.ID != nil {
		out.ID = *req.ID
	}
	if req.Latitude != nil {
		out.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		out.Longitude = *req.Longitude
	}
	return out
}

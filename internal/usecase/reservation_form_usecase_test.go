package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/domain/entity"
	"medhead-reservation/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func hospitalResponse() *entity.ReservationResponse {
	return entity.ParseReservationResponse([]byte(`{"hopitalNom":"Hôpital Nord","delai":9,"specialiteDisponible":true,"litReserve":true}`))
}

func TestGetFormReturnsDefaults(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()

	form, err := f.usecase.GetForm(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, session, form.SessionID)
	assert.Equal(t, "Dr.", form.Qualite)
	assert.Equal(t, "Frank Estein", form.Responsable)
	assert.Equal(t, 48.8566, form.Latitude)
	assert.Equal(t, 2.3522, form.Longitude)
	assert.Empty(t, form.FilteredSpecialities)
	assert.Nil(t, form.Reservation)
}

func TestSubmitKnownSpecialitySendsOneCapitalizedRequest(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()

	f.gateway.On("Process", mock.Anything, mock.MatchedBy(func(req *entity.ReservationRequest) bool {
		return req.Specialite == "Cardiologie" &&
			req.Responsable == "Frank Estein" &&
			req.Qualite == "Dr." &&
			req.ID != uuid.Nil
	})).Return(hospitalResponse(), nil).Once()

	resp, err := f.usecase.Submit(context.Background(), session, &dto.SubmitFormRequest{Specialite: strPtr("  cARDIOLOGIE ")})
	require.NoError(t, err)

	assert.Equal(t, dto.SubmitOutcomeReserved, resp.Outcome)
	assert.Equal(t, "Cardiologie", resp.Form.Specialite)
	assert.False(t, resp.Form.Submitting)
	require.NotNil(t, resp.Form.Reservation)
	require.NotNil(t, resp.Form.Reservation.Result)
	assert.Equal(t, "Hôpital Nord", resp.Form.Reservation.Result.HopitalNom)
	assert.NotEqual(t, uuid.Nil, resp.Form.Reservation.RequestID)

	f.gateway.AssertNumberOfCalls(t, "Process", 1)
	assert.False(t, f.guard.InFlight(session))
}

func TestSubmitUsesStoredSpecialityWhenNoneGiven(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	_, err := f.usecase.SelectSpeciality(ctx, session, "neurologie")
	require.NoError(t, err)

	f.gateway.On("Process", mock.Anything, mock.MatchedBy(func(req *entity.ReservationRequest) bool {
		return req.Specialite == "Neurologie"
	})).Return(hospitalResponse(), nil).Once()

	resp, err := f.usecase.Submit(ctx, session, nil)
	require.NoError(t, err)
	assert.Equal(t, dto.SubmitOutcomeReserved, resp.Outcome)
}

func TestSubmitUnknownSpecialityOpensUrgencyPopup(t *testing.T) {
	tests := []string{"", "   ", "astrologie"}

	for _, specialite := range tests {
		t.Run(specialite, func(t *testing.T) {
			f := newFormFixture(t)

			resp, err := f.usecase.Submit(context.Background(), uuid.New(), &dto.SubmitFormRequest{Specialite: strPtr(specialite)})
			require.NoError(t, err)

			assert.Equal(t, dto.SubmitOutcomeUrgency, resp.Outcome)
			assert.True(t, resp.Form.ShowUrgencyPopup)
			assert.Nil(t, resp.Form.Reservation)
			f.gateway.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitRefusedWhileResponseDisplayed(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	f.gateway.On("Process", mock.Anything, mock.Anything).Return(hospitalResponse(), nil).Once()

	_, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("cardiologie")})
	require.NoError(t, err)

	_, err = f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("neurologie")})
	assert.ErrorIs(t, err, ErrReservationPending)

	_, err = f.usecase.ReserveInUrgency(ctx, session)
	assert.ErrorIs(t, err, ErrReservationPending)

	f.gateway.AssertNumberOfCalls(t, "Process", 1)
}

func TestSubmitRefusedWhileInFlight(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	started := make(chan struct{})
	unblock := make(chan struct{})

	f.gateway.On("Process", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(hospitalResponse(), nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("cardiologie")})
		done <- err
	}()

	<-started
	_, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("neurologie")})
	assert.ErrorIs(t, err, ErrReservationPending)

	_, err = f.usecase.ReserveInUrgency(ctx, session)
	assert.ErrorIs(t, err, ErrReservationPending)

	close(unblock)
	require.NoError(t, <-done)
	f.gateway.AssertNumberOfCalls(t, "Process", 1)

	// the refused submits did not overwrite the recorded outcome
	form, err := f.usecase.GetForm(ctx, session)
	require.NoError(t, err)
	require.NotNil(t, form.Reservation)
	assert.False(t, form.Submitting)
	assert.Equal(t, "Cardiologie", form.Specialite)
}

func TestSubmitKeepsChangesMadeDuringCall(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	started := make(chan struct{})
	unblock := make(chan struct{})

	f.gateway.On("Process", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(hospitalResponse(), nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("cardiologie")})
		done <- err
	}()

	<-started
	form, err := f.usecase.GetForm(ctx, session)
	require.NoError(t, err)
	assert.True(t, form.Submitting)

	lat, lon := 43.2965, 5.3698
	_, err = f.usecase.UpdateDetails(ctx, session, &dto.UpdateDetailsRequest{
		Responsable: "Jane Doe",
		Qualite:     "Infirmière",
		Latitude:    &lat,
		Longitude:   &lon,
	})
	require.NoError(t, err)

	close(unblock)
	require.NoError(t, <-done)

	form, err = f.usecase.GetForm(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", form.Responsable)
	assert.Equal(t, lat, form.Latitude)
	assert.False(t, form.Submitting)
	assert.NotNil(t, form.Reservation)
}

func TestSubmitBackendFailureClearsResponseAndAlerts(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	f.gateway.On("Process", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("cardiologie")})
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	form, err := f.usecase.GetForm(ctx, session)
	require.NoError(t, err)
	assert.Nil(t, form.Reservation)
	assert.False(t, form.Submitting)
	assert.Equal(t, AlertReservationFailed, form.Alert)

	// the form is usable again right away
	f.gateway.On("Process", mock.Anything, mock.Anything).Return(hospitalResponse(), nil).Once()
	resp, err := f.usecase.Submit(ctx, session, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Form.Alert)
}

func TestSubmitCallHasDeadline(t *testing.T) {
	f := newFormFixture(t)

	f.gateway.On("Process", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Second
	}), mock.Anything).Return(hospitalResponse(), nil).Once()

	_, err := f.usecase.Submit(context.Background(), uuid.New(), &dto.SubmitFormRequest{Specialite: strPtr("urologie")})
	require.NoError(t, err)
	f.gateway.AssertExpectations(t)
}

func TestReserveInUrgencySubmitsEmergencyMedicine(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	resp, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("inconnue")})
	require.NoError(t, err)
	require.Equal(t, dto.SubmitOutcomeUrgency, resp.Outcome)

	f.gateway.On("Process", mock.Anything, mock.MatchedBy(func(req *entity.ReservationRequest) bool {
		return req.Specialite == service.UrgencySpeciality
	})).Return(hospitalResponse(), nil).Once()

	resp, err = f.usecase.ReserveInUrgency(ctx, session)
	require.NoError(t, err)

	assert.Equal(t, dto.SubmitOutcomeReserved, resp.Outcome)
	assert.False(t, resp.Form.ShowUrgencyPopup)
	assert.Equal(t, service.UrgencySpeciality, resp.Form.Specialite)
	f.gateway.AssertExpectations(t)
}

func TestInputAndSelectSpeciality(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	form, err := f.usecase.InputSpeciality(ctx, session, "cardio")
	require.NoError(t, err)
	assert.Equal(t, "cardio", form.Specialite)
	assert.Equal(t, []string{"Cardiologie", "Cardiologie pédiatrique"}, form.FilteredSpecialities)

	form, err = f.usecase.InputSpeciality(ctx, session, "")
	require.NoError(t, err)
	assert.Empty(t, form.FilteredSpecialities)

	_, err = f.usecase.InputSpeciality(ctx, session, "cardio")
	require.NoError(t, err)
	form, err = f.usecase.SelectSpeciality(ctx, session, "Cardiologie pédiatrique")
	require.NoError(t, err)
	assert.Equal(t, "Cardiologie pédiatrique", form.Specialite)
	assert.Empty(t, form.FilteredSpecialities)
}

func TestClosePopupClearsResponseAndSuggestions(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	f.gateway.On("Process", mock.Anything, mock.Anything).Return(hospitalResponse(), nil).Once()
	_, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("cardiologie")})
	require.NoError(t, err)
	_, err = f.usecase.InputSpeciality(ctx, session, "card")
	require.NoError(t, err)

	form, err := f.usecase.ClosePopup(ctx, session)
	require.NoError(t, err)

	assert.Nil(t, form.Reservation)
	assert.Empty(t, form.Specialite)
	assert.Empty(t, form.FilteredSpecialities)
}

func TestCloseUrgencyPopup(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	_, err := f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("inconnue")})
	require.NoError(t, err)

	form, err := f.usecase.CloseUrgencyPopup(ctx, session)
	require.NoError(t, err)

	assert.False(t, form.ShowUrgencyPopup)
	assert.Empty(t, form.Specialite)
	assert.Empty(t, form.FilteredSpecialities)
	assert.Nil(t, form.Reservation)
}

func TestUpdateDetailsAndReset(t *testing.T) {
	f := newFormFixture(t)
	session := uuid.New()
	ctx := context.Background()

	lat, lon := 45.764, 4.8357
	form, err := f.usecase.UpdateDetails(ctx, session, &dto.UpdateDetailsRequest{
		Responsable: " Jane Doe ",
		Qualite:     "Infirmière",
		Latitude:    &lat,
		Longitude:   &lon,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", form.Responsable)
	assert.Equal(t, 45.764, form.Latitude)

	f.gateway.On("Process", mock.Anything, mock.MatchedBy(func(req *entity.ReservationRequest) bool {
		return req.Responsable == "Jane Doe" && req.Qualite == "Infirmière" && req.Latitude == lat && req.Longitude == lon
	})).Return(hospitalResponse(), nil).Once()
	_, err = f.usecase.Submit(ctx, session, &dto.SubmitFormRequest{Specialite: strPtr("pédiatrie")})
	require.NoError(t, err)
	f.gateway.AssertExpectations(t)

	require.NoError(t, f.usecase.Reset(ctx, session))
	form, err = f.usecase.GetForm(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "Frank Estein", form.Responsable)
	assert.Nil(t, form.Reservation)
}

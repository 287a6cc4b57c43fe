package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"medhead-reservation/internal/domain/entity"
	"medhead-reservation/internal/repository"
	"medhead-reservation/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReservationGateway struct {
	mock.Mock
}

func (m *MockReservationGateway) Process(ctx context.Context, req *entity.ReservationRequest) (*entity.ReservationResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*entity.ReservationResponse)
	return resp, args.Error(1)
}

func (m *MockReservationGateway) Reserve(ctx context.Context, req *entity.ReservationRequest) (*entity.ReservationResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*entity.ReservationResponse)
	return resp, args.Error(1)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testCatalog(t *testing.T) *service.SpecialityCatalog {
	t.Helper()
	catalog, err := service.NewDefaultSpecialityCatalog()
	require.NoError(t, err)
	return catalog
}

type formFixture struct {
	usecase ReservationFormUsecase
	gateway *MockReservationGateway
	guard   *service.SubmissionGuard
}

func newFormFixture(t *testing.T) *formFixture {
	t.Helper()
	log := quietLogger()
	gw := &MockReservationGateway{}
	guard := service.NewSubmissionGuard(nil, log, time.Minute)
	t.Cleanup(guard.Stop)

	uc := NewReservationFormUsecase(
		log,
		repository.NewFormStateMemoryRepository(time.Hour),
		testCatalog(t),
		guard,
		gw,
		time.Second,
	)

	return &formFixture{usecase: uc, gateway: gw, guard: guard}
}

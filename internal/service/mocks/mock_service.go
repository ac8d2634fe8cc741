package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/models"
	"github.com/farebridge/agency-booking/internal/poller"
	"github.com/farebridge/agency-booking/internal/service"
)

// MockBookingService is a mock implementation of service.BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) StartSearch(ctx context.Context, req *models.SearchRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBookingService) SearchSnapshot(tui string) (*poller.Snapshot, error) {
	args := m.Called(tui)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*poller.Snapshot), args.Error(1)
}

func (m *MockBookingService) CancelSearch(tui string) error {
	args := m.Called(tui)
	return args.Error(0)
}

func (m *MockBookingService) StartBooking(ctx context.Context, tui, candidateIndex string) (string, error) {
	args := m.Called(ctx, tui, candidateIndex)
	return args.String(0), args.Error(1)
}

func (m *MockBookingService) GetBookingState(ctx context.Context, bookingID string) (*models.BookingState, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingState), args.Error(1)
}

func (m *MockBookingService) DecideFare(ctx context.Context, bookingID string, accept bool) error {
	args := m.Called(ctx, bookingID, accept)
	return args.Error(0)
}

func (m *MockBookingService) SubmitPassengers(ctx context.Context, bookingID string, sig *models.SubmitPassengersSignal) error {
	args := m.Called(ctx, bookingID, sig)
	return args.Error(0)
}

func (m *MockBookingService) SubmitPayment(ctx context.Context, bookingID, payMode string) error {
	args := m.Called(ctx, bookingID, payMode)
	return args.Error(0)
}

func (m *MockBookingService) RetryPricing(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) GetAncillaries(ctx context.Context, bookingID string) (*service.AncillaryOffers, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AncillaryOffers), args.Error(1)
}

func (m *MockBookingService) RetrieveBooking(ctx context.Context, bookingID string) (*gds.RetrieveBookingResponse, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gds.RetrieveBookingResponse), args.Error(1)
}

func (m *MockBookingService) VoidBooking(ctx context.Context, bookingID, remarks string) (*gds.CancelBookingResponse, error) {
	args := m.Called(ctx, bookingID, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gds.CancelBookingResponse), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, limit int) ([]database.BookingRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.BookingRecord), args.Error(1)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vkazmir/flightdesk/internal/domain"
	"github.com/vkazmir/flightdesk/internal/service/booking"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Book(ctx context.Context, input booking.BookInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CheckIn(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	b := &domain.Booking{
		Ref:             "ABCD2345",
		PassengerID:     7,
		FlightID:        4,
		SeatNumber:      "12A",
		Status:          domain.BookingStatusConfirmed,
		TotalPriceCents: 10000,
		CreatedAt:       time.Now(),
	}

	mockService.On("Book", c.Request.Context(), input).Return(b, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ABCD2345", response.Ref)
	assert.Equal(t, string(domain.BookingStatusConfirmed), response.Status)
	assert.Equal(t, int64(10000), response.TotalPriceCents)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_errorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "seat taken", err: domain.ErrSeatTaken, wantStatus: http.StatusConflict},
		{name: "seats unavailable", err: domain.ErrSeatsUnavailable, wantStatus: http.StatusConflict},
		{name: "flight missing", err: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "bad input", err: domain.ErrValidation, wantStatus: http.StatusBadRequest},
		{name: "departed", err: domain.ErrInvalidState, wantStatus: http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService)

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			body, _ := json.Marshal(booking.BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})
			c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
			c.Request.Header.Set("Content-Type", "application/json")

			mockService.On("Book", c.Request.Context(), mock.Anything).Return(nil, tc.err)

			handler.create(c)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ref := "ABCD2345"
	c.Params = gin.Params{{Key: "ref", Value: ref}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/"+ref, nil)

	b := &domain.Booking{Ref: ref, FlightID: 4, SeatNumber: "12A", Status: domain.BookingStatusCancelled}

	mockService.On("Cancel", c.Request.Context(), ref).Return(b, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusCancelled), response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_checkIn(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ref := "ABCD2345"
	c.Params = gin.Params{{Key: "ref", Value: ref}}
	c.Request = httptest.NewRequest("POST", "/bookings/"+ref+"/checkin", nil)

	b := &domain.Booking{Ref: ref, FlightID: 4, SeatNumber: "12A", Status: domain.BookingStatusCheckedIn}

	mockService.On("CheckIn", c.Request.Context(), ref).Return(b, nil)

	handler.checkIn(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusCheckedIn), response.Status)
}

func TestBookingHandler_checkIn_invalidState(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ref := "ABCD2345"
	c.Params = gin.Params{{Key: "ref", Value: ref}}
	c.Request = httptest.NewRequest("POST", "/bookings/"+ref+"/checkin", nil)

	mockService.On("CheckIn", c.Request.Context(), ref).Return(nil, domain.ErrInvalidState)

	handler.checkIn(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

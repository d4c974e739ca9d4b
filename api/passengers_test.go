package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) ReservePassenger(ctx context.Context, input booking.ReservePassengerInput) (*domain.Passenger, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

func (m *MockBookingUseCase) CancelPassenger(ctx context.Context, id int64) (*domain.Passenger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

func (m *MockBookingUseCase) ListPassengers(ctx context.Context) ([]domain.Passenger, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Passenger), args.Error(1)
}

func (m *MockBookingUseCase) ListPassengersWithFlights(ctx context.Context) ([]domain.PassengerWithFlight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PassengerWithFlight), args.Error(1)
}

func (m *MockBookingUseCase) ExistsPassengerWith(ctx context.Context, field domain.IdentityField, value string) (bool, error) {
	args := m.Called(ctx, field, value)
	return args.Bool(0), args.Error(1)
}

func newPassengerRouter(service booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPassengerHandler(service).Register(r.Group("/api/v1/passengers"))
	return r
}

const ashaJSON = `{"name":"Asha","passport":"P1","contact":"C1","email":"e1@x.com","flight_id":4}`

func TestPassengerHandler_reserve(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newPassengerRouter(mockService)

	input := booking.ReservePassengerInput{Name: "Asha", Passport: "P1", Contact: "C1", Email: "e1@x.com", FlightID: 4}
	mockService.On("ReservePassenger", mock.Anything, input).
		Return(&domain.Passenger{ID: 1, Name: "Asha", Passport: "P1", Contact: "C1", Email: "e1@x.com", FlightID: 4}, nil).Once()

	w := serve(r, http.MethodPost, "/api/v1/passengers", ashaJSON)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body passengerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.ID)
	assert.Equal(t, int64(4), body.FlightID)
	mockService.AssertExpectations(t)
}

func TestPassengerHandler_reserve_Rejections(t *testing.T) {
	testCases := []struct {
		err    error
		status int
		reason string
	}{
		{domain.ErrNoSuchFlight, http.StatusNotFound, "no-such-flight"},
		{domain.ErrFlightFull, http.StatusConflict, "flight-full"},
		{domain.ErrDuplicatePassport, http.StatusConflict, "duplicate-passport"},
		{domain.ErrDuplicateContact, http.StatusConflict, "duplicate-contact"},
		{domain.ErrDuplicateEmail, http.StatusConflict, "duplicate-email"},
	}

	for _, tc := range testCases {
		t.Run(tc.reason, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			r := newPassengerRouter(mockService)
			mockService.On("ReservePassenger", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			w := serve(r, http.MethodPost, "/api/v1/passengers", ashaJSON)

			assert.Equal(t, tc.status, w.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, domain.Reason(tc.reason), body.Reason)
			assert.Equal(t, tc.err.Error(), body.Error)
		})
	}
}

func TestPassengerHandler_reserve_BadRequest(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newPassengerRouter(mockService)

	for _, body := range []string{
		`{"passport":"P1","contact":"C1","email":"e1@x.com","flight_id":4}`,
		`{"name":"Asha","passport":"P1","contact":"C1","email":"not-an-email","flight_id":4}`,
		`{"name":"Asha","passport":"P1","contact":"C1","email":"e1@x.com"}`,
		`{"name":"Asha","passport":"P1","contact":"C1","email":"e1@x.com","flight_id":"four"}`,
	} {
		w := serve(r, http.MethodPost, "/api/v1/passengers", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	mockService.AssertNotCalled(t, "ReservePassenger", mock.Anything, mock.Anything)
}

// Рейс с id 0 не существует: ответ 404 no-such-flight от сервиса
func TestPassengerHandler_reserve_ZeroFlight(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newPassengerRouter(mockService)

	mockService.On("ReservePassenger", mock.Anything, mock.MatchedBy(func(in booking.ReservePassengerInput) bool {
		return in.FlightID == 0
	})).Return(nil, domain.ErrNoSuchFlight).Once()

	w := serve(r, http.MethodPost, "/api/v1/passengers",
		`{"name":"Asha","passport":"P1","contact":"C1","email":"e1@x.com","flight_id":0}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"reason":"no-such-flight"`)
	mockService.AssertExpectations(t)
}

func TestPassengerHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newPassengerRouter(mockService)

	mockService.On("CancelPassenger", mock.Anything, int64(1)).
		Return(&domain.Passenger{ID: 1, Name: "Asha", FlightID: 4}, nil).Once()
	mockService.On("CancelPassenger", mock.Anything, int64(2)).Return(nil, domain.ErrPassengerNotFound).Once()

	w := serve(r, http.MethodDelete, "/api/v1/passengers/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodDelete, "/api/v1/passengers/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"passenger not found"}`, w.Body.String())

	mockService.AssertExpectations(t)
}

func TestPassengerHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newPassengerRouter(mockService)

	mockService.On("ListPassengers", mock.Anything).Return([]domain.Passenger{
		{ID: 1, Name: "Asha", FlightID: 4},
		{ID: 2, Name: "Ravi", FlightID: 4},
	}, nil).Once()

	w := serve(r, http.MethodGet, "/api/v1/passengers", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body []passengerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Ravi", body[1].Name)
}

func TestPassengerHandler_listWithFlights(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newPassengerRouter(mockService)

	mockService.On("ListPassengersWithFlights", mock.Anything).Return([]domain.PassengerWithFlight{
		{
			Passenger: domain.Passenger{ID: 1, Name: "Asha", FlightID: 4},
			Flight:    domain.Flight{ID: 4, Name: "AI101", Capacity: 100, BookedCount: 1},
		},
	}, nil).Once()

	w := serve(r, http.MethodGet, "/api/v1/passengers/with-flights", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Asha", body[0]["name"])
	flight := body[0]["flight"].(map[string]any)
	assert.Equal(t, "AI101", flight["name"])
	assert.Equal(t, float64(99), flight["available"])
}

func TestPassengerHandler_exists(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newPassengerRouter(mockService)

	mockService.On("ExistsPassengerWith", mock.Anything, domain.FieldPassport, "P1").Return(true, nil).Once()

	w := serve(r, http.MethodGet, "/api/v1/passengers/exists?field=passport&value=P1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"field":"passport","value":"P1","exists":true}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/v1/passengers/exists?field=name&value=Asha", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/passengers/exists?field=email", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertExpectations(t)
}

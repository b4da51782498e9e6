package get_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TherapyBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/bookings"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-TherapyBooking/pkg/logger"
)

type serviceStub struct {
	err error
}

func (s serviceStub) GetBooking(ctx context.Context, id string, callerID string) (*models.BookingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.BookingResponse{ID: id, PatientID: callerID, Status: "holding", Source: "reservation"}, nil
}

func get(svc BookingService, userID string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Handle("/api/v1/bookings/{bookingId}",
		middleware.Auth(http.HandlerFunc(NewHandler(svc, logger.NewNop()).Handle))).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/b-1", nil)
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		err      error
		wantCode int
	}{
		{name: "found", userID: "patient", wantCode: http.StatusOK},
		{name: "missing identity", wantCode: http.StatusUnauthorized},
		{name: "malformed id", userID: "patient", err: bookings.ErrInvalidInput, wantCode: http.StatusBadRequest},
		{name: "unknown booking", userID: "patient", err: bookings.ErrBookingNotFound, wantCode: http.StatusNotFound},
		{name: "not a participant", userID: "stranger", err: bookings.ErrUnauthorized, wantCode: http.StatusForbidden},
		{name: "store down", userID: "patient", err: bookings.ErrStoreUnavailable, wantCode: http.StatusServiceUnavailable},
		{name: "internal", userID: "patient", err: bookings.ErrInternal, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(serviceStub{err: tt.err}, tt.userID)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandler_Handle_Body(t *testing.T) {
	rec := get(serviceStub{}, "patient")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "b-1", resp.ID)
	assert.Equal(t, "patient", resp.PatientID)
	assert.Equal(t, "holding", resp.Status)
}

package cancel_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TherapyBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	reservationRepo "github.com/m04kA/SMC-TherapyBooking/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/bookings"
	"github.com/m04kA/SMC-TherapyBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-TherapyBooking/pkg/logger"
)

func newRouter(store *reservationRepo.MemoryRepository) *mux.Router {
	svc := bookings.NewService(store, nil, logger.NewNop())
	h := NewHandler(svc, logger.NewNop())

	r := mux.NewRouter()
	r.Handle("/api/v1/bookings/{bookingId}/cancel", middleware.Auth(http.HandlerFunc(h.Handle))).Methods(http.MethodPatch)
	return r
}

func holdSlot(t *testing.T, store *reservationRepo.MemoryRepository, patientID string) *domain.Reservation {
	now := time.Now()
	res, err := store.CreateHolding(context.Background(), domain.SlotKey{
		PsychologistID: uuid.NewString(),
		Date:           now.AddDate(0, 0, 2),
		StartTime:      "10:00",
	}, domain.Hold{
		PatientID:    patientID,
		EndTime:      "10:50",
		SessionPrice: 16000,
		LockedAt:     now,
		ExpiresAt:    now.Add(domain.DefaultHoldDuration),
	})
	require.NoError(t, err)
	return res
}

func cancel(router http.Handler, bookingID, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/"+bookingID+"/cancel", nil)
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Handle(t *testing.T) {
	store := reservationRepo.NewMemoryRepository()
	router := newRouter(store)
	patient := uuid.NewString()
	res := holdSlot(t, store, patient)

	rec := cancel(router, res.ID, patient)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.CancelResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, res.ID, resp.ID)
	assert.False(t, resp.AlreadyCancelled)

	rec = cancel(router, res.ID, patient)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.AlreadyCancelled)
}

func TestHandler_Handle_Errors(t *testing.T) {
	store := reservationRepo.NewMemoryRepository()
	router := newRouter(store)
	res := holdSlot(t, store, uuid.NewString())

	tests := []struct {
		name      string
		bookingID string
		userID    string
		wantCode  int
	}{
		{name: "missing identity", bookingID: res.ID, userID: "", wantCode: http.StatusUnauthorized},
		{name: "malformed id", bookingID: "booking-1", userID: uuid.NewString(), wantCode: http.StatusBadRequest},
		{name: "unknown booking", bookingID: uuid.NewString(), userID: uuid.NewString(), wantCode: http.StatusNotFound},
		{name: "stranger", bookingID: res.ID, userID: uuid.NewString(), wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cancel(router, tt.bookingID, tt.userID)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

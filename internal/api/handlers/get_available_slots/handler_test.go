package get_available_slots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getAvailableSlots "github.com/m04kA/SMC-TherapyBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-TherapyBooking/pkg/logger"
)

type useCaseStub struct {
	resp *getAvailableSlots.Response
	err  error
	got  *getAvailableSlots.Request
}

func (s *useCaseStub) Execute(ctx context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	s.got = req
	return s.resp, s.err
}

func serve(uc GetAvailableSlotsUseCase, url string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/psychologists/{psychologistId}/available-slots", NewHandler(uc, logger.NewNop()).Handle)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestHandler_Handle(t *testing.T) {
	stub := &useCaseStub{resp: &getAvailableSlots.Response{
		PsychologistID: "psy",
		Date:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Slots: []getAvailableSlots.Slot{
			{StartTime: "09:00", EndTime: "09:50", DurationMinutes: 50},
			{StartTime: "11:00", EndTime: "11:50", DurationMinutes: 50},
		},
	}}

	rec := serve(stub, "/api/v1/psychologists/psy/available-slots?date=2026-03-10")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, stub.got)
	assert.Equal(t, "psy", stub.got.PsychologistID)
	assert.Equal(t, "2026-03-10", stub.got.Date.Format("2006-01-02"))

	var resp AvailableSlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2026-03-10", resp.Date)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, AvailableSlot{StartTime: "11:00", EndTime: "11:50", DurationMinutes: 50}, resp.Slots[1])
}

func TestHandler_Handle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		err      error
		wantCode int
	}{
		{name: "missing date", url: "/api/v1/psychologists/psy/available-slots", wantCode: http.StatusBadRequest},
		{name: "bad date", url: "/api/v1/psychologists/psy/available-slots?date=10.03.2026", wantCode: http.StatusBadRequest},
		{name: "invalid input", err: getAvailableSlots.ErrInvalidInput, wantCode: http.StatusBadRequest},
		{name: "date in the past", err: getAvailableSlots.ErrInvalidDate, wantCode: http.StatusBadRequest},
		{name: "unknown psychologist", err: getAvailableSlots.ErrPsychologistNotFound, wantCode: http.StatusNotFound},
		{name: "profile service down", err: fmt.Errorf("%w: timeout", getAvailableSlots.ErrProfileUnavailable), wantCode: http.StatusServiceUnavailable},
		{name: "stores down", err: getAvailableSlots.ErrStoreUnavailable, wantCode: http.StatusServiceUnavailable},
		{name: "internal", err: getAvailableSlots.ErrInternal, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := tt.url
			if url == "" {
				url = "/api/v1/psychologists/psy/available-slots?date=2026-03-10"
			}

			rec := serve(&useCaseStub{err: tt.err}, url)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TherapyBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TherapyBooking/internal/api/middleware"
	getAvailableSlots "github.com/m04kA/SMC-TherapyBooking/internal/usecase/get_available_slots"
)

const (
	msgMissingDate          = "дата обязательна"
	msgInvalidDate          = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidInput         = "некорректный ID психолога"
	msgDateInPast           = "дата в прошлом"
	msgPsychologistNotFound = "психолог не найден"
	msgUnavailable          = "расписание временно недоступно"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/psychologists/{psychologistId}/available-slots
// Query params: date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	psychologistID := mux.Vars(r)["psychologistId"]
	callerID, _ := middleware.GetUserID(r.Context())

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /psychologists/{id}/available-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(callerID, psychologistID, dateStr)
	if err != nil {
		h.logger.Warn("GET /psychologists/{id}/available-slots - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /psychologists/{id}/available-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate):
			h.logger.Warn("GET /psychologists/{id}/available-slots - Date in the past: %s", dateStr)
			handlers.RespondBadRequest(w, msgDateInPast)

		case errors.Is(err, getAvailableSlots.ErrPsychologistNotFound):
			h.logger.Warn("GET /psychologists/{id}/available-slots - Psychologist not found: psychologist_id=%s", psychologistID)
			handlers.RespondNotFound(w, msgPsychologistNotFound)

		case errors.Is(err, getAvailableSlots.ErrProfileUnavailable), errors.Is(err, getAvailableSlots.ErrStoreUnavailable):
			h.logger.Error("GET /psychologists/{id}/available-slots - Dependency unavailable: psychologist_id=%s, error=%v",
				psychologistID, err)
			handlers.RespondServiceUnavailable(w, msgUnavailable)

		default:
			h.logger.Error("GET /psychologists/{id}/available-slots - Failed to get slots: psychologist_id=%s, error=%v",
				psychologistID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /psychologists/{id}/available-slots - Slots retrieved: psychologist_id=%s, date=%s, slots_count=%d",
		psychologistID, dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

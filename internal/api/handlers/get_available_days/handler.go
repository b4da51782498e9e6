package get_available_days

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TherapyBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TherapyBooking/internal/api/middleware"
	getAvailableDays "github.com/m04kA/SMC-TherapyBooking/internal/usecase/get_available_days"
)

const (
	msgInvalidCount         = "некорректный параметр count"
	msgInvalidInput         = "некорректные параметры запроса"
	msgPsychologistNotFound = "психолог не найден"
	msgUnavailable          = "расписание временно недоступно"
)

type Handler struct {
	useCase GetAvailableDaysUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableDaysUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/psychologists/{psychologistId}/available-days
// Query params: count (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	psychologistID := mux.Vars(r)["psychologistId"]
	callerID, _ := middleware.GetUserID(r.Context())

	count := 0
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		parsed, err := strconv.Atoi(countStr)
		if err != nil {
			h.logger.Warn("GET /psychologists/{id}/available-days - Invalid count: %v", err)
			handlers.RespondBadRequest(w, msgInvalidCount)
			return
		}
		count = parsed
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableDays.Request{
		CallerID:       callerID,
		PsychologistID: psychologistID,
		Count:          count,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableDays.ErrInvalidInput):
			h.logger.Warn("GET /psychologists/{id}/available-days - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, getAvailableDays.ErrPsychologistNotFound):
			h.logger.Warn("GET /psychologists/{id}/available-days - Psychologist not found: psychologist_id=%s", psychologistID)
			handlers.RespondNotFound(w, msgPsychologistNotFound)

		case errors.Is(err, getAvailableDays.ErrProfileUnavailable):
			h.logger.Error("GET /psychologists/{id}/available-days - Profile service unavailable: %v", err)
			handlers.RespondServiceUnavailable(w, msgUnavailable)

		default:
			h.logger.Error("GET /psychologists/{id}/available-days - Failed to get days: psychologist_id=%s, error=%v",
				psychologistID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /psychologists/{id}/available-days - Days retrieved: psychologist_id=%s, days_count=%d",
		psychologistID, len(result.Days))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-TherapyBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TherapyBooking/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-TherapyBooking/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени, ожидается HH:MM"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "бронировать можно только для себя"
	msgSlotInPast         = "выбранный слот уже в прошлом"
	msgStoreUnavailable   = "сервис бронирования временно недоступен"
)

var (
	errInvalidDate = errors.New("invalid date")
	errInvalidTime = errors.New("invalid time")
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(callerID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		if errors.Is(err, errInvalidTime) {
			handlers.RespondBadRequest(w, msgInvalidTime)
		} else {
			handlers.RespondBadRequest(w, msgInvalidDate)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: caller=%s, error=%v", callerID, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, createBooking.ErrInvalidDate):
			h.logger.Warn("POST /bookings - Slot in the past: caller=%s, date=%s, start=%s", callerID, req.Date, req.StartTime)
			handlers.RespondBadRequest(w, msgSlotInPast)

		case errors.Is(err, createBooking.ErrUnauthorized):
			h.logger.Warn("POST /bookings - Forbidden: caller=%s, patient=%s", callerID, useCaseReq.PatientID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, createBooking.ErrStoreUnavailable):
			h.logger.Error("POST /bookings - Store unavailable: caller=%s, error=%v", callerID, err)
			handlers.RespondServiceUnavailable(w, msgStoreUnavailable)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: caller=%s, error=%v", callerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if !result.Success {
		h.logger.Info("POST /bookings - Slot unavailable: caller=%s, psychologist=%s, reason=%s",
			callerID, req.PsychologistID, result.Reason)
		handlers.RespondJSON(w, http.StatusConflict, &ContentionResponse{
			Reason:  string(result.Reason),
			Message: result.Message(),
			Source:  string(result.Source),
		})
		return
	}

	h.logger.Info("POST /bookings - Slot held successfully: booking_id=%s, caller=%s, source=%s",
		result.BookingID, callerID, result.Source)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}

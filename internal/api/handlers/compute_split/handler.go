package compute_split

import (
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-TherapyBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

const msgInvalidAmount = "сумма должна быть положительным целым числом в минимальных единицах валюты"

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

type Handler struct {
	logger Logger
}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle GET /api/v1/split?amount=16000
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil || amount <= 0 {
		h.logger.Warn("GET /split - Invalid amount: %q", amountStr)
		handlers.RespondBadRequest(w, msgInvalidAmount)
		return
	}

	split := fromDomain(domain.ComputeSplit(amount))

	h.logger.Info("GET /split - amount=%d, professional=%d, platform=%d", amount, split.Professional, split.Platform)
	handlers.RespondJSON(w, http.StatusOK, split)
}

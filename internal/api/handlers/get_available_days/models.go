package get_available_days

import (
	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	getAvailableDays "github.com/m04kA/SMC-TherapyBooking/internal/usecase/get_available_days"
)

// AvailableDaysResponse HTTP response model
type AvailableDaysResponse struct {
	PsychologistID string         `json:"psychologistId"`
	Days           []AvailableDay `json:"days"`
}

// AvailableDay день приема
type AvailableDay struct {
	Date            string `json:"date"`
	Weekday         string `json:"weekday"`
	PackageSessions int    `json:"packageSessions"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableDays.Response) *AvailableDaysResponse {
	days := make([]AvailableDay, len(resp.Days))
	for i, day := range resp.Days {
		days[i] = AvailableDay{
			Date:            day.Date.Format(domain.DateFormat),
			Weekday:         day.Weekday.String(),
			PackageSessions: day.PackageSessions,
		}
	}

	return &AvailableDaysResponse{
		PsychologistID: resp.PsychologistID,
		Days:           days,
	}
}

package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
	"github.com/m04kA/SMC-TherapyBooking/pkg/types"
)

// Settings параметры расписания
type Settings struct {
	SessionMinutes int // длительность сессии
	GapMinutes     int // перерыв между сессиями
	MinHoursAhead  int // минимальный запас времени до начала слота
}

// DefaultSettings параметры расписания по умолчанию
func DefaultSettings() Settings {
	return Settings{
		SessionMinutes: domain.DefaultSessionMinutes,
		GapMinutes:     domain.DefaultGapMinutes,
		MinHoursAhead:  domain.DefaultMinHoursAhead,
	}
}

// Request модель запроса на получение свободных слотов
type Request struct {
	CallerID       string    // ID пользователя (для логирования, не влияет на результат)
	PsychologistID string    // ID психолога
	Date           time.Time // Дата (без времени)
}

// Response модель ответа со списком свободных слотов
type Response struct {
	PsychologistID string
	Date           time.Time
	Slots          []Slot
}

// Slot свободный слот
type Slot struct {
	StartTime       types.TimeString
	EndTime         types.TimeString
	DurationMinutes int
}
